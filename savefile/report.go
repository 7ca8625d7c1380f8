package savefile

import (
	"fmt"

	"drgedit/readers"
	"drgedit/resources"
	"drgedit/tables"
	"drgedit/types"
)

// Schematics returns every catalog entry: overclocks then cosmetics, each in
// ascending identifier order.
func (sf *SaveFile) Schematics() []*types.Schematic {
	return sf.Catalog.All()
}

// SetState moves a schematic to a new acquisition state. Forged and unforged
// lists are both rebuilt on Save, so any transition is allowed.
func (sf *SaveFile) SetState(id types.Identifier, state types.AcquisitionState) error {
	if state < types.Unacquired || state > types.Forged {
		return fmt.Errorf("invalid acquisition state %d", int(state))
	}
	if !sf.Catalog.SetState(id, state) {
		return fmt.Errorf("schematic %s is not in the catalog", id)
	}
	return nil
}

// Counts is the number of catalog entries in each state.
func (sf *SaveFile) Counts() map[types.AcquisitionState]int {
	out := map[types.AcquisitionState]int{}
	for _, s := range sf.Catalog.All() {
		out[s.State]++
	}
	return out
}

// Unknown returns the identifiers in the buffer's lists that the catalog
// has no entry for.
func (sf *SaveFile) Unknown() (forged, unforged []types.Identifier) {
	return sf.region.UnknownForged, sf.region.UnknownUnforged
}

// LocatedField is one scalar as found in the current buffer.
type LocatedField struct {
	Name   string
	Kind   Kind
	Offset int
	Value  Value // what the buffer holds, which may differ from the unsaved snapshot
}

// Located reports the offset and stored value of every field in the current
// buffer, including the two schematic counts.
func (sf *SaveFile) Located() ([]LocatedField, error) {
	buf := sf.buf
	l := sf.layout
	out := []LocatedField{}

	add := func(name string, kind Kind, offset int) error {
		v := Value{Kind: kind}
		var err error
		if kind == KindFloat32 {
			v.F32, err = readers.Float32LE(buf, offset, name)
		} else {
			v.U32, err = readers.Uint32LE(buf, offset, name)
		}
		if err != nil {
			return err
		}
		out = append(out, LocatedField{Name: name, Kind: kind, Offset: offset, Value: v})
		return nil
	}

	for c := types.Class(0); c < types.ClassCount; c++ {
		if err := add(c.String()+"_xp", KindUint32, sf.xpPos[c]); err != nil {
			return nil, err
		}
		if err := add(c.String()+"_promotions", KindUint32, sf.xpPos[c]+l.PromotionsDelta); err != nil {
			return nil, err
		}
	}

	creditsPos, err := readers.Locate(buf, tables.MarkerCredits, l.CreditsDelta, "Credits", sf.strict)
	if err != nil {
		return nil, err
	}
	if err := add("credits", KindUint32, creditsPos); err != nil {
		return nil, err
	}
	if perkPos, found, err := sf.locatePerkPoints(buf); err != nil {
		return nil, err
	} else if found {
		if err := add("perk_points", KindUint32, perkPos); err != nil {
			return nil, err
		}
	}

	region, err := resources.Region(buf, sf.strict)
	if err != nil {
		return nil, err
	}
	for _, res := range tables.AllResources() {
		off, err := resources.Offset(buf, region, res)
		if err != nil {
			return nil, err
		}
		if err := add(res.Name, KindFloat32, off); err != nil {
			return nil, err
		}
	}

	if err := add("forged_count", KindUint32, sf.region.Start+l.ForgedCountDelta); err != nil {
		return nil, err
	}
	if sf.region.Owned >= 0 {
		if err := add("unforged_count", KindUint32, sf.region.Owned+l.UnforgedCountDelta); err != nil {
			return nil, err
		}
	}
	return out, nil
}
