// Package schematics decodes and rebuilds the forged/unforged schematic lists.
//
// Region layout, all offsets relative to the "ForgedSchematics" name:
//
//	+35   u64  array property size (everything after the pad byte)
//	+63   u32  forged count
//	+107  u64  inner struct size (16 * forged count)
//	+141       forged identifiers, 16 bytes each
//	           optional "OwnedSchematics" array (the unforged list)
//	end        FString length prefix of "bFirstSchematicMessageShown"
//
// The unforged array is optional. When it is present, its count sits 62 bytes
// after the "Owned" name and its identifiers start 77 bytes after the count.
package schematics

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"drgedit/readers"
	"drgedit/tables"
	"drgedit/types"
	"drgedit/writers"
)

// Region is the decoded schematic area of one buffer. Offsets are only valid
// for the buffer Locate was called on.
type Region struct {
	Start int // "ForgedSchematics"
	End   int // first byte kept verbatim after the lists
	Owned int // "OwnedSchematics", -1 when there are no unforged schematics

	Forged   []types.Identifier
	Unforged []types.Identifier

	// Identifiers the catalog does not know about. They are written back untouched.
	UnknownForged   []types.Identifier
	UnknownUnforged []types.Identifier

	forgedArraySize  uint64
	forgedStructSize uint64
	layout           tables.Layout
}

// Locate finds and decodes the schematic region.
func Locate(buf []byte, layout tables.Layout, strict bool) (*Region, error) {
	// The name occurs twice in a well-formed header: once for the property and
	// once for its inner struct, so strict mode can't just use FindUnique.
	start, err := readers.Locate(buf, tables.MarkerForged, 0, "ForgedSchematics", false)
	if err != nil {
		return nil, err
	}
	if strict {
		inner := start + layout.ForgedCountDelta + 4 + tables.FStringLengthPrefixLen
		second, ok := readers.FindIn(buf, start+1, len(buf), tables.MarkerForged)
		if n := readers.Count(buf, tables.MarkerForged); n != 2 || !ok || second != inner {
			return nil, &types.FormatError{What: "ForgedSchematics", Offset: start,
				Err: fmt.Errorf("marker occurs %d times", n)}
		}
	}
	endMarker, err := readers.Locate(buf, tables.MarkerSchematicsEnd, 0, "bFirstSchematicMessageShown", strict)
	if err != nil {
		return nil, err
	}
	end := endMarker - tables.FStringLengthPrefixLen
	if end < start+layout.ForgedListDelta {
		return nil, &types.FormatError{What: "bFirstSchematicMessageShown", Offset: endMarker,
			Err: fmt.Errorf("schematic region end precedes forged list (start %d)", start)}
	}

	r := &Region{Start: start, End: end, Owned: -1, layout: layout}
	region := buf[:end]

	if r.forgedArraySize, err = readers.Uint64LE(region, start+layout.ForgedArraySizeDelta, "forged array size"); err != nil {
		return nil, err
	}
	if r.forgedStructSize, err = readers.Uint64LE(region, start+layout.ForgedStructSizeDelta, "forged struct size"); err != nil {
		return nil, err
	}
	forgedCount, err := readers.Uint32LE(region, start+layout.ForgedCountDelta, "forged count")
	if err != nil {
		return nil, err
	}
	if r.Forged, err = readers.Identifiers(region, start+layout.ForgedListDelta, forgedCount, "forged list"); err != nil {
		return nil, errors.Wrapf(err, "%d forged schematics", forgedCount)
	}

	// No unforged array at all is normal: it just means nothing is waiting to be forged.
	owned, ok := readers.FindIn(buf, r.ForgedEnd(), end, tables.MarkerOwned)
	if !ok {
		return r, nil
	}
	r.Owned = owned
	countOffset := owned + layout.UnforgedCountDelta
	unforgedCount, err := readers.Uint32LE(region, countOffset, "unforged count")
	if err != nil {
		return nil, err
	}
	if r.Unforged, err = readers.Identifiers(region, countOffset+layout.UnforgedListDelta, unforgedCount, "unforged list"); err != nil {
		return nil, errors.Wrapf(err, "%d unforged schematics", unforgedCount)
	}
	return r, nil
}

// ForgedEnd is one past the last forged identifier. Everything before it is
// kept verbatim by Rebuild unless the forged list changes.
func (r *Region) ForgedEnd() int {
	return r.Start + r.layout.ForgedListDelta + len(r.Forged)*types.IdentifierLength
}

// UnforgedEnd is one past the last unforged identifier, or ForgedEnd when
// there is no unforged array.
func (r *Region) UnforgedEnd() int {
	if r.Owned < 0 {
		return r.ForgedEnd()
	}
	return r.Owned + r.layout.UnforgedCountDelta + r.layout.UnforgedListDelta + len(r.Unforged)*types.IdentifierLength
}

// Slack is the number of bytes between the lists and End. Rebuild drops them.
func (r *Region) Slack() int {
	return r.End - r.UnforgedEnd()
}

// Classify tags catalog entries with the state implied by the decoded lists.
// Anything in neither list ends up Unacquired; anything in both is Forged.
func (r *Region) Classify(cat *types.Catalog) {
	cat.ResetStates()
	for _, id := range r.Unforged {
		cat.SetState(id, types.Unforged)
	}
	for _, id := range r.Forged {
		cat.SetState(id, types.Forged)
	}
	r.resolveUnknown(cat)
}

// resolveUnknown records the identifiers the catalog has no entry for,
// without touching any state.
func (r *Region) resolveUnknown(cat *types.Catalog) {
	r.UnknownForged, r.UnknownUnforged = nil, nil
	for _, id := range r.Forged {
		if len(cat.Lookup(id)) == 0 {
			r.UnknownForged = append(r.UnknownForged, id)
		}
	}
	for _, id := range r.Unforged {
		if len(cat.Lookup(id)) == 0 {
			r.UnknownUnforged = append(r.UnknownUnforged, id)
		}
	}
}

// Plan derives the lists to write from the catalog's current states.
//
// Forged: decoded order is kept for everything still forged (and for unknown
// identifiers), repeats included, then newly forged overclocks and cosmetics
// are appended, each in ascending identifier order.
// Unforged: overclocks ascending, cosmetics ascending, then unknown
// identifiers in decoded order. An entry decoded in both lists stays in both
// for as long as it is still forged.
func (r *Region) Plan(cat *types.Catalog) (forged, unforged []types.Identifier) {
	r.resolveUnknown(cat)
	seen := map[types.Identifier]bool{}
	for _, id := range r.Forged {
		if keepForged(cat, id) {
			forged = append(forged, id)
			seen[id] = true
		}
	}
	for _, id := range cat.WithState(types.Forged) {
		if !seen[id] {
			forged = append(forged, id)
			seen[id] = true
		}
	}

	for _, s := range cat.All() {
		switch {
		case s.State == types.Unforged:
			unforged = append(unforged, s.ID)
		case s.State == types.Forged && slices.Contains(r.Forged, s.ID) && slices.Contains(r.Unforged, s.ID):
			unforged = append(unforged, s.ID)
		}
	}
	for _, id := range r.UnknownUnforged {
		if !slices.Contains(unforged, id) {
			unforged = append(unforged, id)
		}
	}
	return forged, unforged
}

func keepForged(cat *types.Catalog, id types.Identifier) bool {
	entries := cat.Lookup(id)
	if len(entries) == 0 {
		return true
	}
	for _, s := range entries {
		if s.State == types.Forged {
			return true
		}
	}
	return false
}

// Rebuild returns a new buffer with the schematic lists replaced. buf is not
// modified. The output length changes by 16 bytes per identifier added or
// removed, plus the unforged array's fixed overhead when it appears or disappears.
func Rebuild(buf []byte, r *Region, forged, unforged []types.Identifier) ([]byte, error) {
	if r.End > len(buf) || r.ForgedEnd() > r.End {
		return nil, &types.FormatError{What: "ForgedSchematics", Offset: r.Start, Err: errors.New("region does not fit buffer")}
	}
	block := UnforgedBlock(unforged)

	out := bytes.NewBuffer(make([]byte, 0, len(buf)+(len(forged)-len(r.Forged))*types.IdentifierLength+len(block)))
	if slices.Equal(forged, r.Forged) {
		out.Write(buf[:r.ForgedEnd()])
	} else {
		head, err := r.forgedHead(buf, len(forged))
		if err != nil {
			return nil, err
		}
		out.Write(head)
		writers.Identifiers(out, forged)
	}
	out.Write(block)
	out.Write(buf[r.End:])
	return out.Bytes(), nil
}

// forgedHead copies everything up to the first forged identifier and patches
// the count and both size fields for n identifiers.
func (r *Region) forgedHead(buf []byte, n int) ([]byte, error) {
	l := r.layout
	if r.forgedArraySize != r.forgedArraySizeFor(len(r.Forged)) || r.forgedStructSize != uint64(len(r.Forged)*types.IdentifierLength) {
		// The size fields don't follow the model, so patching them would be a guess.
		return nil, &types.FormatError{What: "ForgedSchematics", Offset: r.Start,
			Err: fmt.Errorf("unexpected property sizes %d/%d for %d schematics", r.forgedArraySize, r.forgedStructSize, len(r.Forged))}
	}
	head := slices.Clone(buf[:r.Start+l.ForgedListDelta])
	writers.PutUint64LE(head, r.Start+l.ForgedArraySizeDelta, r.forgedArraySizeFor(n))
	writers.PutUint32LE(head, r.Start+l.ForgedCountDelta, uint32(n))
	writers.PutUint64LE(head, r.Start+l.ForgedStructSizeDelta, uint64(n*types.IdentifierLength))
	return head, nil
}

// The array size covers the count, the inner struct header and the identifiers.
func (r *Region) forgedArraySizeFor(n int) uint64 {
	return uint64(r.layout.ForgedListDelta - r.layout.ForgedCountDelta + n*types.IdentifierLength)
}

// UnforgedBlock encodes the "OwnedSchematics" array. It is empty for no
// identifiers: the game omits the property rather than writing a zero count.
func UnforgedBlock(ids []types.Identifier) []byte {
	if len(ids) == 0 {
		return nil
	}
	n := len(ids)
	b := &bytes.Buffer{}
	writers.FString(b, tables.PropertyOwned)
	writers.FString(b, tables.PropertyArray)
	writers.Uint64LE(b, uint64(4+unforgedFooterLen()+n*types.IdentifierLength))
	writers.FString(b, tables.PropertyStruct)
	b.WriteByte(0)

	writers.Uint32LE(b, uint32(n))

	writers.FString(b, tables.PropertyOwned)
	writers.FString(b, tables.PropertyStruct)
	writers.Uint64LE(b, uint64(n*types.IdentifierLength))
	writers.FString(b, tables.PropertyGuid)
	writers.Zeros(b, types.IdentifierLength)
	b.WriteByte(0)

	writers.Identifiers(b, ids)
	return b.Bytes()
}

// unforgedHeaderLen is the size of everything before the count.
func unforgedHeaderLen() int {
	return writers.FStringLen(tables.PropertyOwned) + writers.FStringLen(tables.PropertyArray) + 8 +
		writers.FStringLen(tables.PropertyStruct) + 1
}

// unforgedFooterLen is the size of everything between the count and the identifiers.
func unforgedFooterLen() int {
	return writers.FStringLen(tables.PropertyOwned) + writers.FStringLen(tables.PropertyStruct) + 8 +
		writers.FStringLen(tables.PropertyGuid) + types.IdentifierLength + 1
}
