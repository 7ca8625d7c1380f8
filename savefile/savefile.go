// Package savefile decodes a save buffer into typed fields and schematic
// states, and encodes it back.
//
// A SaveFile owns its buffer. Load copies the caller's bytes, and Save builds
// a new buffer from scratch, replacing the old one only when every step
// succeeded. A failed Save leaves the SaveFile exactly as it was.
package savefile

import (
	"log/slog"
	"slices"

	"github.com/pkg/errors"

	"drgedit/catalog"
	"drgedit/readers"
	"drgedit/resources"
	"drgedit/schematics"
	"drgedit/tables"
	"drgedit/types"
	"drgedit/writers"
)

// SaveFile is the decoded snapshot. Exported fields may be changed freely;
// nothing reaches the buffer until Save.
type SaveFile struct {
	Classes    [types.ClassCount]types.ClassStats
	Credits    uint32
	PerkPoints uint32
	Minerals   types.Minerals
	Brewing    types.Brewing
	Cores      types.Cores
	Catalog    *types.Catalog

	buf           []byte
	xpPos         [types.ClassCount]int // cached: nothing before or inside the class blocks changes length
	hasPerkPoints bool
	region        *schematics.Region

	layout tables.Layout
	strict bool
	logger *slog.Logger
}

// Option configures a SaveFile.
type Option func(*SaveFile)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(sf *SaveFile) { sf.logger = logger }
}

// WithLayout selects the set of offsets for a save format version.
func WithLayout(layout tables.Layout) Option {
	return func(sf *SaveFile) { sf.layout = layout }
}

// WithStrictMarkers makes any marker that occurs more than once a
// FormatError, instead of silently using the first occurrence.
func WithStrictMarkers(strict bool) Option {
	return func(sf *SaveFile) { sf.strict = strict }
}

func (sf *SaveFile) log() *slog.Logger {
	if sf.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return sf.logger
}

// Load parses the catalog text and decodes buf against it.
// Catalog problems are *types.CatalogError, buffer problems *types.FormatError.
func Load(buf, catalogText []byte, opts ...Option) (*SaveFile, error) {
	cat, err := catalog.Parse(catalogText)
	if err != nil {
		return nil, err
	}
	return New(buf, cat, opts...)
}

// New decodes buf against an already parsed catalog. The catalog's states are
// overwritten with what buf says, and the SaveFile keeps using it.
func New(buf []byte, cat *types.Catalog, opts ...Option) (*SaveFile, error) {
	sf := &SaveFile{
		Catalog: cat,
		buf:     slices.Clone(buf),
		layout:  tables.LayoutV1,
	}
	for _, opt := range opts {
		opt(sf)
	}
	if sf.Catalog == nil {
		sf.Catalog = types.NewCatalog()
	}
	if err := sf.decode(); err != nil {
		return nil, err
	}
	return sf, nil
}

func (sf *SaveFile) decode() error {
	buf := sf.buf
	l := sf.layout

	xpPos, err := locateClasses(buf, l, sf.strict)
	if err != nil {
		return err
	}
	sf.xpPos = xpPos
	for c := types.Class(0); c < types.ClassCount; c++ {
		stats := &sf.Classes[c]
		if stats.XP, err = readers.Uint32LE(buf, xpPos[c], c.String()+" xp"); err != nil {
			return err
		}
		if stats.Promotions, err = readers.Uint32LE(buf, xpPos[c]+l.PromotionsDelta, c.String()+" promotions"); err != nil {
			return err
		}
		sf.log().Debug("class located", "class", c, "xp_offset", xpPos[c], "xp", stats.XP, "promotions", stats.Promotions)
	}

	creditsPos, err := readers.Locate(buf, tables.MarkerCredits, l.CreditsDelta, "Credits", sf.strict)
	if err != nil {
		return err
	}
	if sf.Credits, err = readers.Uint32LE(buf, creditsPos, "credits"); err != nil {
		return err
	}

	// Fresh saves have no perk points property at all.
	perkPos, found, err := sf.locatePerkPoints(buf)
	if err != nil {
		return err
	}
	sf.hasPerkPoints = found
	if found {
		if sf.PerkPoints, err = readers.Uint32LE(buf, perkPos, "perk points"); err != nil {
			return err
		}
	}

	resourcesPos, err := resources.Region(buf, sf.strict)
	if err != nil {
		return err
	}
	all := tables.AllResources()
	values, err := resources.ReadAll(buf, resourcesPos, all)
	if err != nil {
		return err
	}
	sf.setResourceValues(values)

	region, err := schematics.Locate(buf, l, sf.strict)
	if err != nil {
		return err
	}
	region.Classify(sf.Catalog)
	sf.region = region
	sf.log().Debug("schematics located",
		"start", region.Start, "end", region.End,
		"forged", len(region.Forged), "unforged", len(region.Unforged),
		"unknown_forged", len(region.UnknownForged), "unknown_unforged", len(region.UnknownUnforged))
	return nil
}

func locateClasses(buf []byte, l tables.Layout, strict bool) ([types.ClassCount]int, error) {
	var pos [types.ClassCount]int
	for c := types.Class(0); c < types.ClassCount; c++ {
		p, err := readers.Locate(buf, tables.ClassMarkers[c], l.XPDelta, c.String()+" marker", strict)
		if err != nil {
			return pos, err
		}
		pos[c] = p
	}
	return pos, nil
}

func (sf *SaveFile) locatePerkPoints(buf []byte) (int, bool, error) {
	if _, ok := readers.Find(buf, tables.MarkerPerkPoints); !ok {
		return 0, false, nil
	}
	pos, err := readers.Locate(buf, tables.MarkerPerkPoints, sf.layout.PerkPointsDelta, "PerkPoints", sf.strict)
	if err != nil {
		return 0, false, err
	}
	return pos, true, nil
}

// Save encodes the current state and returns the new buffer. The returned
// slice is the caller's; persisting it is up to them.
func (sf *SaveFile) Save() ([]byte, error) {
	out := slices.Clone(sf.buf)
	l := sf.layout

	for c := types.Class(0); c < types.ClassCount; c++ {
		if err := putUint32(out, sf.xpPos[c], c.String()+" xp", sf.Classes[c].XP); err != nil {
			return nil, err
		}
		if err := putUint32(out, sf.xpPos[c]+l.PromotionsDelta, c.String()+" promotions", sf.Classes[c].Promotions); err != nil {
			return nil, err
		}
	}

	// Everything else is located again in case the buffer moved underneath.
	creditsPos, err := readers.Locate(out, tables.MarkerCredits, l.CreditsDelta, "Credits", sf.strict)
	if err != nil {
		return nil, err
	}
	if err := putUint32(out, creditsPos, "credits", sf.Credits); err != nil {
		return nil, err
	}

	perkPos, found, err := sf.locatePerkPoints(out)
	if err != nil {
		return nil, err
	}
	switch {
	case found:
		if err := putUint32(out, perkPos, "perk points", sf.PerkPoints); err != nil {
			return nil, err
		}
	case sf.PerkPoints != 0:
		return nil, errors.Wrap(types.MissingMarker("PerkPoints"), "save has no perk points property to write to")
	}

	resourcesPos, err := resources.Region(out, sf.strict)
	if err != nil {
		return nil, err
	}
	all := tables.AllResources()
	names := make([]string, len(all))
	for i, res := range all {
		names[i] = res.Name
	}
	if err := resources.WriteAll(out, resourcesPos, all, sf.resourceValues(names)); err != nil {
		return nil, err
	}

	region, err := schematics.Locate(out, l, sf.strict)
	if err != nil {
		return nil, err
	}
	forged, unforged := region.Plan(sf.Catalog)
	if slack := region.Slack(); slack != 0 {
		sf.log().Warn("dropping bytes between schematic lists and next property", "bytes", slack, "offset", region.UnforgedEnd())
	}
	rebuilt, err := schematics.Rebuild(out, region, forged, unforged)
	if err != nil {
		return nil, err
	}

	// Re-derive everything cached before committing, so a SaveFile never
	// holds offsets that belong to some other buffer.
	xpPos, err := locateClasses(rebuilt, l, sf.strict)
	if err != nil {
		return nil, errors.Wrap(err, "re-locating classes after rebuild")
	}
	newRegion, err := schematics.Locate(rebuilt, l, sf.strict)
	if err != nil {
		return nil, errors.Wrap(err, "re-locating schematics after rebuild")
	}
	newRegion.Plan(sf.Catalog)

	sf.log().Debug("save encoded",
		"old_length", len(sf.buf), "new_length", len(rebuilt),
		"forged", len(forged), "unforged", len(unforged))

	sf.buf = rebuilt
	sf.xpPos = xpPos
	sf.region = newRegion
	sf.hasPerkPoints = sf.hasPerkPoints || found
	return slices.Clone(rebuilt), nil
}

func putUint32(buf []byte, offset int, what string, v uint32) error {
	if offset < 0 || offset > len(buf)-4 {
		return types.Truncated(what, offset, len(buf))
	}
	writers.PutUint32LE(buf, offset, v)
	return nil
}

// Bytes returns a copy of the current buffer: the input to Load, or the
// output of the last successful Save.
func (sf *SaveFile) Bytes() []byte {
	return slices.Clone(sf.buf)
}

// Layout reports the format version in use.
func (sf *SaveFile) Layout() tables.Layout {
	return sf.layout
}

// HasPerkPoints reports whether the buffer has a perk points property.
func (sf *SaveFile) HasPerkPoints() bool {
	return sf.hasPerkPoints
}
