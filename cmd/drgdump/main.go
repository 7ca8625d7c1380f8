package main

// Deep Rock Galactic save file dumper
// usage: drgdump 76561198000000000_Player.sav
//
// save file location and catalog are read from the ini file

import (
	"fmt"
	"os"
	"path/filepath"

	"drgedit/config"
	"drgedit/savefile"
	"drgedit/types"
)

// describe lists every decoded field with the offset it was found at,
// then the schematic lists.
func describe(sf *savefile.SaveFile) ([]string, error) {
	out := []string{fmt.Sprintf("File size: %d (x%x)", len(sf.Bytes()), len(sf.Bytes()))}
	if !sf.HasPerkPoints() {
		out = append(out, "(no PerkPoints property)")
	}

	located, err := sf.Located()
	if err != nil {
		return nil, err
	}
	out = append(out, "")
	for _, f := range located {
		out = append(out, fmt.Sprintf("   x%06x: %s (%s): %s", f.Offset, f.Name, f.Kind, f.Value))
	}

	for _, st := range []types.AcquisitionState{types.Forged, types.Unforged} {
		out = append(out, "", fmt.Sprintf("%s:", st))
		for _, s := range sf.Schematics() {
			if s.State == st {
				out = append(out, fmt.Sprintf("   %s %s", s.ID, s.DisplayName()))
			}
		}
	}

	uf, uu := sf.Unknown()
	if len(uf)+len(uu) > 0 {
		out = append(out, "", "Not in catalog:")
		for _, id := range uf {
			out = append(out, fmt.Sprintf("   %s (forged)", id))
		}
		for _, id := range uu {
			out = append(out, fmt.Sprintf("   %s (unforged)", id))
		}
	}

	cost := sf.Catalog.CostOf(types.Unforged)
	out = append(out, "", "Cost to forge everything unforged: "+cost.String())
	return out, nil
}

func main() {
	cfg, args, err := config.Resolve(config.DefaultFile, os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if len(args) < 1 {
		fmt.Println("usage: drgdump [--dir dir] savefile")
		os.Exit(1)
	}

	filename := args[0]
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(cfg.Dir, filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Println("Failed to load file", filename, "-", err)
		os.Exit(1)
	}
	catalogText, err := os.ReadFile(cfg.Catalog)
	if err != nil {
		fmt.Println("Failed to load catalog", cfg.Catalog, "-", err)
		os.Exit(1)
	}

	sf, err := savefile.Load(data, catalogText,
		savefile.WithLogger(cfg.Logger(os.Stderr)),
		savefile.WithStrictMarkers(cfg.StrictMarkers))
	if err != nil {
		fmt.Println("Failed to decode", filename, "-", err)
		os.Exit(1)
	}

	lines, err := describe(sf)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println()
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println()
}
