package main

// savefile reader/editor for Deep Rock Galactic
//
// example usage:
//
// drgedit load 76561198000000000_Player.sav
// drgedit get credits
// drgedit set credits 10000000
// drgedit set magnite 5000
// drgedit set driller_promotions 3
// drgedit list unforged
// drgedit state "lighter tanks" forged
// drgedit state 0A1B2C3D4E5F60718293A4B5C6D7E8F9 unacquired
// drgedit save

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"drgedit/config"
	"drgedit/savefile"
	"drgedit/stash"
	"drgedit/tables"
	"drgedit/types"
)

type editor struct {
	cfg    config.Config
	out    io.Writer
	logger *slog.Logger
}

func main() {
	cfg, args, err := config.Resolve(config.DefaultFile, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ed := &editor{cfg: cfg, out: os.Stdout, logger: cfg.Logger(os.Stderr)}
	if err := ed.run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (ed *editor) run(args []string) error {
	cmd := "help"
	if len(args) == 0 {
		fmt.Fprintln(ed.out, `No args detected - falling back to "help", since you clearly need it...`)
	} else {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "help":
		ed.help()
		return nil
	case "load":
		return ed.load(args)
	case "get":
		return ed.get(args)
	case "set":
		return ed.set(args)
	case "state":
		return ed.state(args)
	case "list":
		return ed.list(args)
	case "dump":
		return ed.dump()
	case "save":
		return ed.save()
	}
	return fmt.Errorf("%s is not a command; try \"help\"", cmd)
}

func (ed *editor) help() {
	text := []string{
		"Deep Rock Galactic Save File Editor",
		"",
		"Commands:",
		"help: display this text",
		"load (filename): load a file from the save directory",
		"get (what): display the current value of a field",
		"set (what) (to): set a field",
		"list [state]: list schematics, optionally only those in one state",
		"state (schematic) (forged|unforged|unacquired): move a schematic",
		"dump: list all available info",
		"save: write the edited save back, keeping the original as .old",
		"",
		"Fields that can be set-ted or get-ted are:",
	}
	for _, name := range savefile.Fields() {
		text = append(text, "   "+name)
	}
	text = append(text,
		"",
		"Notes:",
		"   It is usually not necessary to type the full name of something",
		"e.g. \"light\" will be recognized as \"Lighter Tanks\".",
		"   Schematics can also be named by their 32-digit identifier.",
	)
	for _, line := range text {
		fmt.Fprintln(ed.out, line)
	}
}

func (ed *editor) catalogText() ([]byte, error) {
	text, err := os.ReadFile(ed.cfg.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog (see \"catalog\" in "+config.DefaultFile+")")
	}
	return text, nil
}

func (ed *editor) decode(buf []byte, layout tables.Layout) (*savefile.SaveFile, error) {
	text, err := ed.catalogText()
	if err != nil {
		return nil, err
	}
	return savefile.Load(buf, text,
		savefile.WithLayout(layout),
		savefile.WithStrictMarkers(ed.cfg.StrictMarkers),
		savefile.WithLogger(ed.logger))
}

// open retrieves the stashed save and decodes it.
func (ed *editor) open() (*stash.Entry, *savefile.SaveFile, error) {
	e, err := stash.Read(ed.cfg.Stash)
	if err != nil {
		return nil, nil, err
	}
	layout, ok := tables.Layouts[e.Layout]
	if !ok {
		return nil, nil, errors.Errorf("stash was written with unknown layout %q", e.Layout)
	}
	sf, err := ed.decode(e.Buffer, layout)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding stashed save")
	}
	return e, sf, nil
}

// commit re-encodes sf and stashes the result.
func (ed *editor) commit(e *stash.Entry, sf *savefile.SaveFile, edit string) error {
	buf, err := sf.Save()
	if err != nil {
		return err
	}
	e.Buffer = buf
	e.Edits = append(e.Edits, edit)
	return stash.Write(ed.cfg.Stash, e)
}

func (ed *editor) load(args []string) error {
	if len(args) < 1 {
		return errors.New("Load what?  Filename expected.")
	}
	filename := args[0]
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(ed.cfg.Dir, filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	layout := tables.LayoutV1
	sf, err := ed.decode(data, layout)
	if err != nil {
		return errors.Wrapf(err, "loading %s", filename)
	}
	counts := sf.Counts()
	uf, uu := sf.Unknown()
	fmt.Fprintf(ed.out, "Loaded %s: %d forged, %d unforged, %d unacquired, %d not in catalog\n",
		filename, counts[types.Forged], counts[types.Unforged], counts[types.Unacquired], len(uf)+len(uu))

	return stash.Write(ed.cfg.Stash, stash.New(filename, data, layout.Version))
}

func fieldNames() map[string]string {
	names := map[string]string{}
	for _, name := range savefile.Fields() {
		names[name] = name
	}
	return names
}

func (ed *editor) get(args []string) error {
	if len(args) < 1 {
		return errors.New("Get what?  Gettables are:\n" + strings.Join(savefile.Fields(), "\n"))
	}
	name, _, err := fuzzyLookup(fieldNames(), args[0], "field")
	if err != nil {
		return err
	}
	_, sf, err := ed.open()
	if err != nil {
		return err
	}
	v, err := sf.Get(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(ed.out, name+":", v)
	return nil
}

func (ed *editor) set(args []string) error {
	if len(args) < 1 {
		return errors.New("Set what?  Settables are:\n" + strings.Join(savefile.Fields(), "\n"))
	}
	name, _, err := fuzzyLookup(fieldNames(), args[0], "field")
	if err != nil {
		return err
	}
	if len(args) < 2 {
		kind, _ := savefile.FieldKind(name)
		return fmt.Errorf("Set %s to what?  Expected a %s.", name, kind)
	}

	e, sf, err := ed.open()
	if err != nil {
		return err
	}
	old, err := sf.Get(name)
	if err != nil {
		return err
	}
	v, err := sf.Set(name, args[1])
	if err != nil {
		return err
	}
	edit := fmt.Sprintf("%s: %s -> %s", name, old, v)
	if err := ed.commit(e, sf, edit); err != nil {
		return err
	}
	fmt.Fprintln(ed.out, name, "set to", v)
	return nil
}

// findSchematic takes either an identifier or (part of) a display name.
func findSchematic(cat *types.Catalog, what string) (*types.Schematic, error) {
	if id, err := types.ParseIdentifier(what); err == nil {
		if found := cat.Lookup(id); len(found) > 0 {
			return found[0], nil
		}
		return nil, fmt.Errorf("%s is not in the catalog", id)
	}
	names := map[types.Identifier]string{}
	for _, s := range cat.All() {
		names[s.ID] = s.DisplayName()
	}
	id, _, err := fuzzyLookup(names, what, "schematic")
	if err != nil {
		return nil, err
	}
	return cat.Lookup(id)[0], nil
}

var stateNames = map[types.AcquisitionState]string{
	types.Unacquired: "unacquired",
	types.Unforged:   "unforged",
	types.Forged:     "forged",
}

func (ed *editor) state(args []string) error {
	if len(args) < 2 {
		return errors.New("Expected: state (schematic) (forged|unforged|unacquired)")
	}
	to, _, err := fuzzyLookup(stateNames, args[1], "state")
	if err != nil {
		return err
	}
	e, sf, err := ed.open()
	if err != nil {
		return err
	}
	s, err := findSchematic(sf.Catalog, args[0])
	if err != nil {
		return err
	}
	if s.State == to {
		fmt.Fprintln(ed.out, s.DisplayName(), "is already", to, "so... done, I guess?")
		return nil
	}
	from := s.State
	if err := sf.SetState(s.ID, to); err != nil {
		return err
	}
	edit := fmt.Sprintf("%s (%s): %s -> %s", s.DisplayName(), s.ID, from, to)
	if err := ed.commit(e, sf, edit); err != nil {
		return err
	}
	fmt.Fprintln(ed.out, s.DisplayName(), "is now", to)
	return nil
}

func (ed *editor) list(args []string) error {
	var only *types.AcquisitionState
	if len(args) > 0 {
		st, _, err := fuzzyLookup(stateNames, args[0], "state")
		if err != nil {
			return err
		}
		only = &st
	}
	_, sf, err := ed.open()
	if err != nil {
		return err
	}
	for _, s := range sf.Schematics() {
		if only != nil && s.State != *only {
			continue
		}
		fmt.Fprintf(ed.out, "%-10s %s %s\n", s.State, s.ID, s.DisplayName())
	}
	uf, uu := sf.Unknown()
	for _, id := range uf {
		fmt.Fprintf(ed.out, "%-10s %s (not in catalog)\n", types.Forged, id)
	}
	for _, id := range uu {
		fmt.Fprintf(ed.out, "%-10s %s (not in catalog)\n", types.Unforged, id)
	}
	fmt.Fprintln(ed.out)
	fmt.Fprintln(ed.out, "Forging everything unforged costs:", sf.Catalog.CostOf(types.Unforged))
	return nil
}

func (ed *editor) dump() error {
	e, sf, err := ed.open()
	if err != nil {
		return err
	}
	fmt.Fprintln(ed.out, "File:", e.Filename)
	for _, name := range savefile.Fields() {
		v, err := sf.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(ed.out, "%s: %s\n", name, v)
	}
	if !sf.HasPerkPoints() {
		fmt.Fprintln(ed.out, "(this save has no perk points property)")
	}
	counts := sf.Counts()
	for _, st := range []types.AcquisitionState{types.Forged, types.Unforged, types.Unacquired} {
		fmt.Fprintf(ed.out, "%s schematics: %d\n", st, counts[st])
	}
	if len(e.Edits) > 0 {
		fmt.Fprintln(ed.out)
		fmt.Fprintln(ed.out, "Unsaved edits:")
		for _, edit := range e.Edits {
			fmt.Fprintln(ed.out, "   "+edit)
		}
	}
	return nil
}

func (ed *editor) save() error {
	e, err := stash.Read(ed.cfg.Stash)
	if err != nil {
		return err
	}
	if err := e.Check(); err != nil {
		return errors.Wrap(err, "refusing to overwrite; load it again")
	}
	// The stash should never hold something that doesn't decode, but this is
	// the last chance to find out before the real save is touched.
	layout, ok := tables.Layouts[e.Layout]
	if !ok {
		return errors.Errorf("stash was written with unknown layout %q", e.Layout)
	}
	if _, err := ed.decode(e.Buffer, layout); err != nil {
		return errors.Wrap(err, "stashed save no longer decodes")
	}

	// Back up the old file
	// Since this is a "powerful" (i.e. capable of completely trashing savefiles) tool,
	// that's probably a good idea
	if ed.cfg.Backup {
		backup := strings.TrimSuffix(e.Filename, filepath.Ext(e.Filename)) + ".old"
		if err := os.Rename(e.Filename, backup); err != nil {
			return err
		}
		fmt.Fprintln(ed.out, e.Filename, "renamed to", backup)
	}

	if err := writeFile(e.Filename, e.Buffer); err != nil {
		return err
	}
	fmt.Fprintln(ed.out, "New file written to", e.Filename)
	ed.logger.Info("save written", "path", e.Filename, "bytes", len(e.Buffer), "edits", len(e.Edits))

	if err := stash.Remove(ed.cfg.Stash); err != nil {
		return err
	}
	fmt.Fprintln(ed.out, "Temporary data cleaned up")
	return nil
}

func writeFile(filename string, data []byte) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}
