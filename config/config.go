// Package config reads drgedit.ini.
//
// Every key is optional:
//
//	dir = C:\Program Files (x86)\Steam\steamapps\common\Deep Rock Galactic\FSD\Saved\SaveGames
//	catalog = catalog.yaml
//	stash = drgedit.tmp
//	backup = true
//	strict_markers = false
//	log_level = info
//
//	[watch]
//	debounce = 5s
//	concurrency = 4
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// DefaultFile is looked for in the working directory.
const DefaultFile = "drgedit.ini"

type Config struct {
	Dir           string
	Catalog       string
	Stash         string
	Backup        bool
	StrictMarkers bool
	LogLevel      slog.Level

	Watch Watch
}

type Watch struct {
	Debounce    time.Duration // wait this long after the last write before reading a save
	Concurrency int           // saves decoded at once by a directory scan
}

// Default is what an empty or missing ini file gives. Dir is left empty and
// filled in by Resolve.
func Default() Config {
	return Config{
		Catalog:  "catalog.yaml",
		Stash:    "drgedit.tmp",
		Backup:   true,
		LogLevel: slog.LevelInfo,
		Watch: Watch{
			Debounce:    5 * time.Second,
			Concurrency: 4,
		},
	}
}

// Load reads an ini file. A missing file is not an error: it just means defaults.
func Load(path string) (Config, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading %s", path)
	}
	return fromFile(f)
}

// Parse reads ini text.
func Parse(data []byte) (Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (Config, error) {
	c := Default()
	// Default section can be represented as empty string
	s := f.Section("")
	c.Dir = s.Key("dir").String()
	c.Catalog = s.Key("catalog").MustString(c.Catalog)
	c.Stash = s.Key("stash").MustString(c.Stash)
	c.Backup = s.Key("backup").MustBool(c.Backup)
	c.StrictMarkers = s.Key("strict_markers").MustBool(c.StrictMarkers)

	if level := s.Key("log_level").String(); level != "" {
		if err := c.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return Config{}, errors.Wrap(err, "log_level")
		}
	}

	w := f.Section("watch")
	c.Watch.Debounce = w.Key("debounce").MustDuration(c.Watch.Debounce)
	c.Watch.Concurrency = w.Key("concurrency").MustInt(c.Watch.Concurrency)
	if c.Watch.Concurrency < 1 {
		return Config{}, errors.Errorf("watch.concurrency must be at least 1, got %d", c.Watch.Concurrency)
	}
	if c.Watch.Debounce < 0 {
		return Config{}, errors.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return c, nil
}

// SplitDir pulls a leading "--dir X" off the command line.
func SplitDir(args []string) (dir string, rest []string) {
	if len(args) > 1 && args[0] == "--dir" {
		return args[1], args[2:]
	}
	return "", args
}

// Resolve loads path and settles the save directory: dir from the command
// line, then dir from the ini file, then the working directory. args is the
// command line without the program name; the rest of it is returned.
func Resolve(path string, args []string) (Config, []string, error) {
	c, err := Load(path)
	if err != nil {
		return Config{}, nil, err
	}
	flagDir, rest := SplitDir(args)
	switch {
	case flagDir != "":
		c.Dir = flagDir
	case strings.TrimSpace(c.Dir) != "":
	default:
		if c.Dir, err = os.Getwd(); err != nil {
			return Config{}, nil, errors.Wrap(err, "working directory")
		}
	}
	return c, rest, nil
}

// Logger builds a text logger at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
