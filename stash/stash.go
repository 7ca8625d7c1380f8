// Package stash keeps the save being edited between editor invocations.
//
// Each command runs as its own process, so "load" writes the buffer to a
// stash file, every "set" rewrites it, and "save" finally copies it over the
// real save. The stash also remembers the digest of the save as it was on
// disk at load time, so that a save the game rewrote in the meantime is
// never silently clobbered.
package stash

import (
	"bufio"
	"encoding/gob"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

var (
	// ErrNothingLoaded is returned by Read when there is no stash file.
	ErrNothingLoaded = errors.New("stash: nothing loaded")

	// ErrChanged means the save on disk is no longer the one that was loaded.
	ErrChanged = errors.New("stash: save changed on disk since it was loaded")
)

// Entry is one stashed save.
type Entry struct {
	Filename string        // full path of the save
	Source   digest.Digest // the save on disk when it was loaded
	Buffer   []byte        // current, possibly edited, contents
	Layout   string        // tables.Layout version the buffer was decoded with
	Edits    []string      // human-readable log of what was changed
}

// New builds an entry for a freshly loaded save.
func New(filename string, data []byte, layout string) *Entry {
	return &Entry{
		Filename: filename,
		Source:   digest.FromBytes(data),
		Buffer:   append([]byte(nil), data...),
		Layout:   layout,
	}
}

// Write stores e at path, replacing any previous stash.
func Write(path string, e *Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating stash")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing stash")
		}
	}()

	w := bufio.NewWriter(f)
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
	if err != nil {
		return errors.Wrap(err, "creating stash encoder")
	}
	if err := gob.NewEncoder(enc).Encode(e); err != nil {
		enc.Close()
		return errors.Wrap(err, "encoding stash")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "compressing stash")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "writing stash")
	}
	return f.Sync()
}

// Read loads the entry at path.
func Read(path string) (*Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNothingLoaded
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening stash")
	}
	defer f.Close()

	dec, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrap(err, "creating stash decoder")
	}
	defer dec.Close()

	e := &Entry{}
	if err := gob.NewDecoder(dec).Decode(e); err != nil {
		return nil, errors.Wrapf(err, "decoding stash %s", path)
	}
	if err := e.Source.Validate(); err != nil {
		return nil, errors.Wrapf(err, "stash %s", path)
	}
	return e, nil
}

// Remove deletes the stash. Removing a stash that isn't there is fine.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "removing stash")
	}
	return nil
}

// Check compares the save currently on disk with the one that was loaded.
func (e *Entry) Check() error {
	data, err := os.ReadFile(e.Filename)
	if err != nil {
		return errors.Wrap(err, "re-reading save")
	}
	if got := digest.FromBytes(data); got != e.Source {
		return errors.Wrapf(ErrChanged, "%s is now %s, was %s", e.Filename, got.Encoded()[:12], e.Source.Encoded()[:12])
	}
	return nil
}

// Modified reports whether the buffer differs from what was loaded.
func (e *Entry) Modified() bool {
	return digest.FromBytes(e.Buffer) != e.Source
}
