package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"drgedit/savefile"
	"drgedit/types"
)

// Summary is what gets reported about one save.
type Summary struct {
	Path   string
	Digest digest.Digest

	Classes    [types.ClassCount]types.ClassStats
	Credits    uint32
	PerkPoints uint32
	Forged     int
	Unforged   int
	ToForge    types.Cost // total cost of everything unforged
	Unknown    int        // identifiers not in the catalog

	Err error // set instead of the fields above when the save could not be decoded
}

// IsSave reports whether a file name looks like a save.
func IsSave(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".sav")
}

// Summarize decodes one save. catalogText is parsed afresh every time, since
// decoding writes states into the catalog.
func Summarize(path string, catalogText []byte, opts ...savefile.Option) *Summary {
	s := &Summary{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		s.Err = errors.Wrap(err, "reading save")
		return s
	}
	s.Digest = digest.FromBytes(data)

	sf, err := savefile.Load(data, catalogText, opts...)
	if err != nil {
		s.Err = err
		return s
	}
	s.Classes = sf.Classes
	s.Credits = sf.Credits
	s.PerkPoints = sf.PerkPoints
	counts := sf.Counts()
	s.Forged = counts[types.Forged]
	s.Unforged = counts[types.Unforged]
	s.ToForge = sf.Catalog.CostOf(types.Unforged)
	uf, uu := sf.Unknown()
	s.Unknown = len(uf) + len(uu)
	return s
}

// ScanDir summarizes every save in dir, at most limit at a time. Saves that
// fail to decode are reported through Summary.Err; only a failure to list
// the directory or a cancelled context fails the scan. Results are sorted by path.
func ScanDir(ctx context.Context, dir string, catalogText []byte, limit int, opts ...savefile.Option) ([]*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsSave(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	if limit < 1 {
		limit = 1
	}
	out := make([]*Summary, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Summarize(path, catalogText, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
