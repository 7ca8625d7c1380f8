package readers

// Everything in here works on a whole in-memory save buffer and an absolute
// offset. Nothing is ever written; see writers for that.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"drgedit/types"
)

// Find returns the lowest index at which pattern occurs in buf.
// Later occurrences are ignored, so a format change that duplicates a marker
// silently picks the first one. Use FindUnique where that matters.
func Find(buf, pattern []byte) (int, bool) {
	if len(pattern) == 0 {
		return 0, false
	}
	i := bytes.Index(buf, pattern)
	return i, i >= 0
}

// FindIn searches only buf[from:to] and returns an absolute index.
func FindIn(buf []byte, from, to int, pattern []byte) (int, bool) {
	if from < 0 || to > len(buf) || from > to {
		return 0, false
	}
	i, ok := Find(buf[from:to], pattern)
	if !ok {
		return 0, false
	}
	return from + i, true
}

// Count returns the number of (possibly overlapping) occurrences of pattern.
func Count(buf, pattern []byte) int {
	n := 0
	for start := 0; ; {
		i, ok := Find(buf[start:], pattern)
		if !ok {
			return n
		}
		n++
		start += i + 1
	}
}

// FindUnique is Find, except that zero or several matches are a FormatError.
func FindUnique(buf, pattern []byte, what string) (int, error) {
	i, ok := Find(buf, pattern)
	if !ok {
		return 0, types.MissingMarker(what)
	}
	if _, again := Find(buf[i+1:], pattern); again {
		return 0, &types.FormatError{What: what, Offset: i, Err: fmt.Errorf("marker occurs %d times", Count(buf, pattern))}
	}
	return i, nil
}

// Locate finds a marker and applies a constant delta to it.
// strict switches from Find to FindUnique.
func Locate(buf, marker []byte, delta int, what string, strict bool) (int, error) {
	if strict {
		i, err := FindUnique(buf, marker, what)
		if err != nil {
			return 0, err
		}
		return i + delta, nil
	}
	i, ok := Find(buf, marker)
	if !ok {
		return 0, types.MissingMarker(what)
	}
	return i + delta, nil
}

func checkBounds(buf []byte, offset, width int, what string) error {
	if offset < 0 || offset > len(buf)-width {
		return types.Truncated(what, offset, len(buf))
	}
	return nil
}

func Uint32LE(buf []byte, offset int, what string) (uint32, error) {
	if err := checkBounds(buf, offset, 4, what); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

func Uint64LE(buf []byte, offset int, what string) (uint64, error) {
	if err := checkBounds(buf, offset, 8, what); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[offset:]), nil
}

// Float32LE reads an IEEE-754 single. The bit pattern is kept as-is, so -0 and NaN payloads survive.
func Float32LE(buf []byte, offset int, what string) (float32, error) {
	bits, err := Uint32LE(buf, offset, what)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// Identifiers reads n contiguous 16-byte identifiers starting at offset.
func Identifiers(buf []byte, offset int, n uint32, what string) ([]types.Identifier, error) {
	length := int(n) * types.IdentifierLength
	if n > uint32(len(buf)/types.IdentifierLength) || checkBounds(buf, offset, length, what) != nil {
		return nil, errors.WithStack(types.Truncated(what, offset, len(buf)))
	}
	out := make([]types.Identifier, n)
	for i := range out {
		copy(out[i][:], buf[offset+i*types.IdentifierLength:])
	}
	return out, nil
}
