package writers

// Functions for writing to a save buffer.
// The Put functions patch an existing buffer in place and never change its
// length. The others append to an io.Writer and are used when a region is
// rebuilt from scratch.

import (
	"encoding/binary"
	"io"
	"math"

	"drgedit/types"
)

// PutUint32LE overwrites 4 bytes at offset. The caller has already located
// and bounded offset; an out-of-range write is a bug and panics.
func PutUint32LE(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func PutUint64LE(buf []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], v)
}

func PutFloat32LE(buf []byte, offset int, v float32) {
	PutUint32LE(buf, offset, math.Float32bits(v))
}

func Uint32LE(out io.Writer, v uint32) (int, error) {
	return out.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func Uint64LE(out io.Writer, v uint64) (int, error) {
	return out.Write(binary.LittleEndian.AppendUint64(nil, v))
}

// FString writes an engine string: int32 length including the terminating
// NUL, the bytes, then the NUL.
func FString(out io.Writer, s string) (int, error) {
	n, err := Uint32LE(out, uint32(len(s)+1))
	if err != nil {
		return n, err
	}
	m, err := out.Write(append([]byte(s), 0))
	return n + m, err
}

// FStringLen is the encoded size of FString(s).
func FStringLen(s string) int {
	return 4 + len(s) + 1
}

func Zeros(out io.Writer, n int) (int, error) {
	return out.Write(make([]byte, n))
}

func Identifiers(out io.Writer, ids []types.Identifier) (int, error) {
	total := 0
	for _, id := range ids {
		n, err := out.Write(id[:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
