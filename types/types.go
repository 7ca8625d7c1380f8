package types

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// IdentifierLength is the size of a raw identifier in the save buffer.
const IdentifierLength = 16

// Identifier is a 16-byte key. Resources and schematics are both looked up by one.
// The display form is uppercase hex of the raw bytes, in buffer order.
type Identifier [IdentifierLength]byte

func (id Identifier) String() string {
	return strings.ToUpper(hex.EncodeToString(id[:]))
}

// Compare orders identifiers by raw byte value.
func (id Identifier) Compare(other Identifier) int {
	return bytes.Compare(id[:], other[:])
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseIdentifier decodes 32 hex digits (either case) into an Identifier.
func ParseIdentifier(s string) (Identifier, error) {
	var id Identifier
	s = strings.TrimSpace(s)
	if len(s) != 2*IdentifierLength {
		return id, &CatalogError{Key: s, Err: errBadIdentifierLength}
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, &CatalogError{Key: s, Err: err}
	}
	return id, nil
}

// MustParseIdentifier is ParseIdentifier for compiled-in tables.
func MustParseIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

type Class int

const (
	Engineer Class = iota
	Scout
	Driller
	Gunner

	ClassCount
)

var classNames = []string{"engineer", "scout", "driller", "gunner"}

func (c Class) String() string {
	if c < 0 || c >= ClassCount {
		return "unknown"
	}
	return classNames[c]
}

// ClassStats holds the per-class scalars.
type ClassStats struct {
	XP         uint32
	Promotions uint32
}

type Minerals struct {
	Bismor  float32
	Enor    float32
	Jadiz   float32
	Croppa  float32
	Magnite float32
	Umanite float32
}

type Brewing struct {
	Yeast  float32
	Starch float32
	Barley float32
	Malt   float32
}

// Cores are the two matrix-core currencies stored in the resource table.
type Cores struct {
	Blank float32
	Error float32
}
