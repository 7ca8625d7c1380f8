package types

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match these with errors.Is.
var (
	// ErrFormat is returned when a required marker or field is missing, or
	// a computed offset runs past the end of the buffer.
	ErrFormat = errors.New("drgedit: unrecognized save format")

	// ErrCatalog is returned when the catalog text cannot be parsed or holds
	// a malformed identifier.
	ErrCatalog = errors.New("drgedit: invalid catalog")
)

var errBadIdentifierLength = errors.New("identifier must be 32 hex digits")

// FormatError describes where decoding an unrecognized or truncated buffer failed.
type FormatError struct {
	What   string // marker or field name
	Offset int    // -1 when the marker itself was not found
	Err    error
}

func (e *FormatError) Error() string {
	msg := "drgedit: format: " + e.What
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// MissingMarker builds the FormatError for a marker that was not found.
func MissingMarker(what string) error {
	return &FormatError{What: what, Offset: -1, Err: errors.New("marker not found")}
}

// Truncated builds the FormatError for a read past the end of the buffer.
func Truncated(what string, offset, length int) error {
	return &FormatError{What: what, Offset: offset, Err: fmt.Errorf("buffer too short (%d bytes)", length)}
}

// CatalogError describes a catalog entry that could not be parsed.
type CatalogError struct {
	Key string
	Err error
}

func (e *CatalogError) Error() string {
	if e.Key == "" {
		return "drgedit: catalog: " + e.Err.Error()
	}
	return fmt.Sprintf("drgedit: catalog: %q: %v", e.Key, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

func (e *CatalogError) Is(target error) bool { return target == ErrCatalog }
