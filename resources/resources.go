// Package resources reads and writes the values in the resource table.
//
// The table starts at the "OwnedResources" property. Each resource is stored
// as its 16-byte identifier followed by a float32 amount. Identifiers are
// searched for only from the start of the table onwards, since the same 16
// bytes can turn up by accident elsewhere in the save.
package resources

import (
	"drgedit/readers"
	"drgedit/tables"
	"drgedit/types"
	"drgedit/writers"
)

// Region returns the position of the resource table marker.
func Region(buf []byte, strict bool) (int, error) {
	return readers.Locate(buf, tables.MarkerResources, 0, "OwnedResources", strict)
}

// Offset returns the absolute offset of a resource's amount.
func Offset(buf []byte, region int, res tables.Resource) (int, error) {
	if region < 0 || region > len(buf) {
		return 0, types.Truncated("OwnedResources", region, len(buf))
	}
	i, ok := readers.FindIn(buf, region, len(buf), res.ID[:])
	if !ok {
		return 0, types.MissingMarker("resource " + res.Name)
	}
	return i + types.IdentifierLength, nil
}

func Read(buf []byte, region int, res tables.Resource) (float32, error) {
	off, err := Offset(buf, region, res)
	if err != nil {
		return 0, err
	}
	return readers.Float32LE(buf, off, "resource "+res.Name)
}

// Write patches a resource amount in place. A resource whose amount would run
// off the end of the buffer is reported rather than written.
func Write(buf []byte, region int, res tables.Resource, v float32) error {
	off, err := Offset(buf, region, res)
	if err != nil {
		return err
	}
	if off > len(buf)-4 {
		return types.Truncated("resource "+res.Name, off, len(buf))
	}
	writers.PutFloat32LE(buf, off, v)
	return nil
}

// ReadAll reads every resource in list, keyed by name.
func ReadAll(buf []byte, region int, list []tables.Resource) (map[string]float32, error) {
	out := make(map[string]float32, len(list))
	for _, res := range list {
		v, err := Read(buf, region, res)
		if err != nil {
			return nil, err
		}
		out[res.Name] = v
	}
	return out, nil
}

// WriteAll writes every resource in list from values. Names missing from
// values are left alone.
func WriteAll(buf []byte, region int, list []tables.Resource, values map[string]float32) error {
	for _, res := range list {
		v, ok := values[res.Name]
		if !ok {
			continue
		}
		if err := Write(buf, region, res, v); err != nil {
			return err
		}
	}
	return nil
}
