// Package catalog parses the schematic catalog: the mapping from identifier
// to class, weapon, display name and forging cost.
//
// The document has two top-level maps, keyed by identifier:
//
//	overclocks:
//	  0A1B...:
//	    class: Driller
//	    weapon: CRSPR Flamethrower
//	    name: Lighter Tanks
//	    cost: {credits: 7450, jadiz: 125}
//	cosmetics:
//	  ...
//
// JSON documents of the same shape are accepted too.
package catalog

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"drgedit/types"
)

type entry struct {
	Class  string     `json:"class" yaml:"class"`
	Weapon string     `json:"weapon" yaml:"weapon"`
	Name   string     `json:"name" yaml:"name"`
	Cost   types.Cost `json:"cost" yaml:"cost"`
}

type document struct {
	Overclocks map[string]entry `json:"overclocks" yaml:"overclocks"`
	Cosmetics  map[string]entry `json:"cosmetics" yaml:"cosmetics"`
}

// Parse decodes catalog text. Every failure is a *types.CatalogError.
func Parse(text []byte) (*types.Catalog, error) {
	var doc document
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return nil, &types.CatalogError{Err: errors.New("empty catalog")}
	}

	// JSON files in the wild are tab-indented, which YAML refuses.
	var err error
	if trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &doc)
	} else {
		err = yaml.Unmarshal(trimmed, &doc)
	}
	if err != nil {
		return nil, &types.CatalogError{Err: err}
	}

	cat := types.NewCatalog()
	if err := add(cat, types.Overclock, doc.Overclocks); err != nil {
		return nil, err
	}
	if err := add(cat, types.Cosmetic, doc.Cosmetics); err != nil {
		return nil, err
	}
	return cat, nil
}

func add(cat *types.Catalog, category types.Category, entries map[string]entry) error {
	for key, e := range entries {
		id, err := types.ParseIdentifier(key)
		if err != nil {
			return err
		}
		if len(cat.Lookup(id)) > 0 {
			return &types.CatalogError{Key: key, Err: errors.New("identifier listed more than once")}
		}
		if category == types.Cosmetic {
			e.Weapon = ""
		}
		cat.Add(&types.Schematic{
			ID:       id,
			Category: category,
			Class:    e.Class,
			Weapon:   e.Weapon,
			Name:     e.Name,
			Cost:     e.Cost,
		})
	}
	return nil
}

// Load reads and parses a catalog file.
func Load(path string) (*types.Catalog, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return Parse(text)
}
