package types

import (
	"fmt"
	"slices"
	"strings"
)

// AcquisitionState is derived on load from which schematic list an
// identifier appears in. It is never stored as a field of its own.
type AcquisitionState int

const (
	Unacquired AcquisitionState = iota
	Unforged
	Forged
)

var stateNames = []string{"unacquired", "unforged", "forged"}

func (s AcquisitionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("AcquisitionState(%d)", int(s))
	}
	return stateNames[s]
}

func (s AcquisitionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AcquisitionState) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseState(s string) (AcquisitionState, error) {
	i := slices.Index(stateNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return Unacquired, fmt.Errorf("unknown acquisition state %q", s)
	}
	return AcquisitionState(i), nil
}

// Category separates the two disjoint schematic kinds. They share a state machine.
type Category int

const (
	Overclock Category = iota
	Cosmetic
)

func (c Category) String() string {
	if c == Cosmetic {
		return "cosmetic"
	}
	return "overclock"
}

// Cost is what a schematic takes to forge. Display only.
type Cost struct {
	Credits uint32 `json:"credits" yaml:"credits"`
	Bismor  uint32 `json:"bismor" yaml:"bismor"`
	Croppa  uint32 `json:"croppa" yaml:"croppa"`
	Enor    uint32 `json:"enor" yaml:"enor"`
	Jadiz   uint32 `json:"jadiz" yaml:"jadiz"`
	Magnite uint32 `json:"magnite" yaml:"magnite"`
	Umanite uint32 `json:"umanite" yaml:"umanite"`
}

func (c Cost) Add(other Cost) Cost {
	return Cost{
		Credits: c.Credits + other.Credits,
		Bismor:  c.Bismor + other.Bismor,
		Croppa:  c.Croppa + other.Croppa,
		Enor:    c.Enor + other.Enor,
		Jadiz:   c.Jadiz + other.Jadiz,
		Magnite: c.Magnite + other.Magnite,
		Umanite: c.Umanite + other.Umanite,
	}
}

func (c Cost) String() string {
	return fmt.Sprintf("%d credits, %d bismor, %d croppa, %d enor, %d jadiz, %d magnite, %d umanite",
		c.Credits, c.Bismor, c.Croppa, c.Enor, c.Jadiz, c.Magnite, c.Umanite)
}

// Schematic is one catalog entry merged with its decoded state.
type Schematic struct {
	ID       Identifier
	Category Category
	Class    string
	Weapon   string // overclocks only
	Name     string
	Cost     Cost
	State    AcquisitionState
}

// DisplayName is "Class Weapon: Name" for overclocks and "Class: Name" for cosmetics.
func (s *Schematic) DisplayName() string {
	if s.Weapon != "" {
		return fmt.Sprintf("%s %s: %s", s.Class, s.Weapon, s.Name)
	}
	return fmt.Sprintf("%s: %s", s.Class, s.Name)
}

// Catalog maps identifiers to schematics, one map per category.
type Catalog struct {
	Overclocks map[Identifier]*Schematic
	Cosmetics  map[Identifier]*Schematic
}

func NewCatalog() *Catalog {
	return &Catalog{
		Overclocks: map[Identifier]*Schematic{},
		Cosmetics:  map[Identifier]*Schematic{},
	}
}

func (c *Catalog) category(cat Category) map[Identifier]*Schematic {
	if cat == Cosmetic {
		return c.Cosmetics
	}
	return c.Overclocks
}

// Add inserts s into the map for its category.
func (c *Catalog) Add(s *Schematic) {
	c.category(s.Category)[s.ID] = s
}

// Lookup returns every entry with this identifier. Normally zero or one.
func (c *Catalog) Lookup(id Identifier) []*Schematic {
	var out []*Schematic
	if s, ok := c.Overclocks[id]; ok {
		out = append(out, s)
	}
	if s, ok := c.Cosmetics[id]; ok {
		out = append(out, s)
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.Overclocks) + len(c.Cosmetics)
}

// SetState tags every entry with this identifier. Reports whether any matched.
func (c *Catalog) SetState(id Identifier, state AcquisitionState) bool {
	matched := c.Lookup(id)
	for _, s := range matched {
		s.State = state
	}
	return len(matched) > 0
}

func (c *Catalog) ResetStates() {
	for _, m := range []map[Identifier]*Schematic{c.Overclocks, c.Cosmetics} {
		for _, s := range m {
			s.State = Unacquired
		}
	}
}

// Sorted returns one category in ascending identifier order. Map iteration
// order must never reach the output buffer, so every writer goes through here.
func (c *Catalog) Sorted(cat Category) []*Schematic {
	m := c.category(cat)
	out := make([]*Schematic, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Schematic) int { return a.ID.Compare(b.ID) })
	return out
}

// All returns overclocks then cosmetics, each sorted.
func (c *Catalog) All() []*Schematic {
	return append(c.Sorted(Overclock), c.Sorted(Cosmetic)...)
}

// WithState returns identifiers in the given state: overclocks then cosmetics,
// each ascending.
func (c *Catalog) WithState(state AcquisitionState) []Identifier {
	var out []Identifier
	for _, s := range c.All() {
		if s.State == state {
			out = append(out, s.ID)
		}
	}
	return out
}

// CostOf sums the cost of every entry in the given state.
func (c *Catalog) CostOf(state AcquisitionState) Cost {
	total := Cost{}
	for _, s := range c.All() {
		if s.State == state {
			total = total.Add(s.Cost)
		}
	}
	return total
}
