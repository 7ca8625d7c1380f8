package savefile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"drgedit/types"
)

// Kind is the wire type of a scalar field. Both are 4 bytes little-endian.
type Kind int

const (
	KindUint32 Kind = iota
	KindFloat32
)

func (k Kind) String() string {
	if k == KindFloat32 {
		return "f32"
	}
	return "u32"
}

// Value is a decoded scalar.
type Value struct {
	Kind Kind
	U32  uint32
	F32  float32
}

func (v Value) String() string {
	if v.Kind == KindFloat32 {
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32)
	}
	return strconv.FormatUint(uint64(v.U32), 10)
}

// Field is one named, gettable and settable scalar.
type Field struct {
	Name string
	Kind Kind

	u32 func(sf *SaveFile) *uint32
	f32 func(sf *SaveFile) *float32
}

var fields = buildFields()

var fieldIndex = func() map[string]*Field {
	m := make(map[string]*Field, len(fields))
	for i := range fields {
		m[fields[i].Name] = &fields[i]
	}
	return m
}()

func buildFields() []Field {
	out := []Field{}
	for c := types.Class(0); c < types.ClassCount; c++ {
		out = append(out,
			Field{Name: c.String() + "_xp", Kind: KindUint32, u32: func(sf *SaveFile) *uint32 { return &sf.Classes[c].XP }},
			Field{Name: c.String() + "_promotions", Kind: KindUint32, u32: func(sf *SaveFile) *uint32 { return &sf.Classes[c].Promotions }},
		)
	}
	u := func(name string, p func(sf *SaveFile) *uint32) Field {
		return Field{Name: name, Kind: KindUint32, u32: p}
	}
	f := func(name string, p func(sf *SaveFile) *float32) Field {
		return Field{Name: name, Kind: KindFloat32, f32: p}
	}
	return append(out,
		u("credits", func(sf *SaveFile) *uint32 { return &sf.Credits }),
		u("perk_points", func(sf *SaveFile) *uint32 { return &sf.PerkPoints }),

		f("bismor", func(sf *SaveFile) *float32 { return &sf.Minerals.Bismor }),
		f("enor", func(sf *SaveFile) *float32 { return &sf.Minerals.Enor }),
		f("jadiz", func(sf *SaveFile) *float32 { return &sf.Minerals.Jadiz }),
		f("croppa", func(sf *SaveFile) *float32 { return &sf.Minerals.Croppa }),
		f("magnite", func(sf *SaveFile) *float32 { return &sf.Minerals.Magnite }),
		f("umanite", func(sf *SaveFile) *float32 { return &sf.Minerals.Umanite }),

		f("yeast", func(sf *SaveFile) *float32 { return &sf.Brewing.Yeast }),
		f("starch", func(sf *SaveFile) *float32 { return &sf.Brewing.Starch }),
		f("barley", func(sf *SaveFile) *float32 { return &sf.Brewing.Barley }),
		f("malt", func(sf *SaveFile) *float32 { return &sf.Brewing.Malt }),

		f("blank_cores", func(sf *SaveFile) *float32 { return &sf.Cores.Blank }),
		f("error_cores", func(sf *SaveFile) *float32 { return &sf.Cores.Error }),
	)
}

// Fields lists every scalar field name in display order.
func Fields() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// FieldKind reports the kind of a named field.
func FieldKind(name string) (Kind, bool) {
	f, ok := fieldIndex[name]
	if !ok {
		return 0, false
	}
	return f.Kind, true
}

func lookupField(name string) (*Field, error) {
	f, ok := fieldIndex[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%s is not a field. Fields are:\n%s", name, strings.Join(Fields(), "\n"))
	}
	return f, nil
}

func (sf *SaveFile) Get(name string) (Value, error) {
	f, err := lookupField(name)
	if err != nil {
		return Value{}, err
	}
	if f.Kind == KindFloat32 {
		return Value{Kind: KindFloat32, F32: *f.f32(sf)}, nil
	}
	return Value{Kind: KindUint32, U32: *f.u32(sf)}, nil
}

// Set parses to according to the field's kind and stores it.
// Amounts are not checked against anything the game would allow.
func (sf *SaveFile) Set(name, to string) (Value, error) {
	f, err := lookupField(name)
	if err != nil {
		return Value{}, err
	}
	to = strings.TrimSpace(to)
	if f.Kind == KindFloat32 {
		v, err := strconv.ParseFloat(to, 32)
		if err != nil {
			return Value{}, errors.Wrapf(err, "set %s", f.Name)
		}
		*f.f32(sf) = float32(v)
	} else {
		v, err := strconv.ParseUint(to, 10, 32)
		if err != nil {
			return Value{}, errors.Wrapf(err, "set %s", f.Name)
		}
		*f.u32(sf) = uint32(v)
	}
	return sf.Get(f.Name)
}

func (sf *SaveFile) SetUint32(name string, v uint32) error {
	f, err := lookupField(name)
	if err != nil {
		return err
	}
	if f.Kind != KindUint32 {
		return fmt.Errorf("%s is a %s field", f.Name, f.Kind)
	}
	*f.u32(sf) = v
	return nil
}

func (sf *SaveFile) SetFloat32(name string, v float32) error {
	f, err := lookupField(name)
	if err != nil {
		return err
	}
	if f.Kind != KindFloat32 {
		return fmt.Errorf("%s is a %s field", f.Name, f.Kind)
	}
	*f.f32(sf) = v
	return nil
}

// resourceValues collects the float fields that live in the resource table.
func (sf *SaveFile) resourceValues(names []string) map[string]float32 {
	out := make(map[string]float32, len(names))
	for _, name := range names {
		if f, ok := fieldIndex[name]; ok && f.Kind == KindFloat32 {
			out[name] = *f.f32(sf)
		}
	}
	return out
}

func (sf *SaveFile) setResourceValues(values map[string]float32) {
	for name, v := range values {
		if f, ok := fieldIndex[name]; ok && f.Kind == KindFloat32 {
			*f.f32(sf) = v
		}
	}
}
