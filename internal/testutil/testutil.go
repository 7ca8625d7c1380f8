// Package testutil builds synthetic save buffers with the same property
// layout as real saves, for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"drgedit/tables"
	"drgedit/types"
)

// Save describes the buffer to build.
type Save struct {
	Classes      [types.ClassCount]types.ClassStats
	Credits      uint32
	PerkPoints   uint32
	NoPerkPoints bool
	Resources    map[types.Identifier]float32 // missing entries are 0
	SkipResource *types.Identifier            // leave one resource out entirely
	Forged       []types.Identifier
	Unforged     []types.Identifier
	Trailer      []byte // appended after everything else
}

// ID returns an identifier made of one repeated byte.
func ID(b byte) types.Identifier {
	var id types.Identifier
	for i := range id {
		id[i] = b
	}
	return id
}

type builder struct {
	bytes.Buffer
}

func (b *builder) u32(v uint32) { binary.Write(&b.Buffer, binary.LittleEndian, v) }
func (b *builder) u64(v uint64) { binary.Write(&b.Buffer, binary.LittleEndian, v) }
func (b *builder) zeros(n int)  { b.Write(make([]byte, n)) }

func (b *builder) fstring(s string) {
	b.u32(uint32(len(s) + 1))
	b.WriteString(s)
	b.WriteByte(0)
}

// intProperty writes name, IntProperty header and value; the value lands 33
// bytes after "Credits" and 36 after "PerkPoints", as in real saves.
func (b *builder) intProperty(name string, v uint32) {
	b.fstring(name)
	b.fstring("IntProperty")
	b.u64(4)
	b.WriteByte(0)
	b.u32(v)
}

// Build returns the encoded buffer.
func Build(s Save) []byte {
	b := &builder{}
	b.WriteString("GVAS")
	b.u32(2)
	b.fstring("/Script/FSD.FSDSaveGame")

	for c := types.Class(0); c < types.ClassCount; c++ {
		b.Write(tables.ClassMarkers[c])
		b.zeros(26)
		b.u32(s.Classes[c].XP)
		b.zeros(104)
		b.u32(s.Classes[c].Promotions)
		b.zeros(8)
	}

	b.intProperty("Credits", s.Credits)
	if !s.NoPerkPoints {
		b.intProperty("PerkPoints", s.PerkPoints)
	}

	b.fstring("OwnedResources")
	b.fstring("MapProperty")
	b.zeros(24)
	for _, res := range tables.AllResources() {
		if s.SkipResource != nil && *s.SkipResource == res.ID {
			continue
		}
		b.Write(res.ID[:])
		b.u32(math.Float32bits(s.Resources[res.ID]))
	}

	n := len(s.Forged)
	b.fstring("ForgedSchematics")
	b.fstring("ArrayProperty")
	b.u64(uint64(78 + 16*n))
	b.fstring("StructProperty")
	b.WriteByte(0)
	b.u32(uint32(n))
	b.fstring("ForgedSchematics")
	b.fstring("StructProperty")
	b.u64(uint64(16 * n))
	b.fstring("Guid")
	b.zeros(16)
	b.WriteByte(0)
	for _, id := range s.Forged {
		b.Write(id[:])
	}

	if m := len(s.Unforged); m > 0 {
		b.fstring("OwnedSchematics")
		b.fstring("ArrayProperty")
		b.u64(uint64(77 + 16*m))
		b.fstring("StructProperty")
		b.WriteByte(0)
		b.u32(uint32(m))
		b.fstring("OwnedSchematics")
		b.fstring("StructProperty")
		b.u64(uint64(16 * m))
		b.fstring("Guid")
		b.zeros(16)
		b.WriteByte(0)
		for _, id := range s.Unforged {
			b.Write(id[:])
		}
	}

	b.fstring("bFirstSchematicMessageShown")
	b.fstring("BoolProperty")
	b.u64(0)
	b.WriteByte(1)
	b.WriteByte(0)
	b.fstring("None")
	b.zeros(4)
	b.Write(s.Trailer)
	return b.Bytes()
}

// Catalog renders a YAML catalog with one overclock per identifier in
// overclocks and one cosmetic per identifier in cosmetics.
func Catalog(overclocks, cosmetics []types.Identifier) []byte {
	var sb strings.Builder
	write := func(section string, ids []types.Identifier, weapon bool) {
		sb.WriteString(section + ":\n")
		sorted := append([]types.Identifier(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
		for i, id := range sorted {
			fmt.Fprintf(&sb, "  %q:\n", id.String())
			sb.WriteString("    class: Driller\n")
			if weapon {
				sb.WriteString("    weapon: Subata 120\n")
			}
			fmt.Fprintf(&sb, "    name: %s %d\n", section, i)
			fmt.Fprintf(&sb, "    cost: {credits: %d, jadiz: 10}\n", 1000*(i+1))
		}
	}
	write("overclocks", overclocks, true)
	write("cosmetics", cosmetics, false)
	return []byte(sb.String())
}
