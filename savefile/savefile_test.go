package savefile

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drgedit/internal/testutil"
	"drgedit/readers"
	"drgedit/tables"
	"drgedit/types"
)

var (
	idAA = testutil.ID(0xAA)
	idBB = testutil.ID(0xBB)
	idCC = testutil.ID(0xCC)
	idDD = testutil.ID(0xDD) // cosmetic
	idEE = testutil.ID(0xEE) // not in the catalog
)

func testCatalog() []byte {
	return testutil.Catalog([]types.Identifier{idAA, idBB, idCC}, []types.Identifier{idDD})
}

func fullSave() testutil.Save {
	s := testutil.Save{
		Credits:    123456,
		PerkPoints: 42,
		Resources: map[types.Identifier]float32{
			tables.Bismor:     100.5,
			tables.Umanite:    7,
			tables.Yeast:      3,
			tables.BlankCores: 2,
			tables.ErrorCores: 9,
		},
		Forged:   []types.Identifier{idBB, idEE},
		Unforged: []types.Identifier{idAA, idDD},
	}
	for c := types.Class(0); c < types.ClassCount; c++ {
		s.Classes[c] = types.ClassStats{XP: 1000 * uint32(c+1), Promotions: uint32(c)}
	}
	return s
}

func load(t testing.TB, buf []byte, opts ...Option) *SaveFile {
	t.Helper()
	sf, err := Load(buf, testCatalog(), opts...)
	require.NoError(t, err)
	return sf
}

func TestLoadDecodesEverything(t *testing.T) {
	t.Parallel()

	sf := load(t, testutil.Build(fullSave()))

	assert.Equal(t, types.ClassStats{XP: 3000, Promotions: 2}, sf.Classes[types.Driller])
	assert.Equal(t, uint32(123456), sf.Credits)
	assert.True(t, sf.HasPerkPoints())
	assert.Equal(t, uint32(42), sf.PerkPoints)
	assert.Equal(t, float32(100.5), sf.Minerals.Bismor)
	assert.Equal(t, float32(7), sf.Minerals.Umanite)
	assert.Equal(t, float32(0), sf.Minerals.Enor)
	assert.Equal(t, float32(3), sf.Brewing.Yeast)
	assert.Equal(t, types.Cores{Blank: 2, Error: 9}, sf.Cores)
	assert.Equal(t, tables.LayoutV1, sf.Layout())

	assert.Equal(t, map[types.AcquisitionState]int{types.Forged: 1, types.Unforged: 2, types.Unacquired: 1}, sf.Counts())
	forged, unforged := sf.Unknown()
	assert.Equal(t, []types.Identifier{idEE}, forged)
	assert.Empty(t, unforged)

	states := map[types.Identifier]types.AcquisitionState{}
	for _, s := range sf.Schematics() {
		states[s.ID] = s.State
	}
	assert.Equal(t, map[types.Identifier]types.AcquisitionState{
		idAA: types.Unforged, idBB: types.Forged, idCC: types.Unacquired, idDD: types.Unforged,
	}, states)
}

func TestLoadCopiesInput(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(fullSave())
	sf := load(t, buf)
	for i := range buf {
		buf[i] = 0
	}
	assert.Equal(t, testutil.Build(fullSave()), sf.Bytes())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for name, s := range map[string]testutil.Save{
		"full":           fullSave(),
		"empty lists":    {Credits: 1},
		"no perk points": {NoPerkPoints: true, Unforged: []types.Identifier{idBB, idCC}},
		"only forged":    {Forged: []types.Identifier{idDD, idAA}},
		"in both lists":  {Forged: []types.Identifier{idBB}, Unforged: []types.Identifier{idBB}},
		"forged twice":   {Forged: []types.Identifier{idBB, idBB}, Unforged: []types.Identifier{idAA}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			buf := testutil.Build(s)
			out, err := load(t, buf).Save()
			require.NoError(t, err)
			assert.Equal(t, buf, out)
		})
	}
}

func TestInBothLists(t *testing.T) {
	t.Parallel()

	both := testutil.Save{Forged: []types.Identifier{idBB}, Unforged: []types.Identifier{idAA, idBB}}
	sf := load(t, testutil.Build(both))
	assert.Equal(t, types.Forged, sf.Catalog.Lookup(idBB)[0].State)
	assert.Equal(t, map[types.AcquisitionState]int{types.Forged: 1, types.Unforged: 1, types.Unacquired: 2}, sf.Counts())

	// Unrelated edits leave the double listing alone.
	sf.Credits = 9
	out, err := sf.Save()
	require.NoError(t, err)
	both.Credits = 9
	assert.Equal(t, testutil.Build(both), out)

	require.NoError(t, sf.SetState(idBB, types.Unforged))
	out, err = sf.Save()
	require.NoError(t, err)
	assert.Equal(t, testutil.Build(testutil.Save{Credits: 9, Unforged: []types.Identifier{idAA, idBB}}), out)
}

func TestSaveIsIdempotent(t *testing.T) {
	t.Parallel()

	sf := load(t, testutil.Build(fullSave()))
	sf.Credits = 1
	require.NoError(t, sf.SetState(idCC, types.Unforged))
	first, err := sf.Save()
	require.NoError(t, err)

	second, err := load(t, first).Save()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	third, err := sf.Save()
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, first, sf.Bytes())
}

func TestFieldWriteRead(t *testing.T) {
	t.Parallel()

	u32s := []uint32{0, 1, 0x7FFFFFFF, math.MaxUint32}
	f32s := []float32{0, float32(math.Copysign(0, -1)), 1.5, -1, 3.4e38, 1e-45}

	for _, name := range Fields() {
		kind, ok := FieldKind(name)
		require.True(t, ok, name)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if kind == KindUint32 {
				for _, v := range u32s {
					sf := load(t, testutil.Build(fullSave()))
					require.NoError(t, sf.SetUint32(name, v))
					out, err := sf.Save()
					require.NoError(t, err)
					got, err := load(t, out).Get(name)
					require.NoError(t, err)
					assert.Equal(t, v, got.U32)
				}
				return
			}
			for _, v := range f32s {
				sf := load(t, testutil.Build(fullSave()))
				require.NoError(t, sf.SetFloat32(name, v))
				out, err := sf.Save()
				require.NoError(t, err)
				got, err := load(t, out).Get(name)
				require.NoError(t, err)
				assert.Equal(t, math.Float32bits(v), math.Float32bits(got.F32), "%v", v)
			}
		})
	}
}

func TestFieldsOnlyTouchTheirBytes(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(fullSave())
	sf := load(t, buf)
	require.NoError(t, sf.SetUint32("scout_promotions", 0xDEADBEEF))
	out, err := sf.Save()
	require.NoError(t, err)
	require.Len(t, out, len(buf))

	var diff []int
	for i := range buf {
		if buf[i] != out[i] {
			diff = append(diff, i)
		}
	}
	pos, _ := readers.Find(buf, tables.ClassMarkers[types.Scout])
	at := pos + tables.LayoutV1.XPDelta + tables.LayoutV1.PromotionsDelta
	assert.Equal(t, []int{at, at + 1, at + 2, at + 3}, diff)
	assert.Equal(t, uint32(0xDEADBEEF), binary.LittleEndian.Uint32(out[at:]))
}

func TestSetParsesText(t *testing.T) {
	t.Parallel()

	sf := load(t, testutil.Build(fullSave()))

	v, err := sf.Set("Credits", " 99 ")
	require.NoError(t, err)
	assert.Equal(t, "99", v.String())
	assert.Equal(t, uint32(99), sf.Credits)

	v, err = sf.Set("magnite", "12.25")
	require.NoError(t, err)
	assert.Equal(t, Value{Kind: KindFloat32, F32: 12.25}, v)

	_, err = sf.Set("credits", "-1")
	assert.Error(t, err)
	_, err = sf.Set("credits", "4294967296")
	assert.Error(t, err)
	_, err = sf.Set("magnite", "lots")
	assert.Error(t, err)
	_, err = sf.Set("beards", "1")
	assert.ErrorContains(t, err, "not a field")

	assert.Error(t, sf.SetUint32("magnite", 1))
	assert.Error(t, sf.SetFloat32("credits", 1))
}

func TestReclassifyUnforgedToForged(t *testing.T) {
	t.Parallel()

	sf := load(t, testutil.Build(fullSave()))
	require.NoError(t, sf.SetState(idAA, types.Forged))
	out, err := sf.Save()
	require.NoError(t, err)

	again := load(t, out)
	counts := again.Counts()
	assert.Equal(t, 2, counts[types.Forged])
	assert.Equal(t, 1, counts[types.Unforged])

	fields, err := again.Located()
	require.NoError(t, err)
	got := map[string]uint32{}
	for _, f := range fields {
		got[f.Name] = f.Value.U32
	}
	assert.Equal(t, uint32(3), got["forged_count"], "two known plus one unknown")
	assert.Equal(t, uint32(1), got["unforged_count"])

	want := fullSave()
	want.Forged = []types.Identifier{idBB, idEE, idAA}
	want.Unforged = []types.Identifier{idDD}
	assert.Equal(t, testutil.Build(want), out)
}

func TestAddUnforgedScenario(t *testing.T) {
	t.Parallel()

	s := testutil.Save{Unforged: []types.Identifier{idAA, idBB}}
	sf := load(t, testutil.Build(s))
	require.NoError(t, sf.SetState(idCC, types.Unforged))
	out, err := sf.Save()
	require.NoError(t, err)

	owned, ok := readers.Find(out, []byte("OwnedSchematics"))
	require.True(t, ok)
	countAt := owned + tables.LayoutV1.UnforgedCountDelta
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(out[countAt:]))
	list := out[countAt+tables.LayoutV1.UnforgedListDelta:]
	assert.Equal(t, idAA[:], list[0:16])
	assert.Equal(t, idBB[:], list[16:32])
	assert.Equal(t, idCC[:], list[32:48])

	s.Unforged = append(s.Unforged, idCC)
	assert.Equal(t, testutil.Build(s), out)
}

func TestUnforgeEverything(t *testing.T) {
	t.Parallel()

	s := fullSave()
	sf := load(t, testutil.Build(s))
	require.NoError(t, sf.SetState(idAA, types.Unacquired))
	require.NoError(t, sf.SetState(idDD, types.Unacquired))
	out, err := sf.Save()
	require.NoError(t, err)

	s.Unforged = nil
	assert.Equal(t, testutil.Build(s), out)
	_, ok := readers.Find(out, []byte("OwnedSchematics"))
	assert.False(t, ok)
}

func TestSetStateErrors(t *testing.T) {
	t.Parallel()

	sf := load(t, testutil.Build(fullSave()))
	assert.Error(t, sf.SetState(idEE, types.Forged))
	assert.Error(t, sf.SetState(idAA, types.AcquisitionState(9)))
}

func TestLoadFailures(t *testing.T) {
	t.Parallel()

	good := testutil.Build(fullSave())
	tests := []struct {
		name    string
		buf     []byte
		catalog []byte
		want    error
	}{
		{"no resource marker", bytes.ReplaceAll(good, []byte("OwnedResources"), []byte("XwnedResources")), testCatalog(), types.ErrFormat},
		{"no credits", bytes.ReplaceAll(good, []byte("Credits"), []byte("Debits!")), testCatalog(), types.ErrFormat},
		{"no class marker", bytes.ReplaceAll(good, tables.ClassMarkers[types.Gunner], make([]byte, 22)), testCatalog(), types.ErrFormat},
		{"truncated", good[:len(good)/2], testCatalog(), types.ErrFormat},
		{"empty", nil, testCatalog(), types.ErrFormat},
		{"bad catalog", good, []byte("overclocks:\n  XYZ:\n    name: x\n"), types.ErrCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sf, err := Load(tt.buf, tt.catalog)
			assert.Nil(t, sf)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMissingResourceNamesIt(t *testing.T) {
	t.Parallel()

	skip := tables.Starch
	s := fullSave()
	s.SkipResource = &skip
	_, err := Load(testutil.Build(s), testCatalog())
	var fe *types.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "resource starch", fe.What)
}

func TestStrictMarkers(t *testing.T) {
	t.Parallel()

	s := fullSave()
	s.Trailer = []byte("Credits")
	buf := testutil.Build(s)

	sf := load(t, buf)
	assert.Equal(t, uint32(123456), sf.Credits, "first match wins")

	_, err := Load(buf, testCatalog(), WithStrictMarkers(true))
	assert.ErrorIs(t, err, types.ErrFormat)

	sf = load(t, testutil.Build(fullSave()), WithStrictMarkers(true))
	out, err := sf.Save()
	require.NoError(t, err)
	assert.Equal(t, testutil.Build(fullSave()), out)
}

func TestPerkPointsAbsent(t *testing.T) {
	t.Parallel()

	s := fullSave()
	s.NoPerkPoints = true
	buf := testutil.Build(s)
	sf := load(t, buf)
	assert.False(t, sf.HasPerkPoints())
	assert.Equal(t, uint32(0), sf.PerkPoints)

	fields, err := sf.Located()
	require.NoError(t, err)
	for _, f := range fields {
		assert.NotEqual(t, "perk_points", f.Name)
	}

	sf.PerkPoints = 5
	_, err = sf.Save()
	assert.ErrorIs(t, err, types.ErrFormat)
	assert.Equal(t, buf, sf.Bytes(), "failed save leaves the buffer alone")

	sf.PerkPoints = 0
	out, err := sf.Save()
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestFailedSaveChangesNothing(t *testing.T) {
	t.Parallel()

	s := testutil.Save{Forged: []types.Identifier{idBB}}
	buf := testutil.Build(s)
	// Break the forged array size so that changing the forged list has to fail.
	start, _ := readers.Find(buf, tables.MarkerForged)
	binary.LittleEndian.PutUint64(buf[start+tables.LayoutV1.ForgedArraySizeDelta:], 1)

	sf := load(t, buf)
	sf.Credits = 777
	require.NoError(t, sf.SetState(idAA, types.Forged))
	_, err := sf.Save()
	assert.ErrorIs(t, err, types.ErrFormat)
	assert.Equal(t, buf, sf.Bytes())

	require.NoError(t, sf.SetState(idAA, types.Unacquired))
	out, err := sf.Save()
	require.NoError(t, err)
	assert.Equal(t, uint32(777), load(t, out).Credits)
}

func TestSaveRelocatesAfterSplice(t *testing.T) {
	t.Parallel()

	sf := load(t, testutil.Build(fullSave()))
	require.NoError(t, sf.SetState(idCC, types.Unforged))
	_, err := sf.Save()
	require.NoError(t, err)

	// The buffer grew; every cached offset must still point at the right field.
	sf.Classes[types.Gunner].XP = 55
	sf.Credits = 66
	out, err := sf.Save()
	require.NoError(t, err)
	again := load(t, out)
	assert.Equal(t, uint32(55), again.Classes[types.Gunner].XP)
	assert.Equal(t, uint32(66), again.Credits)
	assert.Equal(t, 3, again.Counts()[types.Unforged])
}

func TestLocated(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(fullSave())
	sf := load(t, buf)
	fields, err := sf.Located()
	require.NoError(t, err)

	// Every scalar field plus the two counts.
	require.Len(t, fields, len(Fields())+2)
	for _, f := range fields {
		if f.Kind == KindFloat32 {
			v, err := readers.Float32LE(buf, f.Offset, f.Name)
			require.NoError(t, err)
			assert.Equal(t, v, f.Value.F32, f.Name)
			continue
		}
		v, err := readers.Uint32LE(buf, f.Offset, f.Name)
		require.NoError(t, err)
		assert.Equal(t, v, f.Value.U32, f.Name)
	}
	assert.Equal(t, "engineer_xp", fields[0].Name)
	assert.Equal(t, uint32(1000), fields[0].Value.U32)
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sf := load(t, testutil.Build(fullSave()), WithLogger(logger))
	_, err := sf.Save()
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "schematics located")
	assert.Contains(t, logs.String(), "save encoded")
}

func TestNewWithoutCatalog(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(fullSave())
	sf, err := New(buf, nil, WithLayout(tables.Layouts["v1"]))
	require.NoError(t, err)
	assert.Empty(t, sf.Schematics())
	forged, unforged := sf.Unknown()
	assert.Len(t, forged, 2)
	assert.Len(t, unforged, 2)

	out, err := sf.Save()
	require.NoError(t, err)
	assert.Equal(t, buf, out, "unknown identifiers are written back as they were")
}
