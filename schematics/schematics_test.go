package schematics

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drgedit/internal/testutil"
	"drgedit/readers"
	"drgedit/tables"
	"drgedit/types"
)

var (
	ocA   = testutil.ID(0xA1)
	ocB   = testutil.ID(0xA2)
	ocC   = testutil.ID(0xA3)
	cosA  = testutil.ID(0xC1)
	cosB  = testutil.ID(0xC2)
	stray = testutil.ID(0xEE)
)

func testCatalog() *types.Catalog {
	c := types.NewCatalog()
	for _, id := range []types.Identifier{ocA, ocB, ocC} {
		c.Add(&types.Schematic{ID: id, Category: types.Overclock})
	}
	for _, id := range []types.Identifier{cosA, cosB} {
		c.Add(&types.Schematic{ID: id, Category: types.Cosmetic})
	}
	return c
}

// Bytes the game writes ahead of and after the count for two unforged schematics.
var (
	twoHeader = []byte{0x10, 0x00, 0x00, 0x00, 0x4F, 0x77, 0x6E, 0x65, 0x64, 0x53, 0x63, 0x68, 0x65, 0x6D, 0x61, 0x74, 0x69, 0x63, 0x73, 0x00, 0x0E, 0x00, 0x00, 0x00, 0x41, 0x72, 0x72, 0x61, 0x79, 0x50, 0x72, 0x6F, 0x70, 0x65, 0x72, 0x74, 0x79, 0x00, 0x6D, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0F, 0x00, 0x00, 0x00, 0x53, 0x74, 0x72, 0x75, 0x63, 0x74, 0x50, 0x72, 0x6F, 0x70, 0x65, 0x72, 0x74, 0x79, 0x00, 0x00}
	twoFooter = []byte{0x10, 0x00, 0x00, 0x00, 0x4F, 0x77, 0x6E, 0x65, 0x64, 0x53, 0x63, 0x68, 0x65, 0x6D, 0x61, 0x74, 0x69, 0x63, 0x73, 0x00, 0x0F, 0x00, 0x00, 0x00, 0x53, 0x74, 0x72, 0x75, 0x63, 0x74, 0x50, 0x72, 0x6F, 0x70, 0x65, 0x72, 0x74, 0x79, 0x00, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x47, 0x75, 0x69, 0x64, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

func TestUnforgedBlockMatchesGame(t *testing.T) {
	t.Parallel()

	block := UnforgedBlock([]types.Identifier{ocA, cosA})
	require.Len(t, block, 66+4+73+32)
	assert.Equal(t, twoHeader, block[:66])
	assert.Equal(t, []byte{2, 0, 0, 0}, block[66:70])
	assert.Equal(t, twoFooter, block[70:143])
	assert.Equal(t, ocA[:], block[143:159])
	assert.Equal(t, cosA[:], block[159:])
}

func TestUnforgedBlockSizes(t *testing.T) {
	t.Parallel()

	assert.Nil(t, UnforgedBlock(nil))

	l := tables.LayoutV1
	assert.Equal(t, 66, unforgedHeaderLen())
	assert.Equal(t, 73, unforgedFooterLen())
	// The "Owned" name sits 4 bytes into the header; the count follows the header.
	assert.Equal(t, l.UnforgedCountDelta, unforgedHeaderLen()-tables.FStringLengthPrefixLen)
	assert.Equal(t, l.UnforgedListDelta, 4+unforgedFooterLen())

	for _, n := range []int{1, 3, 10} {
		ids := make([]types.Identifier, n)
		block := UnforgedBlock(ids)
		assert.Len(t, block, 66+4+73+16*n)
		assert.Equal(t, uint64(77+16*n), binary.LittleEndian.Uint64(block[38:]))
		assert.Equal(t, uint32(n), binary.LittleEndian.Uint32(block[66:]))
		assert.Equal(t, uint64(16*n), binary.LittleEndian.Uint64(block[70+39:]))
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{
		Forged:   []types.Identifier{ocB, cosA},
		Unforged: []types.Identifier{ocA, stray},
	})
	r, err := Locate(buf, tables.LayoutV1, true)
	require.NoError(t, err)

	assert.Equal(t, []types.Identifier{ocB, cosA}, r.Forged)
	assert.Equal(t, []types.Identifier{ocA, stray}, r.Unforged)
	assert.GreaterOrEqual(t, r.Owned, r.ForgedEnd())
	assert.Equal(t, 0, r.Slack())
	assert.Equal(t, r.End, r.UnforgedEnd())
	assert.Equal(t, []byte("bFirstSchematicMessageShown"), buf[r.End+4:r.End+4+27])
}

func TestLocateNoUnforged(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)
	assert.Equal(t, -1, r.Owned)
	assert.Empty(t, r.Unforged)
	assert.Equal(t, r.ForgedEnd(), r.UnforgedEnd())
	assert.Equal(t, 0, r.Slack())
}

func TestLocateErrors(t *testing.T) {
	t.Parallel()

	good := testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}, Unforged: []types.Identifier{ocB}})

	t.Run("no forged marker", func(t *testing.T) {
		t.Parallel()
		buf := bytes.ReplaceAll(good, []byte("ForgedSchematics"), []byte("XorgedSchematics"))
		_, err := Locate(buf, tables.LayoutV1, false)
		assert.ErrorIs(t, err, types.ErrFormat)
	})

	t.Run("no end marker", func(t *testing.T) {
		t.Parallel()
		buf := bytes.ReplaceAll(good, tables.MarkerSchematicsEnd, []byte("xFirstSchematicMessageShown"))
		_, err := Locate(buf, tables.LayoutV1, false)
		assert.ErrorIs(t, err, types.ErrFormat)
	})

	t.Run("forged count past region", func(t *testing.T) {
		t.Parallel()
		buf := bytes.Clone(good)
		start, _ := readers.Find(buf, tables.MarkerForged)
		binary.LittleEndian.PutUint32(buf[start+tables.LayoutV1.ForgedCountDelta:], 1000)
		_, err := Locate(buf, tables.LayoutV1, false)
		assert.ErrorIs(t, err, types.ErrFormat)
	})

	t.Run("unforged count past region", func(t *testing.T) {
		t.Parallel()
		buf := bytes.Clone(good)
		r, err := Locate(buf, tables.LayoutV1, false)
		require.NoError(t, err)
		binary.LittleEndian.PutUint32(buf[r.Owned+tables.LayoutV1.UnforgedCountDelta:], 2)
		_, err = Locate(buf, tables.LayoutV1, false)
		assert.ErrorIs(t, err, types.ErrFormat)
	})

	t.Run("duplicate marker in strict mode", func(t *testing.T) {
		t.Parallel()
		buf := testutil.Build(testutil.Save{Trailer: []byte("ForgedSchematics")})
		_, err := Locate(buf, tables.LayoutV1, false)
		require.NoError(t, err)
		_, err = Locate(buf, tables.LayoutV1, true)
		assert.ErrorIs(t, err, types.ErrFormat)
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{
		Forged:   []types.Identifier{ocB, stray},
		Unforged: []types.Identifier{cosB, ocA},
	})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)

	cat := testCatalog()
	cat.SetState(ocC, types.Forged) // stale state from an earlier decode
	r.Classify(cat)

	state := func(id types.Identifier) types.AcquisitionState { return cat.Lookup(id)[0].State }
	assert.Equal(t, types.Forged, state(ocB))
	assert.Equal(t, types.Unforged, state(ocA))
	assert.Equal(t, types.Unforged, state(cosB))
	assert.Equal(t, types.Unacquired, state(ocC))
	assert.Equal(t, types.Unacquired, state(cosA))
	assert.Equal(t, []types.Identifier{stray}, r.UnknownForged)
	assert.Empty(t, r.UnknownUnforged)
}

func TestPlanOrdering(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{
		Forged:   []types.Identifier{cosA, stray, ocB},
		Unforged: []types.Identifier{cosB, stray, ocC, ocA},
	})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)
	cat := testCatalog()
	r.Classify(cat)

	forged, unforged := r.Plan(cat)
	assert.Equal(t, []types.Identifier{cosA, stray, ocB}, forged, "decoded order is kept")
	assert.Equal(t, []types.Identifier{ocA, ocC, cosB, stray}, unforged, "overclocks, cosmetics, then unknown")

	cat.SetState(ocC, types.Forged)
	cat.SetState(ocA, types.Forged)
	cat.SetState(cosA, types.Unforged)
	forged, unforged = r.Plan(cat)
	assert.Equal(t, []types.Identifier{stray, ocB, ocA, ocC}, forged)
	assert.Equal(t, []types.Identifier{cosA, cosB, stray}, unforged)
}

func TestPlanKeepsRepeatsAndDoubleListings(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{
		Forged:   []types.Identifier{ocB, ocA, ocB},
		Unforged: []types.Identifier{ocA, ocC},
	})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)
	cat := testCatalog()
	r.Classify(cat)
	assert.Equal(t, types.Forged, cat.Lookup(ocA)[0].State, "forged wins")

	forged, unforged := r.Plan(cat)
	assert.Equal(t, []types.Identifier{ocB, ocA, ocB}, forged)
	assert.Equal(t, []types.Identifier{ocA, ocC}, unforged)
	out, err := Rebuild(buf, r, forged, unforged)
	require.NoError(t, err)
	assert.Equal(t, buf, out)

	// Newly forged entries leave the unforged list; double listings go with their state.
	cat.SetState(ocC, types.Forged)
	cat.SetState(ocA, types.Unforged)
	forged, unforged = r.Plan(cat)
	assert.Equal(t, []types.Identifier{ocB, ocB, ocC}, forged)
	assert.Equal(t, []types.Identifier{ocA}, unforged)
}

func TestRebuildRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []testutil.Save{
		{},
		{Forged: []types.Identifier{ocA}},
		{Unforged: []types.Identifier{ocA, cosA}},
		{Forged: []types.Identifier{cosB, ocC}, Unforged: []types.Identifier{ocA, ocB, cosA}},
	} {
		buf := testutil.Build(s)
		r, err := Locate(buf, tables.LayoutV1, false)
		require.NoError(t, err)
		cat := testCatalog()
		r.Classify(cat)
		forged, unforged := r.Plan(cat)

		out, err := Rebuild(buf, r, forged, unforged)
		require.NoError(t, err)
		assert.Equal(t, buf, out)
	}
}

func TestRebuildMovesUnforgedToForged(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{
		Forged:   []types.Identifier{ocB},
		Unforged: []types.Identifier{ocA, cosA},
	})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)
	cat := testCatalog()
	r.Classify(cat)
	cat.SetState(ocA, types.Forged)

	forged, unforged := r.Plan(cat)
	out, err := Rebuild(buf, r, forged, unforged)
	require.NoError(t, err)

	want := testutil.Build(testutil.Save{
		Forged:   []types.Identifier{ocB, ocA},
		Unforged: []types.Identifier{cosA},
	})
	assert.Equal(t, want, out)
	assert.Len(t, out, len(buf), "one identifier moved between lists")

	again, err := Locate(out, tables.LayoutV1, true)
	require.NoError(t, err)
	assert.Equal(t, []types.Identifier{ocB, ocA}, again.Forged)
	assert.Equal(t, []types.Identifier{cosA}, again.Unforged)
}

func TestRebuildAddsAndDropsUnforgedArray(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)

	out, err := Rebuild(buf, r, r.Forged, []types.Identifier{ocB, cosB, ocC})
	require.NoError(t, err)
	assert.Equal(t, testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}, Unforged: []types.Identifier{ocB, cosB, ocC}}), out)
	assert.Len(t, out, len(buf)+66+4+73+48)

	r2, err := Locate(out, tables.LayoutV1, false)
	require.NoError(t, err)
	back, err := Rebuild(out, r2, r2.Forged, nil)
	require.NoError(t, err)
	assert.Equal(t, buf, back)
}

func TestRebuildLeavesInputAlone(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}, Unforged: []types.Identifier{ocB}})
	orig := bytes.Clone(buf)
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)

	_, err = Rebuild(buf, r, []types.Identifier{ocA, ocB}, nil)
	require.NoError(t, err)
	assert.Equal(t, orig, buf)
}

func TestRebuildRefusesUnexpectedSizes(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}})
	start, _ := readers.Find(buf, tables.MarkerForged)
	binary.LittleEndian.PutUint64(buf[start+tables.LayoutV1.ForgedArraySizeDelta:], 12345)
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)

	_, err = Rebuild(buf, r, r.Forged, []types.Identifier{ocB})
	assert.NoError(t, err, "forged list unchanged, sizes are copied as they are")

	_, err = Rebuild(buf, r, []types.Identifier{ocA, ocB}, nil)
	assert.ErrorIs(t, err, types.ErrFormat)
}

func TestRebuildDropsSlack(t *testing.T) {
	t.Parallel()

	buf := testutil.Build(testutil.Save{Forged: []types.Identifier{ocA}})
	r, err := Locate(buf, tables.LayoutV1, false)
	require.NoError(t, err)

	padded := append(bytes.Clone(buf[:r.End]), 0xDE, 0xAD)
	padded = append(padded, buf[r.End:]...)
	r, err = Locate(padded, tables.LayoutV1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Slack())

	out, err := Rebuild(padded, r, r.Forged, nil)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}
