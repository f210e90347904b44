package chunkwalk_test

import (
	"testing"

	"github.com/emmanuelvlad/mcworld2json/internal/chunkwalk"
	"github.com/emmanuelvlad/mcworld2json/internal/nbt"
	"github.com/emmanuelvlad/mcworld2json/internal/packedarray"
	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
	"github.com/stretchr/testify/require"
)

func paletteEntry(name string) nbt.Tag {
	c := nbt.NewCompound()
	c.Set("Name", nbt.TagString(name))
	return c
}

func testResolver() *resolver.Resolver {
	return resolver.New(resolver.Catalog{
		ByName: map[string]uint16{
			"minecraft:stone": 19,
		},
		DefaultID: 0,
	})
}

func buildChunkRoot(sections []nbt.Tag) *nbt.Compound {
	root := nbt.NewCompound()
	root.Set("sections", nbt.TagList{ElemKind: nbt.KindCompound, Items: sections})
	return root
}

func buildSingleBlockSection(y int8, name string) nbt.Tag {
	sec := nbt.NewCompound()
	sec.Set("Y", nbt.TagByte(y))
	sec.Set("Palette", nbt.TagList{ElemKind: nbt.KindCompound, Items: []nbt.Tag{paletteEntry(name)}})
	return sec
}

func buildPackedSection(y int8, palette []string, indices []int, bitsPerBlock int) nbt.Tag {
	paletteItems := make([]nbt.Tag, len(palette))
	for i, name := range palette {
		paletteItems[i] = paletteEntry(name)
	}

	perWord := 64 / bitsPerBlock
	wordCount := (len(indices) + perWord - 1) / perWord
	words := make([]uint64, wordCount)
	for i, idx := range indices {
		wordIdx := i / perWord
		bitOffset := uint(i%perWord) * uint(bitsPerBlock)
		words[wordIdx] |= uint64(idx) << bitOffset
	}
	longs := make(nbt.TagLongArray, len(words))
	for i, w := range words {
		longs[i] = int64(w)
	}

	sec := nbt.NewCompound()
	sec.Set("Y", nbt.TagByte(y))
	sec.Set("Palette", nbt.TagList{ElemKind: nbt.KindCompound, Items: paletteItems})
	sec.Set("BlockStates", longs)
	return sec
}

func collectAll(t *testing.T, w *chunkwalk.Walker) []chunkwalk.Cell {
	t.Helper()
	var cells []chunkwalk.Cell
	for {
		cell, ok, err := w.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		cells = append(cells, cell)
	}
	return cells
}

func TestSinglePaletteSectionFillsAllCells(t *testing.T) {
	root := buildChunkRoot([]nbt.Tag{buildSingleBlockSection(0, "minecraft:stone")})
	w, err := chunkwalk.New(root, 0, 0, 9999, testResolver(), nil)
	require.NoError(t, err)

	cells := collectAll(t, w)
	require.Len(t, cells, 4096)
	for _, c := range cells {
		require.Equal(t, uint16(19), c.ID)
		require.True(t, c.X >= 0 && c.X <= 15)
		require.True(t, c.Y >= 0 && c.Y <= 15)
		require.True(t, c.Z >= 0 && c.Z <= 15)
	}
}

func TestSinglePaletteAirSectionSkipsEntirely(t *testing.T) {
	root := buildChunkRoot([]nbt.Tag{buildSingleBlockSection(0, "minecraft:air")})
	w, err := chunkwalk.New(root, 0, 0, 9999, testResolver(), nil)
	require.NoError(t, err)
	require.Empty(t, collectAll(t, w))
}

func TestAlignedPackedSectionAirElided(t *testing.T) {
	indices := make([]int, 4096)
	for i := range indices {
		indices[i] = 1 // all stone
	}
	sec := buildPackedSection(0, []string{"minecraft:air", "minecraft:stone"}, indices, packedarray.BitsForPalette(2, 4))
	root := buildChunkRoot([]nbt.Tag{sec})

	w, err := chunkwalk.New(root, 0, 0, 9999, testResolver(), nil)
	require.NoError(t, err)
	cells := collectAll(t, w)
	require.Len(t, cells, 4096)
	for _, c := range cells {
		require.Equal(t, uint16(19), c.ID)
	}
}

func TestDensePackingForOldDataVersion(t *testing.T) {
	palette := make([]string, 33)
	for i := range palette {
		palette[i] = "minecraft:unused"
	}
	palette[32] = "minecraft:stone"
	indices := make([]int, 4096)
	for i := range indices {
		indices[i] = 32
	}
	bits := packedarray.BitsForPalette(33, 4)
	sec := buildPackedSection(0, palette, indices, bits)

	// buildPackedSection packs word-aligned; re-pack BlockStates densely
	// (6-bit entries straddling word boundaries) as pre-1.16 data does.
	words := make([]uint64, (len(indices)*bits+63)/64)
	for i, idx := range indices {
		bitIdx := i * bits
		off := uint(bitIdx % 64)
		words[bitIdx/64] |= uint64(idx) << off
		if int(off)+bits > 64 {
			words[bitIdx/64+1] |= uint64(idx) >> (64 - off)
		}
	}
	longs := make(nbt.TagLongArray, len(words))
	for i, w := range words {
		longs[i] = int64(w)
	}
	sec.(*nbt.Compound).Set("BlockStates", longs)
	root := buildChunkRoot([]nbt.Tag{sec})

	w, err := chunkwalk.New(root, 0, 0, 1000, testResolver(), nil)
	require.NoError(t, err)
	cells := collectAll(t, w)
	require.Len(t, cells, 4096)
	for _, c := range cells {
		require.Equal(t, uint16(19), c.ID)
	}
}

func TestWorldCoordinatesNegativeChunk(t *testing.T) {
	root := buildChunkRoot([]nbt.Tag{buildSingleBlockSection(-1, "minecraft:stone")})
	w, err := chunkwalk.New(root, -1, -1, 9999, testResolver(), nil)
	require.NoError(t, err)

	cells := collectAll(t, w)
	require.Len(t, cells, 4096)
	for _, c := range cells {
		require.True(t, c.X >= -16 && c.X <= -1)
		require.True(t, c.Z >= -16 && c.Z <= -1)
	}
}

func TestAABBClipsCells(t *testing.T) {
	root := buildChunkRoot([]nbt.Tag{buildSingleBlockSection(0, "minecraft:stone")})
	bounds := &chunkwalk.AABB{MinX: 0, MinY: 0, MinZ: 0, MaxX: 3, MaxY: 15, MaxZ: 15}
	w, err := chunkwalk.New(root, 0, 0, 9999, testResolver(), bounds)
	require.NoError(t, err)

	cells := collectAll(t, w)
	require.Len(t, cells, 4*16*16)
}

func buildLegacySection(y int8, blocks nbt.TagByteArray, nibbles nbt.TagByteArray) nbt.Tag {
	sec := nbt.NewCompound()
	sec.Set("Y", nbt.TagByte(y))
	sec.Set("Blocks", blocks)
	sec.Set("Data", nibbles)
	return sec
}

func TestLegacySectionUsesDataValueForVariant(t *testing.T) {
	// Cell 0 is id 1 (stone) data 0 -> stone; cell 1 is id 1 data 3 ->
	// diorite, a genuinely distinct block sharing the same numeric id.
	blocks := make(nbt.TagByteArray, 4096)
	blocks[0] = 1
	blocks[1] = 1
	nibbles := make(nbt.TagByteArray, 2048)
	nibbles[0] = 3 << 4 // cell 1's nibble (high) = 3, cell 0's (low) = 0

	sec := buildLegacySection(0, blocks, nibbles)
	root := buildChunkRoot([]nbt.Tag{sec})

	res := resolver.New(resolver.Catalog{
		ByName: map[string]uint16{
			"minecraft:stone":   19,
			"minecraft:diorite": 20,
		},
	})
	w, err := chunkwalk.New(root, 0, 0, 100, res, nil)
	require.NoError(t, err)
	cells := collectAll(t, w)

	require.Len(t, cells, 2)
	require.Equal(t, uint16(19), cells[0].ID)
	require.Equal(t, uint16(20), cells[1].ID)
}

func TestMissingSectionListIsError(t *testing.T) {
	root := nbt.NewCompound()
	_, err := chunkwalk.New(root, 0, 0, 9999, testResolver(), nil)
	require.Error(t, err)
}
