package schematic_test

import (
	"testing"

	"github.com/emmanuelvlad/mcworld2json/internal/nbt"
	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
	"github.com/emmanuelvlad/mcworld2json/internal/schematic"
	"github.com/stretchr/testify/require"
)

func testResolver() *resolver.Resolver {
	return resolver.New(resolver.Catalog{
		ByName: map[string]uint16{
			"minecraft:stone": 19,
		},
	})
}

func collectAll(t *testing.T, w *schematic.Walker) []schematic.Cell {
	t.Helper()
	var cells []schematic.Cell
	for {
		c, ok, err := w.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		cells = append(cells, c)
	}
	return cells
}

func encodeVarints(values []int) nbt.TagByteArray {
	var out []byte
	for _, v := range values {
		for {
			b := byte(v & 0x7F)
			v >>= 7
			if v != 0 {
				b |= 0x80
			}
			out = append(out, b)
			if v == 0 {
				break
			}
		}
	}
	arr := make(nbt.TagByteArray, len(out))
	for i, b := range out {
		arr[i] = int8(b)
	}
	return arr
}

func TestDecodeSpongeV2(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("Width", nbt.TagShort(2))
	root.Set("Height", nbt.TagShort(1))
	root.Set("Length", nbt.TagShort(1))

	palette := nbt.NewCompound()
	palette.Set("minecraft:air", nbt.TagInt(0))
	palette.Set("minecraft:stone", nbt.TagInt(1))
	root.Set("Palette", palette)

	root.Set("BlockData", encodeVarints([]int{0, 1}))

	w, err := schematic.Decode(root, testResolver())
	require.NoError(t, err)
	cells := collectAll(t, w)
	require.Len(t, cells, 1)
	require.Equal(t, uint16(19), cells[0].ID)
	require.Equal(t, 1, cells[0].X)
}

func TestDecodeSpongeV3Aligned(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("Width", nbt.TagShort(1))
	root.Set("Height", nbt.TagShort(1))
	root.Set("Length", nbt.TagShort(2))

	blocks := nbt.NewCompound()
	palette := nbt.NewCompound()
	palette.Set("minecraft:air", nbt.TagInt(0))
	palette.Set("minecraft:stone", nbt.TagInt(1))
	blocks.Set("Palette", palette)

	// 2 cells, 1 bit per entry (2-entry palette): values [1,0]
	word := uint64(1) // bit0=1 (stone), bit1=0 (air)
	blocks.Set("Data", nbt.TagLongArray{int64(word)})
	root.Set("Blocks", blocks)

	w, err := schematic.Decode(root, testResolver())
	require.NoError(t, err)
	cells := collectAll(t, w)
	require.Len(t, cells, 1)
	require.Equal(t, uint16(19), cells[0].ID)
}

func buildLitematicaRoot(size [3]int32, paletteNames []string, indices []int, bitsPerEntry int) *nbt.Compound {
	root := nbt.NewCompound()
	regions := nbt.NewCompound()
	region := nbt.NewCompound()

	sizeC := nbt.NewCompound()
	sizeC.Set("x", nbt.TagInt(size[0]))
	sizeC.Set("y", nbt.TagInt(size[1]))
	sizeC.Set("z", nbt.TagInt(size[2]))
	region.Set("Size", sizeC)

	items := make([]nbt.Tag, len(paletteNames))
	for i, name := range paletteNames {
		c := nbt.NewCompound()
		c.Set("Name", nbt.TagString(name))
		items[i] = c
	}
	region.Set("BlockStatePalette", nbt.TagList{ElemKind: nbt.KindCompound, Items: items})

	if len(paletteNames) > 1 {
		perWord := 64 / bitsPerEntry
		wordCount := (len(indices) + perWord - 1) / perWord
		words := make([]uint64, wordCount)
		for i, idx := range indices {
			bitIdx := i * bitsPerEntry
			wordIdx := bitIdx / 64
			bitOffset := uint(bitIdx % 64)
			words[wordIdx] |= uint64(idx) << bitOffset
			if bitOffset+uint(bitsPerEntry) > 64 && wordIdx+1 < len(words) {
				words[wordIdx+1] |= uint64(idx) >> (64 - bitOffset)
			}
		}
		longs := make(nbt.TagLongArray, len(words))
		for i, w := range words {
			longs[i] = int64(w)
		}
		region.Set("BlockStates", longs)
	}

	regions.Set("r1", region)
	root.Set("Regions", regions)
	return root
}

func TestDecodeLitematicaDense(t *testing.T) {
	// 2x1x1 region, palette [air, stone], dense packing, 2 bits/entry.
	root := buildLitematicaRoot([3]int32{2, 1, 1}, []string{"minecraft:air", "minecraft:stone"}, []int{0, 1}, 2)

	w, err := schematic.Decode(root, testResolver())
	require.NoError(t, err)
	cells := collectAll(t, w)
	require.Len(t, cells, 1)
	require.Equal(t, uint16(19), cells[0].ID)
	require.Equal(t, 1, cells[0].X)
}

func TestDecodeLitematicaNegativeSizeMirrored(t *testing.T) {
	root := buildLitematicaRoot([3]int32{-1, 1, 1}, []string{"minecraft:stone"}, []int{0}, 2)

	w, err := schematic.Decode(root, testResolver())
	require.NoError(t, err)
	require.True(t, w.Mirrored().X)
	require.Equal(t, 1, w.Dimensions().Width)

	cells := collectAll(t, w)
	require.Len(t, cells, 1)
}

func TestDecodeUnsupportedShape(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("Nonsense", nbt.TagByte(1))
	_, err := schematic.Decode(root, testResolver())
	require.Error(t, err)
	var unsupported *schematic.UnsupportedSchematicError
	require.ErrorAs(t, err, &unsupported)
}

func TestDecodeClassicSchematic(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("Width", nbt.TagShort(1))
	root.Set("Height", nbt.TagShort(1))
	root.Set("Length", nbt.TagShort(1))
	root.Set("Blocks", nbt.TagByteArray{1}) // id 1 = stone
	root.Set("Data", nbt.TagByteArray{0})

	w, err := schematic.Decode(root, testResolver())
	require.NoError(t, err)
	cells := collectAll(t, w)
	require.Len(t, cells, 1)
	require.Equal(t, uint16(19), cells[0].ID)
}

func TestDecodeClassicSizeMismatchIsUnsupported(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("Width", nbt.TagShort(2))
	root.Set("Height", nbt.TagShort(1))
	root.Set("Length", nbt.TagShort(1))
	root.Set("Blocks", nbt.TagByteArray{1})
	root.Set("Data", nbt.TagByteArray{0})

	_, err := schematic.Decode(root, testResolver())
	require.Error(t, err)
}
