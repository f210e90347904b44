// Package chunkwalk locates a chunk's section list across the five
// historical NBT paths, decodes each section's palette and packed
// block-state data (or the pre-1.13 legacy byte arrays), and yields
// resolved, air-elided, optionally-AABB-clipped world cells.
package chunkwalk

import (
	"fmt"
	"strings"

	"github.com/emmanuelvlad/mcworld2json/internal/nbt"
	"github.com/emmanuelvlad/mcworld2json/internal/packedarray"
	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
)

// sectionListPaths are tried in order; the first present wins. Paths
// are dotted relative to the chunk root compound.
var sectionListPaths = []string{
	"sections",
	"Sections",
	"Level.Sections",
	"Data.Sections",
	"Data.sections",
}

// denseDataVersionCutoff is the first DataVersion using the word-aligned
// packed long layout (the 1.16 change of block-state storage); versions
// below it use the dense layout.
const denseDataVersionCutoff = 2504

// UnsupportedSectionLayoutError reports a section with neither a
// Palette/BlockStates pair nor legacy Blocks/Data byte arrays.
type UnsupportedSectionLayoutError struct {
	SectionY int
}

func (e *UnsupportedSectionLayoutError) Error() string {
	return fmt.Sprintf("section Y=%d has no recognized block-state layout", e.SectionY)
}

// AABB is an inclusive axis-aligned bounding box in world coordinates.
type AABB struct {
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// Contains reports whether (x,y,z) falls within the box, inclusive.
func (b *AABB) Contains(x, y, z int) bool {
	if b == nil {
		return true
	}
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY &&
		z >= b.MinZ && z <= b.MaxZ
}

// Cell is one resolved, non-air world block.
type Cell struct {
	X, Y, Z int
	ID      uint16
}

// Walker is a pull-based iterator over one chunk's resolved cells. It
// decodes and discards one section at a time; no whole-chunk cell slice
// is ever materialized.
type Walker struct {
	chunkX, chunkZ int
	sectionList    nbt.TagList
	dataVersion    int32
	res            *resolver.Resolver
	bounds         *AABB

	secIdx   int
	indices  []int
	palette  []string
	sectionY int
	cellIdx  int
}

// New builds a Walker over chunkRoot. chunkX/chunkZ come from the
// region's location-table position (authoritative over any xPos/zPos
// stored in the NBT, per spec). dataVersion selects dense vs aligned
// packing for data versions below/at-or-above 2504.
func New(chunkRoot *nbt.Compound, chunkX, chunkZ int, dataVersion int32, res *resolver.Resolver, bounds *AABB) (*Walker, error) {
	list, err := locateSectionList(chunkRoot)
	if err != nil {
		return nil, err
	}
	return &Walker{
		chunkX:      chunkX,
		chunkZ:      chunkZ,
		sectionList: list,
		dataVersion: dataVersion,
		res:         res,
		bounds:      bounds,
	}, nil
}

func locateSectionList(root *nbt.Compound) (nbt.TagList, error) {
	for _, path := range sectionListPaths {
		tag, ok := root.Path(path)
		if !ok {
			continue
		}
		list, err := nbt.AsList(tag)
		if err != nil {
			continue
		}
		return list, nil
	}
	return nbt.TagList{}, fmt.Errorf("chunk has no recognized section list path")
}

// ChunkXZ returns the world-chunk coordinates this walker was built
// with (the region's location-table position, not any NBT xPos/zPos).
func (w *Walker) ChunkXZ() (int, int) { return w.chunkX, w.chunkZ }

// Next returns the next resolved, non-air, in-bounds cell. ok is false
// once the chunk is exhausted.
func (w *Walker) Next() (Cell, bool, error) {
	for {
		if w.indices == nil {
			if w.secIdx >= len(w.sectionList.Items) {
				return Cell{}, false, nil
			}
			secTag := w.sectionList.Items[w.secIdx]
			w.secIdx++

			sec, err := nbt.AsCompound(secTag)
			if err != nil {
				return Cell{}, false, err
			}
			if err := w.loadSection(sec); err != nil {
				return Cell{}, false, err
			}
			if w.indices == nil {
				continue
			}
			w.cellIdx = 0
		}

		for w.cellIdx < len(w.indices) {
			i := w.cellIdx
			w.cellIdx++

			idx := w.indices[i]
			if idx < 0 || idx >= len(w.palette) {
				return Cell{}, false, &packedarray.PackedIndexOutOfRangeError{Index: idx, Cell: i, PaletteLen: len(w.palette)}
			}
			name := w.palette[idx]
			if resolver.IsAir(name) {
				continue
			}

			x, y, z := cellCoords(i)
			wx := w.chunkX*16 + x
			wy := w.sectionY*16 + y
			wz := w.chunkZ*16 + z
			if !w.bounds.Contains(wx, wy, wz) {
				continue
			}

			id := w.res.Resolve(name, resolver.Position{X: wx, Y: wy, Z: wz})
			return Cell{X: wx, Y: wy, Z: wz, ID: id}, true, nil
		}
		w.indices = nil
	}
}

// cellCoords decodes a section-local cell index in (y,z,x) iteration
// order back into (x,y,z), per spec.md §4.4's `y*256 + z*16 + x`
// contract.
func cellCoords(i int) (x, y, z int) {
	x = i & 15
	z = (i >> 4) & 15
	y = (i >> 8) & 15
	return
}

func (w *Walker) loadSection(sec *nbt.Compound) error {
	y, err := sectionY(sec)
	if err != nil {
		return err
	}
	w.sectionY = y

	paletteTag, hasPalette := sec.Get("Palette")
	if hasPalette {
		return w.loadPalettedSection(sec, paletteTag)
	}

	blocksTag, hasBlocks := sec.Get("Blocks")
	dataTag, hasData := sec.Get("Data")
	if hasBlocks && hasData {
		return w.loadLegacySection(blocksTag, dataTag)
	}

	return &UnsupportedSectionLayoutError{SectionY: y}
}

func sectionY(sec *nbt.Compound) (int, error) {
	tag, ok := sec.Get("Y")
	if !ok {
		return 0, fmt.Errorf("section missing Y")
	}
	switch v := tag.(type) {
	case nbt.TagByte:
		return int(v), nil
	case nbt.TagInt:
		return int(v), nil
	default:
		return 0, fmt.Errorf("section Y has unexpected kind %d", tag.Kind())
	}
}

func (w *Walker) loadPalettedSection(sec *nbt.Compound, paletteTag nbt.Tag) error {
	paletteList, err := nbt.AsList(paletteTag)
	if err != nil {
		return err
	}
	palette := make([]string, len(paletteList.Items))
	for i, item := range paletteList.Items {
		c, err := nbt.AsCompound(item)
		if err != nil {
			return err
		}
		name, err := blockStateName(c)
		if err != nil {
			return err
		}
		palette[i] = name
	}
	w.palette = palette

	if len(palette) == 1 {
		if resolver.IsAir(palette[0]) {
			w.indices = nil
			return nil
		}
		indices := make([]int, 4096)
		w.indices = indices
		return nil
	}

	dataTag, ok := sec.Get("BlockStates")
	if !ok {
		return fmt.Errorf("section has %d-entry palette but no BlockStates array", len(palette))
	}
	longArray, ok := dataTag.(nbt.TagLongArray)
	if !ok {
		return fmt.Errorf("BlockStates is kind %d, want LongArray", dataTag.Kind())
	}

	bitsPerBlock := packedarray.BitsForPalette(len(palette), 4)
	words := packedarray.Int64sToUint64s(longArray)

	var indices []int
	var decodeErr error
	if w.dataVersion >= denseDataVersionCutoff {
		indices, decodeErr = packedarray.DecodeAligned(words, bitsPerBlock, 4096, len(palette))
	} else {
		indices, decodeErr = packedarray.DecodeDense(words, bitsPerBlock, 4096, len(palette))
	}
	if decodeErr != nil {
		return decodeErr
	}
	w.indices = indices
	return nil
}

func (w *Walker) loadLegacySection(blocksTag, dataTag nbt.Tag) error {
	blocks, ok := blocksTag.(nbt.TagByteArray)
	if !ok {
		return fmt.Errorf("Blocks is kind %d, want ByteArray", blocksTag.Kind())
	}
	nibbles, ok := dataTag.(nbt.TagByteArray)
	if !ok {
		return fmt.Errorf("Data is kind %d, want ByteArray", dataTag.Kind())
	}
	if len(blocks) != 4096 {
		return fmt.Errorf("legacy Blocks array has %d entries, want 4096", len(blocks))
	}
	if len(nibbles) != 2048 {
		return fmt.Errorf("legacy Data array has %d entries, want 2048 (nibble-packed)", len(nibbles))
	}

	indices := make([]int, 4096)
	palette := make([]string, 0, 16)
	byName := make(map[string]int, 16)

	for i := 0; i < 4096; i++ {
		id := blocks[i]
		data := nibbleAt(nibbles, i)
		name := legacyBlockName(id, data)
		idx, ok := byName[name]
		if !ok {
			idx = len(palette)
			palette = append(palette, name)
			byName[name] = idx
		}
		indices[i] = idx
	}

	w.palette = palette
	w.indices = indices
	return nil
}

// nibbleAt extracts the 4-bit data value for cell i from the legacy
// Data byte array, two nibbles per byte, low nibble first.
func nibbleAt(nibbles nbt.TagByteArray, i int) int8 {
	b := nibbles[i/2]
	if i%2 == 0 {
		return int8(b & 0x0F)
	}
	return int8((b >> 4) & 0x0F)
}

// blockStateName builds a source block-name string ("name" or
// "name[k=v,k=v]") from one Palette entry compound.
func blockStateName(c *nbt.Compound) (string, error) {
	nameTag, ok := c.Get("Name")
	if !ok {
		return "", fmt.Errorf("palette entry missing Name")
	}
	name, ok := nameTag.(nbt.TagString)
	if !ok {
		return "", fmt.Errorf("palette Name is kind %d, want String", nameTag.Kind())
	}

	propsTag, ok := c.Get("Properties")
	if !ok {
		return string(name), nil
	}
	props, err := nbt.AsCompound(propsTag)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(string(name))
	sb.WriteByte('[')
	for i, key := range props.Names() {
		if i > 0 {
			sb.WriteByte(',')
		}
		v, _ := props.Get(key)
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(propValueString(v))
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

func propValueString(t nbt.Tag) string {
	if s, ok := t.(nbt.TagString); ok {
		return string(s)
	}
	return fmt.Sprintf("%v", t)
}
