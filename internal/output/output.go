// Package output builds the final coordinate-keyed JSON document from a
// conversion's block map, restricting the emitted block-type catalog to
// the ids actually used.
package output

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/emmanuelvlad/mcworld2json/internal/catalog"
	"github.com/emmanuelvlad/mcworld2json/internal/convert"
)

// Document is the on-disk output shape: a block-type catalog subset
// plus the sparse coordinate -> id map, keyed by comma-joined signed
// decimal coordinates.
type Document struct {
	BlockTypes []catalog.BlockType `json:"blockTypes"`
	Blocks     map[string]int      `json:"blocks"`
}

// Build restricts cat's block types to those ids present in blocks and
// renders the coordinate keys.
func Build(cat *catalog.Catalog, blocks convert.BlockMap) Document {
	used := make(map[uint16]bool, len(blocks))
	out := make(map[string]int, len(blocks))
	for coord, id := range blocks {
		used[id] = true
		out[coordKey(coord)] = int(id)
	}

	var types []catalog.BlockType
	for id := range used {
		if bt, ok := cat.BlockTypeByID(id); ok {
			types = append(types, bt)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })

	return Document{BlockTypes: types, Blocks: out}
}

func coordKey(c [3]int) string {
	return fmt.Sprintf("%d,%d,%d", c[0], c[1], c[2])
}

// Marshal renders doc as UTF-8 JSON with no trailing newline.
func Marshal(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}
