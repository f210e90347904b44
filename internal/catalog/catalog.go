// Package catalog loads and validates the target block-type catalog:
// the configuration file naming every id the output JSON is allowed to
// reference, plus the source-name -> id mapping the resolver consults.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
)

// BlockType is one entry of the catalog's blockTypes list.
type BlockType struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	TextureURI string `json:"textureUri"`
}

// BlockMapping is one entry of the catalog's blocks map.
type BlockMapping struct {
	ID           int    `json:"id"`
	HytopiaBlock string `json:"hytopiaBlock"`
	TextureURI   string `json:"textureUri"`
}

// file is the on-disk JSON shape.
type file struct {
	BlockTypes []BlockType             `json:"blockTypes"`
	Blocks     map[string]BlockMapping `json:"blocks"`
}

// MissingError reports a catalog file that couldn't be read or parsed.
type MissingError struct {
	Path string
	Err  error
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("catalog %q: %v", e.Path, e.Err)
}

func (e *MissingError) Unwrap() error { return e.Err }

// DuplicateIDError reports two blockTypes entries sharing an id.
type DuplicateIDError struct {
	ID int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("catalog blockTypes has duplicate id %d", e.ID)
}

// Catalog is the parsed, validated configuration: every blockTypes
// entry (the output document echoes back only the ones used) plus the
// name->id mapping.
type Catalog struct {
	BlockTypes []BlockType
	byID       map[int]BlockType
	blocks     map[string]BlockMapping
}

// Parse decodes and validates raw catalog JSON.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &MissingError{Path: "<memory>", Err: err}
	}

	byID := make(map[int]BlockType, len(f.BlockTypes))
	for _, bt := range f.BlockTypes {
		if _, dup := byID[bt.ID]; dup {
			return nil, &DuplicateIDError{ID: bt.ID}
		}
		byID[bt.ID] = bt
	}

	return &Catalog{BlockTypes: f.BlockTypes, byID: byID, blocks: f.Blocks}, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingError{Path: path, Err: err}
	}
	cat, err := Parse(data)
	if err != nil {
		if me, ok := err.(*MissingError); ok {
			me.Path = path
		}
		return nil, err
	}
	return cat, nil
}

// ResolverCatalog builds a resolver.Catalog from this catalog's
// name->id mapping plus the caller-supplied ordered fallback table and
// default id (the catalog file itself carries no fallback rules; the
// caller passes them in).
func (c *Catalog) ResolverCatalog(fallbacks []resolver.FallbackRule, defaultID uint16) resolver.Catalog {
	byName := make(map[string]uint16, len(c.blocks))
	for name, mapping := range c.blocks {
		byName[name] = uint16(mapping.ID)
	}
	return resolver.Catalog{
		ByName:    byName,
		Fallbacks: fallbacks,
		DefaultID: defaultID,
	}
}

// BlockTypeByID looks up a catalog blockTypes entry for echoing into
// the output document's blockTypes subset.
func (c *Catalog) BlockTypeByID(id uint16) (BlockType, bool) {
	bt, ok := c.byID[int(id)]
	return bt, ok
}
