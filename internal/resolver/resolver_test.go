package resolver_test

import (
	"testing"

	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
	"github.com/stretchr/testify/require"
)

func testCatalog() resolver.Catalog {
	return resolver.Catalog{
		ByName: map[string]uint16{
			"minecraft:stone":      19,
			"minecraft:oak_stairs": 42,
		},
		Fallbacks: []resolver.FallbackRule{
			{Substring: "leaves", ID: 15},
			{Substring: "stairs", ID: 43},
		},
		DefaultID: 0,
	}
}

func TestResolveExactMatch(t *testing.T) {
	r := resolver.New(testCatalog())
	id := r.Resolve("minecraft:stone", resolver.Position{})
	require.Equal(t, uint16(19), id)
	require.Nil(t, r.Log().Entries())
}

func TestResolveBlockStateStripped(t *testing.T) {
	r := resolver.New(testCatalog())
	id := r.Resolve("minecraft:oak_stairs[facing=east,half=bottom]", resolver.Position{X: 1, Y: 2, Z: 3})
	require.Equal(t, uint16(42), id)
	// A block-state-stripped hit is still a known block -- the catalog
	// just names it without its properties -- so it must not be logged
	// as unmapped.
	require.Nil(t, r.Log().Entries())
}

func TestResolveFallbackSubstring(t *testing.T) {
	r := resolver.New(testCatalog())
	id := r.Resolve("minecraft:cherry_leaves", resolver.Position{})
	require.Equal(t, uint16(15), id)
	entries := r.Log().Entries()
	require.Equal(t, uint16(15), entries["minecraft:cherry_leaves"].FallbackID)
}

func TestResolveFallbackOrderedFirstMatchWins(t *testing.T) {
	// The name contains both "stair" and the more specific "stairs";
	// "stair" is declared first -- exercise that the first matching
	// rule in order wins, not the most specific.
	catalog := resolver.Catalog{
		Fallbacks: []resolver.FallbackRule{
			{Substring: "stair", ID: 100},
			{Substring: "stairs", ID: 200},
		},
	}
	r := resolver.New(catalog)
	id := r.Resolve("minecraft:weird_stairs_block", resolver.Position{})
	require.Equal(t, uint16(100), id)
}

func TestResolveDefaultID(t *testing.T) {
	catalog := testCatalog()
	catalog.DefaultID = 7
	r := resolver.New(catalog)
	id := r.Resolve("minecraft:totally_unknown", resolver.Position{})
	require.Equal(t, uint16(7), id)
}

func TestResolveSamplePositionsBounded(t *testing.T) {
	r := resolver.New(testCatalog())
	for i := 0; i < 10; i++ {
		r.Resolve("minecraft:cherry_leaves", resolver.Position{X: i})
	}
	e := r.Log().Entries()["minecraft:cherry_leaves"]
	require.Equal(t, 10, e.Count)
	require.Len(t, e.Positions, 5)
}

func TestIsAir(t *testing.T) {
	require.True(t, resolver.IsAir("minecraft:air"))
	require.True(t, resolver.IsAir("minecraft:cave_air"))
	require.True(t, resolver.IsAir("minecraft:void_air"))
	require.False(t, resolver.IsAir("minecraft:stone"))
}
