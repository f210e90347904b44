package chunkwalk

// legacyBlockNames maps the pre-flattening (pre-1.13) numeric block id
// to its modern name, for ids whose data-value nibble only selects a
// facing/open-closed state the resolver's fallback table already
// collapses, or whose variants aren't in the representative subset
// below. This is a representative subset of the ~256-entry table, not
// exhaustive -- pre-1.13 support is best-effort per the walker's legacy
// fallback policy.
var legacyBlockNames = map[uint8]string{
	0:   "minecraft:air",
	1:   "minecraft:stone",
	2:   "minecraft:grass_block",
	3:   "minecraft:dirt",
	4:   "minecraft:cobblestone",
	5:   "minecraft:oak_planks",
	7:   "minecraft:bedrock",
	8:   "minecraft:water",
	9:   "minecraft:water",
	10:  "minecraft:lava",
	11:  "minecraft:lava",
	12:  "minecraft:sand",
	13:  "minecraft:gravel",
	14:  "minecraft:gold_ore",
	15:  "minecraft:iron_ore",
	16:  "minecraft:coal_ore",
	17:  "minecraft:oak_log",
	18:  "minecraft:oak_leaves",
	20:  "minecraft:glass",
	24:  "minecraft:sandstone",
	35:  "minecraft:white_wool",
	41:  "minecraft:gold_block",
	42:  "minecraft:iron_block",
	45:  "minecraft:bricks",
	48:  "minecraft:mossy_cobblestone",
	49:  "minecraft:obsidian",
	56:  "minecraft:diamond_ore",
	57:  "minecraft:diamond_block",
	58:  "minecraft:crafting_table",
	60:  "minecraft:farmland",
	61:  "minecraft:furnace",
	64:  "minecraft:oak_door",
	79:  "minecraft:ice",
	80:  "minecraft:snow_block",
	82:  "minecraft:clay",
	84:  "minecraft:jukebox",
	86:  "minecraft:pumpkin",
	87:  "minecraft:netherrack",
	89:  "minecraft:glowstone",
	98:  "minecraft:stone_bricks",
	103: "minecraft:melon",
	112: "minecraft:nether_bricks",
	121: "minecraft:end_stone",
	159: "minecraft:white_terracotta",
	169: "minecraft:sea_lantern",
}

// legacyVariantKey keys a numeric id plus its 4-bit data value, for
// blocks where the data value selects a genuinely distinct block
// (stone's granite/diorite/andesite variants, wool/terracotta/log/plank
// species) rather than a facing or open/closed state.
type legacyVariantKey struct {
	ID   int8
	Data int8
}

// legacyVariantNames covers the ids whose data value changes the block
// identity, not just its orientation. A representative subset of each
// id's 16 data values, not exhaustive -- see legacyBlockNames' doc.
var legacyVariantNames = map[legacyVariantKey]string{
	{ID: 1, Data: 0}: "minecraft:stone",
	{ID: 1, Data: 1}: "minecraft:granite",
	{ID: 1, Data: 2}: "minecraft:polished_granite",
	{ID: 1, Data: 3}: "minecraft:diorite",
	{ID: 1, Data: 4}: "minecraft:polished_diorite",
	{ID: 1, Data: 5}: "minecraft:andesite",
	{ID: 1, Data: 6}: "minecraft:polished_andesite",

	{ID: 5, Data: 0}: "minecraft:oak_planks",
	{ID: 5, Data: 1}: "minecraft:spruce_planks",
	{ID: 5, Data: 2}: "minecraft:birch_planks",
	{ID: 5, Data: 3}: "minecraft:jungle_planks",
	{ID: 5, Data: 4}: "minecraft:acacia_planks",
	{ID: 5, Data: 5}: "minecraft:dark_oak_planks",

	{ID: 17, Data: 0}: "minecraft:oak_log",
	{ID: 17, Data: 1}: "minecraft:spruce_log",
	{ID: 17, Data: 2}: "minecraft:birch_log",
	{ID: 17, Data: 3}: "minecraft:jungle_log",

	{ID: 35, Data: 0}:  "minecraft:white_wool",
	{ID: 35, Data: 1}:  "minecraft:orange_wool",
	{ID: 35, Data: 2}:  "minecraft:magenta_wool",
	{ID: 35, Data: 3}:  "minecraft:light_blue_wool",
	{ID: 35, Data: 4}:  "minecraft:yellow_wool",
	{ID: 35, Data: 5}:  "minecraft:lime_wool",
	{ID: 35, Data: 6}:  "minecraft:pink_wool",
	{ID: 35, Data: 7}:  "minecraft:gray_wool",
	{ID: 35, Data: 8}:  "minecraft:light_gray_wool",
	{ID: 35, Data: 9}:  "minecraft:cyan_wool",
	{ID: 35, Data: 10}: "minecraft:purple_wool",
	{ID: 35, Data: 11}: "minecraft:blue_wool",
	{ID: 35, Data: 12}: "minecraft:brown_wool",
	{ID: 35, Data: 13}: "minecraft:green_wool",
	{ID: 35, Data: 14}: "minecraft:red_wool",
	{ID: 35, Data: 15}: "minecraft:black_wool",
}

// legacyBlockName resolves a numeric pre-flattening id plus its 4-bit
// data value to a block name. Ids with data-value-sensitive variants
// are looked up in legacyVariantNames first; everything else falls back
// to the id-only table, and unknown ids flow through to a generic
// unknown-block marker that the resolver's own unmapped-log/fallback
// path picks up rather than failing the section.
func legacyBlockName(id, data int8) string {
	if name, ok := legacyVariantNames[legacyVariantKey{ID: id, Data: data}]; ok {
		return name
	}
	if name, ok := legacyBlockNames[uint8(id)]; ok {
		return name
	}
	return "minecraft:unknown_legacy_block"
}
