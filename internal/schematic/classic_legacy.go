package schematic

// classicLegacyNames maps classic pre-1.13 numeric block ids to modern
// names, for ids whose data-value byte only selects a facing/open-closed
// state (or isn't covered by classicVariantNames below). Best-effort
// convention, kept as a separate table from chunkwalk's since the two
// components decode distinct file kinds.
var classicLegacyNames = map[int8]string{
	0:  "minecraft:air",
	1:  "minecraft:stone",
	2:  "minecraft:grass_block",
	3:  "minecraft:dirt",
	4:  "minecraft:cobblestone",
	5:  "minecraft:oak_planks",
	7:  "minecraft:bedrock",
	12: "minecraft:sand",
	13: "minecraft:gravel",
	17: "minecraft:oak_log",
	18: "minecraft:oak_leaves",
	20: "minecraft:glass",
	24: "minecraft:sandstone",
	35: "minecraft:white_wool",
	45: "minecraft:bricks",
	49: "minecraft:obsidian",
	98: "minecraft:stone_bricks",
}

// classicVariantKey keys a numeric id plus its data-value byte, for ids
// where the data value selects a genuinely distinct block rather than a
// facing or open/closed state.
type classicVariantKey struct {
	ID   int8
	Data int8
}

// classicVariantNames covers the same id/data-value pairs as
// chunkwalk's legacyVariantNames; kept separate since classic .schematic
// Data is a plain per-block byte, not the region format's nibble-packed
// array.
var classicVariantNames = map[classicVariantKey]string{
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

func legacyNameByID(id, data int8) string {
	if name, ok := classicVariantNames[classicVariantKey{ID: id, Data: data}]; ok {
		return name
	}
	if name, ok := classicLegacyNames[id]; ok {
		return name
	}
	return "minecraft:unknown_legacy_block"
}
