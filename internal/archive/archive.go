// Package archive locates level.dat and enumerates region files inside
// a ZIP-packaged Minecraft world save.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/emmanuelvlad/mcworld2json/internal/nbt"
	"github.com/emmanuelvlad/mcworld2json/internal/region"
	"github.com/emmanuelvlad/mcworld2json/internal/streamdecomp"
)

// levelDatCandidates are checked, in order, before falling back to a
// suffix scan over every entry.
var levelDatCandidates = []string{"level.dat", "world/level.dat", "saves/level.dat"}

// maxLevelDatSize bounds level.dat decompression the same way region
// chunk decompression is bounded.
const maxLevelDatSize = 16 << 20

// World wraps an opened ZIP archive with its located level.dat path
// and world base directory.
type World struct {
	zr        *zip.Reader
	basePath  string // "" for a root-level world, else "dir/" with trailing slash
	levelPath string
}

// Open reads data as a ZIP archive and locates level.dat within it.
func Open(data []byte) (*World, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	levelPath, err := findLevelDat(zr)
	if err != nil {
		return nil, err
	}

	base := ""
	if i := strings.LastIndexByte(levelPath, '/'); i >= 0 {
		base = levelPath[:i+1]
	}

	return &World{zr: zr, basePath: base, levelPath: levelPath}, nil
}

func findLevelDat(zr *zip.Reader) (string, error) {
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	for _, candidate := range levelDatCandidates {
		if _, ok := byName[candidate]; ok {
			return candidate, nil
		}
	}

	for _, f := range zr.File {
		if f.Name == "level.dat" || strings.HasSuffix(f.Name, "/level.dat") {
			return f.Name, nil
		}
	}

	return "", fmt.Errorf("no level.dat found in archive")
}

// LevelDat reads, decompresses, and NBT-decodes level.dat.
func (w *World) LevelDat() (*nbt.Compound, error) {
	data, err := w.readEntry(w.levelPath)
	if err != nil {
		return nil, err
	}
	inflated, _, err := streamdecomp.AutoDetect(data, maxLevelDatSize)
	if err != nil {
		return nil, fmt.Errorf("decompressing level.dat: %w", err)
	}
	_, root, err := nbt.Decode(inflated)
	if err != nil {
		return nil, fmt.Errorf("decoding level.dat: %w", err)
	}
	return root, nil
}

// LevelMetadata is the subset of level.dat's Data compound this tool
// surfaces.
type LevelMetadata struct {
	LevelName   string
	VersionName string
	DataVersion int32
	SpawnX      int32
	SpawnY      int32
	SpawnZ      int32
}

// Metadata extracts the standard Data.{LevelName,Version.Name,
// DataVersion,SpawnX/Y/Z} fields from a decoded level.dat root, falling
// back to a recursive key search if the standard path is absent.
func Metadata(root *nbt.Compound) LevelMetadata {
	var meta LevelMetadata

	dataTag, ok := root.Get("Data")
	data, isCompound := dataTag.(*nbt.Compound)
	if ok && isCompound {
		if s, ok := stringField(data, "LevelName"); ok {
			meta.LevelName = s
		}
		if versionTag, ok := data.Get("Version"); ok {
			if versionCompound, err := nbt.AsCompound(versionTag); err == nil {
				if s, ok := stringField(versionCompound, "Name"); ok {
					meta.VersionName = s
				}
			}
		}
		if v, ok := intField(data, "DataVersion"); ok {
			meta.DataVersion = v
		}
		if v, ok := intField(data, "SpawnX"); ok {
			meta.SpawnX = v
		}
		if v, ok := intField(data, "SpawnY"); ok {
			meta.SpawnY = v
		}
		if v, ok := intField(data, "SpawnZ"); ok {
			meta.SpawnZ = v
		}
		return meta
	}

	// Fall back to a recursive search for partial/non-standard dumps.
	if s, ok := findStringRecursive(root, "LevelName", 0); ok {
		meta.LevelName = s
	}
	if v, ok := findIntRecursive(root, "DataVersion", 0); ok {
		meta.DataVersion = v
	}
	return meta
}

func stringField(c *nbt.Compound, name string) (string, bool) {
	tag, ok := c.Get(name)
	if !ok {
		return "", false
	}
	s, ok := tag.(nbt.TagString)
	return string(s), ok
}

func intField(c *nbt.Compound, name string) (int32, bool) {
	tag, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	switch v := tag.(type) {
	case nbt.TagInt:
		return int32(v), true
	case nbt.TagLong:
		return int32(v), true
	default:
		return 0, false
	}
}

const recursionCap = 64

func findStringRecursive(c *nbt.Compound, name string, depth int) (string, bool) {
	if depth > recursionCap {
		return "", false
	}
	if s, ok := stringField(c, name); ok {
		return s, true
	}
	for _, n := range c.Names() {
		tag, _ := c.Get(n)
		if child, ok := tag.(*nbt.Compound); ok {
			if s, found := findStringRecursive(child, name, depth+1); found {
				return s, true
			}
		}
	}
	return "", false
}

func findIntRecursive(c *nbt.Compound, name string, depth int) (int32, bool) {
	if depth > recursionCap {
		return 0, false
	}
	if v, ok := intField(c, name); ok {
		return v, true
	}
	for _, n := range c.Names() {
		tag, _ := c.Get(n)
		if child, ok := tag.(*nbt.Compound); ok {
			if v, found := findIntRecursive(child, name, depth+1); found {
				return v, true
			}
		}
	}
	return 0, false
}

// RegionEntry names one region file found under the world's region
// directories, along with its already-parsed coordinates.
type RegionEntry struct {
	Path   string
	RX, RZ int
}

// regionDirs are checked relative to the world base; DIM0 is the
// overworld's own storage directory in some save layouts.
var regionDirs = []string{"region/", "DIM0/region/"}

// RegionFiles enumerates every `r.<x>.<z>.mca` entry under the world's
// region directories, ignoring anything that doesn't match the naming
// convention.
func (w *World) RegionFiles() []RegionEntry {
	var out []RegionEntry
	for _, dir := range regionDirs {
		prefix := w.basePath + dir
		for _, f := range w.zr.File {
			if !strings.HasPrefix(f.Name, prefix) {
				continue
			}
			name := path.Base(f.Name)
			rx, rz, err := region.ParseFilename(name)
			if err != nil {
				continue
			}
			out = append(out, RegionEntry{Path: f.Name, RX: rx, RZ: rz})
		}
	}
	return out
}

// ReadRegion reads the raw bytes of a region file entry (the caller
// passes them to region.Open).
func (w *World) ReadRegion(entryPath string) ([]byte, error) {
	return w.readEntry(entryPath)
}

func (w *World) readEntry(entryPath string) ([]byte, error) {
	f, err := w.zr.Open(entryPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive entry %q: %w", entryPath, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading archive entry %q: %w", entryPath, err)
	}
	return data, nil
}
