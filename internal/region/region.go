// Package region decodes the Anvil region-file container (.mca): an
// 8 KiB header (1024 3-byte-offset+1-byte-sector-count location
// entries, followed by a 1024-entry timestamp table this package does
// not need and ignores), followed by chunk payloads framed as
// [4-byte length][1-byte compression method][compressed bytes].
package region

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/emmanuelvlad/mcworld2json/internal/byteio"
	"github.com/emmanuelvlad/mcworld2json/internal/nbt"
	"github.com/emmanuelvlad/mcworld2json/internal/streamdecomp"
)

const (
	sectorSize   = 4096
	headerBytes  = 2 * sectorSize
	regionWidth  = 32
	maxChunkSize = 16 * 1024 * 1024
)

// BadRegionFilenameError reports a region filename that doesn't match
// the `r.<x>.<z>.mca` convention.
type BadRegionFilenameError struct {
	Name string
}

func (e *BadRegionFilenameError) Error() string {
	return fmt.Sprintf("region filename %q doesn't match r.<x>.<z>.mca", e.Name)
}

// BadRegionHeaderError reports a file too short to hold the 8 KiB
// header, or a location-table entry pointing outside the file.
type BadRegionHeaderError struct {
	Reason string
}

func (e *BadRegionHeaderError) Error() string {
	return fmt.Sprintf("bad region header: %s", e.Reason)
}

// ChunkError reports a failure decoding one chunk; callers should log
// and skip rather than abort the whole region.
type ChunkError struct {
	ChunkX, ChunkZ int
	Err            error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk (%d,%d): %v", e.ChunkX, e.ChunkZ, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

var filenameRE = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseFilename extracts the region coordinates from a `r.<x>.<z>.mca`
// name.
func ParseFilename(name string) (rx, rz int, err error) {
	m := filenameRE.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, &BadRegionFilenameError{Name: name}
	}
	rx, _ = strconv.Atoi(m[1])
	rz, _ = strconv.Atoi(m[2])
	return rx, rz, nil
}

type location struct {
	sectorOffset uint32
	sectorCount  uint8
}

// Region wraps a region file's raw bytes plus its parsed location
// table. It never copies the input buffer.
type Region struct {
	data      []byte
	locations [regionWidth * regionWidth]location
	RX, RZ    int
}

// Open parses a region file's header from data. data is retained, not
// copied.
func Open(data []byte, rx, rz int) (*Region, error) {
	if len(data) < headerBytes {
		return nil, &BadRegionHeaderError{Reason: fmt.Sprintf("file is %d bytes, need at least %d", len(data), headerBytes)}
	}
	r := &Region{data: data, RX: rx, RZ: rz}
	br := byteio.New(data)
	for i := 0; i < regionWidth*regionWidth; i++ {
		packed, err := br.Uint32()
		if err != nil {
			return nil, &BadRegionHeaderError{Reason: err.Error()}
		}
		r.locations[i] = location{
			sectorOffset: packed >> 8,
			sectorCount:  uint8(packed & 0xFF),
		}
	}
	return r, nil
}

// chunkIndex maps local chunk coordinates (0-31) to a location-table
// slot.
func chunkIndex(localX, localZ int) int {
	return localX + localZ*regionWidth
}

// HasChunk reports whether local chunk (x,z) (each in 0-31) has any
// data in this region file.
func (r *Region) HasChunk(localX, localZ int) bool {
	if localX < 0 || localX >= regionWidth || localZ < 0 || localZ >= regionWidth {
		return false
	}
	loc := r.locations[chunkIndex(localX, localZ)]
	return loc.sectorOffset != 0 && loc.sectorCount != 0
}

// ChunkPos identifies a present chunk by its local, region-relative
// coordinates.
type ChunkPos struct {
	LocalX, LocalZ int
}

// IterChunks returns the local coordinates of every chunk present in
// the region's location table, in location-table order, as one slice
// built from the header alone; it never decodes chunk payloads itself.
func (r *Region) IterChunks() []ChunkPos {
	var out []ChunkPos
	for z := 0; z < regionWidth; z++ {
		for x := 0; x < regionWidth; x++ {
			if r.HasChunk(x, z) {
				out = append(out, ChunkPos{LocalX: x, LocalZ: z})
			}
		}
	}
	return out
}

// LoadChunkNBT reads, decompresses, and NBT-decodes the chunk at local
// coordinates (x,z). Returns (nil, nil) if absent.
func (r *Region) LoadChunkNBT(localX, localZ int) (*nbt.Compound, error) {
	if !r.HasChunk(localX, localZ) {
		return nil, nil
	}
	loc := r.locations[chunkIndex(localX, localZ)]
	start := int(loc.sectorOffset) * sectorSize
	maxLen := int(loc.sectorCount) * sectorSize

	if start+5 > len(r.data) {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: fmt.Errorf("chunk header past end of file")}
	}

	br := byteio.New(r.data[start:])
	payloadLen, err := br.Uint32()
	if err != nil {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: err}
	}
	if int(payloadLen) > maxLen-4 || int(payloadLen) > maxChunkSize {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: fmt.Errorf("payload length %d exceeds sector allocation", payloadLen)}
	}
	methodByte, err := br.Byte()
	if err != nil {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: err}
	}
	payload, err := br.Bytes(int(payloadLen) - 1)
	if err != nil {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: err}
	}

	raw, err := streamdecomp.ByMethod(streamdecomp.Method(methodByte), payload, maxChunkSize)
	if err != nil {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: err}
	}

	_, root, err := nbt.Decode(raw)
	if err != nil {
		return nil, &ChunkError{ChunkX: localX, ChunkZ: localZ, Err: err}
	}
	return root, nil
}

// WorldChunkCoords converts this region's local (x,z) to world-space
// chunk coordinates.
func (r *Region) WorldChunkCoords(localX, localZ int) (int, int) {
	return r.RX*regionWidth + localX, r.RZ*regionWidth + localZ
}
