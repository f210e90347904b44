// Package convert wires the lower-level components together: the
// world-archive pipeline (archive -> region -> chunk walker -> resolver)
// and the schematic pipeline (decompress+NBT -> schematic -> resolver),
// producing the final sparse coordinate->id block map and result
// summary.
package convert

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/emmanuelvlad/mcworld2json/internal/archive"
	"github.com/emmanuelvlad/mcworld2json/internal/chunkwalk"
	"github.com/emmanuelvlad/mcworld2json/internal/nbt"
	"github.com/emmanuelvlad/mcworld2json/internal/region"
	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
	"github.com/emmanuelvlad/mcworld2json/internal/schematic"
	"github.com/emmanuelvlad/mcworld2json/internal/streamdecomp"
	"github.com/sirupsen/logrus"
)

// CancelledError reports cooperative cancellation; per the propagation
// policy, it is always fatal and any partial output must be discarded.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "conversion cancelled" }

// Options configures a conversion run.
type Options struct {
	Bounds  *chunkwalk.AABB
	Workers int // 0 selects runtime.GOMAXPROCS(0)
	Logger  *logrus.Logger
}

func (o Options) workerCount() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

// Result is the JSON-serializable summary returned alongside the block
// map.
type Result struct {
	Success    bool                               `json:"success"`
	BlockCount int                                `json:"block_count"`
	Unmapped   map[string]*resolver.UnmappedEntry `json:"unmapped"`
	WorldName  string                             `json:"world_name,omitempty"`
	Error      string                             `json:"error,omitempty"`
}

// BlockMap is the sparse coordinate -> target-catalog-id mapping; keys
// are raw (x,y,z) triples, serialized to the comma-joined string form
// only at the output-document boundary.
type BlockMap map[[3]int]uint16

// World converts a ZIP-archived world save. Region files are processed
// by a bounded worker pool; within each worker, chunks are processed
// sequentially. Cancellation via ctx is checked between chunks and
// between the cells of a chunk, and is always fatal, discarding partial
// output.
func World(ctx context.Context, zipData []byte, res *resolver.Resolver, opts Options) (*Result, BlockMap, error) {
	w, err := archive.Open(zipData)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil, err
	}

	levelDat, err := w.LevelDat()
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil, err
	}
	meta := archive.Metadata(levelDat)

	entries := w.RegionFiles()
	blockMap := make(BlockMap)
	var mu sync.Mutex
	log := opts.logger()

	sem := make(chan struct{}, opts.workerCount())
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for _, entry := range entries {
		entry := entry
		select {
		case <-ctx.Done():
			errOnce.Do(func() { firstErr = &CancelledError{} })
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := w.ReadRegion(entry.Path)
			if err != nil {
				log.WithFields(logrus.Fields{"region": entry.Path, "reason": err}).Warn("skipping unreadable region file")
				return
			}
			reg, err := region.Open(data, entry.RX, entry.RZ)
			if err != nil {
				log.WithFields(logrus.Fields{"region": entry.Path, "reason": err}).Warn("skipping region with bad header")
				return
			}

			local := make(BlockMap)
			for _, pos := range reg.IterChunks() {
				select {
				case <-ctx.Done():
					errOnce.Do(func() { firstErr = &CancelledError{} })
					return
				default:
				}

				chunkX, chunkZ := reg.WorldChunkCoords(pos.LocalX, pos.LocalZ)
				if opts.Bounds != nil && !chunkInBounds(chunkX, chunkZ, opts.Bounds) {
					continue
				}

				root, err := reg.LoadChunkNBT(pos.LocalX, pos.LocalZ)
				if err != nil {
					log.WithFields(logrus.Fields{
						"region": entry.Path, "chunk_x": chunkX, "chunk_z": chunkZ, "reason": err,
					}).Warn("skipping chunk")
					continue
				}
				if root == nil {
					continue
				}

				walker, err := chunkwalk.New(root, chunkX, chunkZ, meta.DataVersion, res, opts.Bounds)
				if err != nil {
					log.WithFields(logrus.Fields{
						"region": entry.Path, "chunk_x": chunkX, "chunk_z": chunkZ, "reason": err,
					}).Warn("skipping chunk with unrecognized layout")
					continue
				}

				for {
					select {
					case <-ctx.Done():
						errOnce.Do(func() { firstErr = &CancelledError{} })
						return
					default:
					}
					cell, ok, err := walker.Next()
					if err != nil {
						log.WithFields(logrus.Fields{
							"region": entry.Path, "chunk_x": chunkX, "chunk_z": chunkZ, "reason": err,
						}).Warn("chunk decode error, partial cells kept")
						break
					}
					if !ok {
						break
					}
					local[[3]int{cell.X, cell.Y, cell.Z}] = cell.ID
				}
			}

			mu.Lock()
			for k, v := range local {
				blockMap[k] = v
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return &Result{Success: false, Error: firstErr.Error()}, nil, firstErr
	}

	return &Result{
		Success:    true,
		BlockCount: len(blockMap),
		Unmapped:   res.Log().Entries(),
		WorldName:  meta.LevelName,
	}, blockMap, nil
}

// floorDiv divides a by b rounding toward negative infinity, unlike Go's
// / which truncates toward zero -- needed here since world coordinates
// in bounds can be negative and non-16-aligned.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func chunkInBounds(chunkX, chunkZ int, bounds *chunkwalk.AABB) bool {
	minCX, maxCX := floorDiv(bounds.MinX, 16), floorDiv(bounds.MaxX, 16)
	minCZ, maxCZ := floorDiv(bounds.MinZ, 16), floorDiv(bounds.MaxZ, 16)
	return chunkX >= minCX && chunkX <= maxCX && chunkZ >= minCZ && chunkZ <= maxCZ
}

// Schematic converts a standalone .litematic or .schem(atic) file
// (gzipped NBT, ZIP-free).
func Schematic(data []byte, res *resolver.Resolver) (*Result, BlockMap, error) {
	inflated, _, err := streamdecomp.AutoDetect(data, 16<<20)
	if err != nil {
		err = fmt.Errorf("decompressing schematic: %w", err)
		return &Result{Success: false, Error: err.Error()}, nil, err
	}

	_, root, err := nbt.Decode(inflated)
	if err != nil {
		err = fmt.Errorf("decoding schematic NBT: %w", err)
		return &Result{Success: false, Error: err.Error()}, nil, err
	}

	walker, err := schematic.Decode(root, res)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil, err
	}

	blockMap := make(BlockMap)
	for {
		cell, ok, err := walker.Next()
		if err != nil {
			err = fmt.Errorf("decoding schematic cells: %w", err)
			return &Result{Success: false, Error: err.Error()}, nil, err
		}
		if !ok {
			break
		}
		blockMap[[3]int{cell.X, cell.Y, cell.Z}] = cell.ID
	}

	return &Result{
		Success:    true,
		BlockCount: len(blockMap),
		Unmapped:   res.Log().Entries(),
	}, blockMap, nil
}
