// Command mcworld2json converts a Minecraft world save (ZIP archive) or
// a standalone schematic file into the target-catalog JSON document
// described in the output format.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/emmanuelvlad/mcworld2json/internal/catalog"
	"github.com/emmanuelvlad/mcworld2json/internal/chunkwalk"
	"github.com/emmanuelvlad/mcworld2json/internal/convert"
	"github.com/emmanuelvlad/mcworld2json/internal/output"
	"github.com/emmanuelvlad/mcworld2json/internal/resolver"
	"github.com/spf13/cobra"
)

// Exit codes per the CLI interface: 0 success, 1 invalid arguments,
// 2 input I/O error, 3 decode error, 4 unsupported format.
const (
	exitSuccess = 0
	exitUsage   = 1
	exitIOError = 2
	exitDecode  = 3
	exitFormat  = 4
)

var (
	mappingPath string
	boundsFlag  string
)

func main() {
	root := &cobra.Command{
		Use:           "mcworld2json",
		Short:         "Convert Minecraft world saves and schematics to voxel JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	convertCmd := &cobra.Command{
		Use:   "convert <input.zip|input.litematic|input.schem> <output.json>",
		Short: "Convert a world save or schematic into voxel JSON",
		Args:  cobra.ExactArgs(2),
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVar(&mappingPath, "mapping", "", "path to the block-type catalog JSON")
	convertCmd.Flags().StringVar(&boundsFlag, "bounds", "", "minX,minY,minZ,maxX,maxY,maxZ world-coordinate clip box")
	root.AddCommand(convertCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(exitCodeFor(err))
	}
}

var (
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	styleDim     = lipgloss.NewStyle().Faint(true)
)

// cliError pairs a message with the exit code the caller should use.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return exitUsage
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	if mappingPath == "" {
		return &cliError{code: exitUsage, err: fmt.Errorf("--mapping is required")}
	}
	cat, err := catalog.Load(mappingPath)
	if err != nil {
		return &cliError{code: exitIOError, err: fmt.Errorf("loading catalog: %w", err)}
	}

	var bounds *chunkwalk.AABB
	if boundsFlag != "" {
		bounds, err = parseBounds(boundsFlag)
		if err != nil {
			return &cliError{code: exitUsage, err: err}
		}
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return &cliError{code: exitIOError, err: fmt.Errorf("reading input: %w", err)}
	}

	res := resolver.New(cat.ResolverCatalog(nil, 0))

	fmt.Println(styleHeading.Render("mcworld2json"))
	fmt.Printf("input:  %s\n", inputPath)

	var result *convert.Result
	var blocks convert.BlockMap

	switch ext := strings.ToLower(filepath.Ext(inputPath)); ext {
	case ".zip":
		result, blocks, err = convert.World(context.Background(), data, res, convert.Options{Bounds: bounds})
	case ".litematic", ".schem", ".schematic":
		result, blocks, err = convert.Schematic(data, res)
	default:
		return &cliError{code: exitFormat, err: fmt.Errorf("unrecognized input extension %q", ext)}
	}
	if err != nil {
		return &cliError{code: exitDecode, err: err}
	}
	if !result.Success {
		return &cliError{code: exitDecode, err: fmt.Errorf("%s", result.Error)}
	}

	doc := output.Build(cat, blocks)
	docBytes, err := output.Marshal(doc)
	if err != nil {
		return &cliError{code: exitDecode, err: fmt.Errorf("marshaling output: %w", err)}
	}
	if err := os.WriteFile(outputPath, docBytes, 0o644); err != nil {
		return &cliError{code: exitIOError, err: fmt.Errorf("writing output: %w", err)}
	}

	fmt.Printf("output: %s\n", outputPath)
	fmt.Printf("blocks: %d (%d block types)\n", result.BlockCount, len(doc.BlockTypes))
	if result.WorldName != "" {
		fmt.Printf("world:  %s\n", result.WorldName)
	}
	if len(result.Unmapped) > 0 {
		fmt.Println(styleDim.Render(fmt.Sprintf("%d distinct block name(s) fell back to a default mapping", len(result.Unmapped))))
	}
	return nil
}

func parseBounds(s string) (*chunkwalk.AABB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return nil, fmt.Errorf("--bounds wants 6 comma-separated values, got %d", len(parts))
	}
	var v [6]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("--bounds value %q is not an integer", p)
		}
		v[i] = n
	}
	return &chunkwalk.AABB{
		MinX: v[0], MinY: v[1], MinZ: v[2],
		MaxX: v[3], MaxY: v[4], MaxZ: v[5],
	}, nil
}
