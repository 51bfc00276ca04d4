package selector

import (
	"bytes"
	"fmt"
	"io"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

// Per function instruction selection: build one tree per instruction, fuse
// adjacent trees, then tile each tree.
type Selector struct {
	platform.Platform

	builder *TreeBuilder
	tiler   *Tiler
}

type Selection struct {
	FunctionName string
	NumArgs      int

	Forest  *Forest
	Tilings [][]*FiredTile

	// Register level instructions, in emission order.
	Instructions []string
}

func NewSelector(targetPlatform platform.Platform) *Selector {
	return NewSelectorWithTiles(targetPlatform, DefaultTiles()...)
}

func NewSelectorWithTiles(
	targetPlatform platform.Platform,
	tiles ...*Tile,
) *Selector {
	return &Selector{
		Platform: targetPlatform,
		builder:  NewTreeBuilder(targetPlatform),
		tiler:    NewTiler(tiles...),
	}
}

func (selector *Selector) Select(fn *ast.Function) (*Selection, error) {
	forest, err := selector.builder.Build(fn)
	if err != nil {
		return nil, errors.Wrap(err, "function %s", fn.Name)
	}

	MergeForest(forest)

	ctx := NewTileContext(forest, selector.Platform)
	tilings, err := selector.tiler.TileForest(ctx)
	if err != nil {
		return nil, err
	}

	selection := &Selection{
		FunctionName: fn.Name,
		NumArgs:      fn.NumArgs,
		Forest:       forest,
		Tilings:      tilings,
		Instructions: FlattenTilings(tilings),
	}

	tlog.V("tiling").Printw(
		"selected instructions",
		"function", fn.Name,
		"trees", len(forest.Roots),
		"instructions", len(selection.Instructions))

	return selection, nil
}

func SelectionString(selection *Selection) string {
	buffer := &bytes.Buffer{}
	_ = PrintSelection(buffer, selection, "")
	return buffer.String()
}

// Print the selected instructions as a register level function (with no
// locals).
func PrintSelection(
	output io.Writer,
	selection *Selection,
	prefix string,
) error {
	_, err := fmt.Fprintf(
		output,
		"%s(:%s\n%s  %d 0\n",
		prefix,
		selection.FunctionName,
		prefix,
		selection.NumArgs)
	if err != nil {
		return err
	}

	for _, inst := range selection.Instructions {
		_, err = fmt.Fprintf(output, "%s  %s\n", prefix, inst)
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(output, "%s)\n", prefix)
	return err
}
