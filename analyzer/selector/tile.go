package selector

import (
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

// A tile matches a tree node (and possibly some of its children) and emits
// the register level instructions implementing the matched nodes.
type Tile struct {
	Name string

	// True if the tile matches the tree rooted at the node.
	Covers func(ctx *TileContext, id TreeID) bool

	// Number of source instructions consumed by the tile when it fires on
	// the node.  Only called when Covers returns true.
	Coverage func(ctx *TileContext, id TreeID) int

	// Returns the emitted instructions, and the subtrees that are not
	// consumed by the tile and still need to be tiled.
	Fire func(ctx *TileContext, id TreeID) ([]string, []TreeID)
}

type FiredTile struct {
	Tile     *Tile
	Tree     TreeID
	Coverage int

	Instructions []string
}

// Per function tiling state shared by all tiles.
type TileContext struct {
	Forest *Forest

	Registers  *architecture.RegisterSet
	Convention *architecture.CallConvention

	usedLabels   map[string]struct{}
	numRetLabels int
	numTemps     int
}

func NewTileContext(
	forest *Forest,
	targetPlatform platform.Platform,
) *TileContext {
	ctx := &TileContext{
		Forest:     forest,
		Registers:  targetPlatform.ArchitectureRegisters(),
		Convention: targetPlatform.CallConvention(),
		usedLabels: map[string]struct{}{},
	}

	for _, tree := range forest.nodes {
		if tree.Op == LabelOp {
			ctx.usedLabels[tree.Data[0].Name] = struct{}{}
		}
	}

	return ctx
}

// Return labels are numbered sequentially per function.  Names that collide
// with existing labels are skipped.
func (ctx *TileContext) newReturnLabel() ast.Item {
	for {
		name := fmt.Sprintf("__ret%d_%s", ctx.numRetLabels, ctx.Forest.FunctionName)
		ctx.numRetLabels++

		_, ok := ctx.usedLabels[name]
		if ok {
			continue
		}

		ctx.usedLabels[name] = struct{}{}
		return ast.LabelRef(name)
	}
}

func (ctx *TileContext) newTemp() ast.Item {
	for {
		name := fmt.Sprintf("__tmp%d_%s", ctx.numTemps, ctx.Forest.FunctionName)
		ctx.numTemps++

		if ctx.Forest.Occurrences(name) > 0 {
			continue
		}

		// Mark the name as used.
		ctx.Forest.occurrences[name] = 1
		return ast.Variable(name)
	}
}

func (ctx *TileContext) Tree(id TreeID) *Tree {
	return ctx.Forest.Get(id)
}

func (ctx *TileContext) Operand(id TreeID) ast.Item {
	return ctx.Forest.Operand(id)
}

// Selects and fires tiles.  Among the tiles covering a node, the one with
// the highest coverage fires; ties are broken by registry order.
type Tiler struct {
	tiles []*Tile
}

func NewTiler(tiles ...*Tile) *Tiler {
	return &Tiler{
		tiles: tiles,
	}
}

func (tiler *Tiler) Tiles() []*Tile {
	return tiler.tiles
}

func (tiler *Tiler) Match(ctx *TileContext, id TreeID) (*Tile, int) {
	var best *Tile
	bestCoverage := -1
	for _, tile := range tiler.tiles {
		if !tile.Covers(ctx, id) {
			continue
		}

		coverage := tile.Coverage(ctx, id)
		if coverage > bestCoverage {
			best = tile
			bestCoverage = coverage
		}
	}

	return best, bestCoverage
}

// Tile the tree rooted at the node.  The returned tiles are in firing order:
// a tile precedes the tiles of its subtrees.
func (tiler *Tiler) TileTree(
	ctx *TileContext,
	id TreeID,
) (
	[]*FiredTile,
	error,
) {
	tree := ctx.Tree(id)
	if tree == nil || tree.IsLeaf() {
		return nil, nil
	}

	tile, coverage := tiler.Match(ctx, id)
	if tile == nil {
		return nil, errors.New(
			"instruction %d: no tile covers %s in function %s",
			tree.Source,
			ctx.Forest.TreeString(id),
			ctx.Forest.FunctionName)
	}

	insts, subtrees := tile.Fire(ctx, id)

	tlog.V("tiling").Printw(
		"fired tile",
		"function", ctx.Forest.FunctionName,
		"instruction", tree.Source,
		"tile", tile.Name,
		"coverage", coverage)

	tiling := []*FiredTile{
		{
			Tile:         tile,
			Tree:         id,
			Coverage:     coverage,
			Instructions: insts,
		},
	}

	for _, subtree := range subtrees {
		subtiling, err := tiler.TileTree(ctx, subtree)
		if err != nil {
			return nil, err
		}
		tiling = append(tiling, subtiling...)
	}

	return tiling, nil
}

// Tile every root of the forest.  Returns one tiling per root.
func (tiler *Tiler) TileForest(ctx *TileContext) ([][]*FiredTile, error) {
	tilings := make([][]*FiredTile, 0, len(ctx.Forest.Roots))
	for _, root := range ctx.Forest.Roots {
		tiling, err := tiler.TileTree(ctx, root)
		if err != nil {
			return nil, err
		}
		tilings = append(tilings, tiling)
	}
	return tilings, nil
}

// Emission order: subtree tiles are emitted before their parent tiles,
// hence each tiling is emitted in reverse firing order.
func FlattenTilings(tilings [][]*FiredTile) []string {
	insts := []string{}
	for _, tiling := range tilings {
		for idx := len(tiling) - 1; idx >= 0; idx-- {
			insts = append(insts, tiling[idx].Instructions...)
		}
	}
	return insts
}

func TilingString(tiling []*FiredTile) string {
	names := make([]string, 0, len(tiling))
	for _, fired := range tiling {
		names = append(names, fired.Tile.Name)
	}
	return "[" + strings.Join(names, " ") + "]"
}
