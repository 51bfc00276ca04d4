package selector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
	"github.com/pattyshack/sparrow/platform/x64"
)

func testPlatform() platform.Platform {
	return x64.NewPlatform(platform.Linux)
}

func v(name string) ast.Item {
	return ast.Variable(name)
}

func imm(value int64) ast.Item {
	return ast.Immediate(value)
}

func assign(dest ast.Item, src ast.Item) ast.Instruction {
	return &ast.Assignment{Dest: dest, Src: src}
}

func arith(
	kind ast.ArithmeticKind,
	dest ast.Item,
	src1 ast.Item,
	src2 ast.Item,
) ast.Instruction {
	return &ast.ArithmeticOperation{
		Kind: kind,
		Dest: dest,
		Src1: src1,
		Src2: src2,
	}
}

func compare(
	kind ast.ComparisonKind,
	dest ast.Item,
	src1 ast.Item,
	src2 ast.Item,
) ast.Instruction {
	return &ast.ComparisonOperation{
		Kind: kind,
		Dest: dest,
		Src1: src1,
		Src2: src2,
	}
}

func load(dest ast.Item, base ast.Item) ast.Instruction {
	return &ast.Load{
		Dest:    dest,
		Address: ast.MemoryReference{Base: base},
	}
}

func store(base ast.Item, src ast.Item) ast.Instruction {
	return &ast.Store{
		Address: ast.MemoryReference{Base: base},
		Src:     src,
	}
}

// [a <- 1; b <- 2; c <- a + b; return c]
func scenarioFunction() *ast.Function {
	return ast.NewFunction(
		"scenario",
		0,
		0,
		[]ast.Instruction{
			assign(v("a"), imm(1)),
			assign(v("b"), imm(2)),
			arith(ast.Add, v("c"), v("a"), v("b")),
			&ast.ReturnValue{Value: v("c")},
		})
}

func buildForest(t *testing.T, fn *ast.Function) *Forest {
	forest, err := NewTreeBuilder(testPlatform()).Build(fn)
	require.NoError(t, err)
	return forest
}

func selectInstructions(t *testing.T, fn *ast.Function) *Selection {
	selection, err := NewSelector(testPlatform()).Select(fn)
	require.NoError(t, err)
	return selection
}

func tileNames(tiling []*FiredTile) []string {
	names := []string{}
	for _, fired := range tiling {
		names = append(names, fired.Tile.Name)
	}
	return names
}
