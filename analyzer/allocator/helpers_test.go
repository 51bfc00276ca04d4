package allocator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pattyshack/sparrow/analyzer/util"
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

func r(name string) ast.Item {
	return ast.Register(name)
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

// numVars variables that are all simultaneously live, summed into the return
// register.
func highPressureFunction(numVars int) *ast.Function {
	insts := []ast.Instruction{}
	for idx := 0; idx < numVars; idx++ {
		insts = append(
			insts,
			assign(v(fmt.Sprintf("v%d", idx)), imm(int64(idx))))
	}

	insts = append(insts, assign(r("rax"), imm(0)))
	for idx := 0; idx < numVars; idx++ {
		insts = append(
			insts,
			arith(ast.Add, r("rax"), r("rax"), v(fmt.Sprintf("v%d", idx))))
	}
	insts = append(insts, &ast.Return{})

	return ast.NewFunction("pressure", 0, 0, insts)
}

func variablesOnly(set util.NameSet, fn *ast.Function) util.NameSet {
	result := util.NameSet{}
	for name := range set {
		_, ok := fn.Variables[name]
		if ok {
			result.Add(name)
		}
	}
	return result
}

// Every pair of interfering colored names have distinct colors.
func requireValidColoring(
	t *testing.T,
	graph *InterferenceGraph,
	coloring *Coloring,
) {
	for name, neighbors := range graph.Adjacency {
		color, ok := coloring.Colors[name]
		if !ok {
			continue
		}

		for neighbor := range neighbors {
			neighborColor, ok := coloring.Colors[neighbor]
			if ok {
				require.NotEqual(
					t,
					color,
					neighborColor,
					"%s and %s share a color",
					name,
					neighbor)
			}
		}
	}
}
