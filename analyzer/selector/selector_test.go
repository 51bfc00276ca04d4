package selector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pattyshack/sparrow/ast"
)

func requireCoverageConservation(t *testing.T, selection *Selection) {
	require.Len(t, selection.Tilings, len(selection.Forest.Roots))
	for idx, tiling := range selection.Tilings {
		total := 0
		for _, fired := range tiling {
			total += fired.Coverage
		}

		tree := selection.Forest.Get(selection.Forest.Roots[idx])
		require.Equal(
			t,
			tree.Weight,
			total,
			"tree %d tiled by %s",
			idx,
			TilingString(tiling))
	}
}

func TestSelectScenario(t *testing.T) {
	selection := selectInstructions(t, scenarioFunction())

	require.Len(t, selection.Tilings, 3)

	fused := selection.Tilings[2]
	require.Equal(t, []string{"ReturnValue", "Arithmetic"}, tileNames(fused))
	for _, fired := range fused {
		require.Contains(t, fired.Instructions[0], "c")
	}

	require.Equal(
		t,
		[]string{
			"(a <- 1)",
			"(b <- 2)",
			"(c <- a)",
			"(c += b)",
			"(rax <- c)",
			"(return)",
		},
		selection.Instructions)

	requireCoverageConservation(t, selection)

	require.Equal(
		t,
		"(:scenario\n  0 0\n  (a <- 1)\n  (b <- 2)\n  (c <- a)\n  (c += b)\n"+
			"  (rax <- c)\n  (return)\n)\n",
		SelectionString(selection))
}

func TestSelectArithmeticAliasing(t *testing.T) {
	fn := ast.NewFunction(
		"alias",
		0,
		0,
		[]ast.Instruction{
			arith(ast.Add, v("x"), v("x"), v("y")),
			arith(ast.Mul, v("y"), v("z"), v("y")),
			arith(ast.Sub, v("z"), v("w"), v("z")),
			&ast.ShiftOperation{
				Kind: ast.ShiftLeft,
				Dest: v("w"),
				Src1: v("x"),
				Src2: imm(3),
			},
			&ast.Return{},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			"(x += y)",
			"(y *= z)",
			"(__tmp0_alias <- w)",
			"(__tmp0_alias -= z)",
			"(z <- __tmp0_alias)",
			"(w <- x)",
			"(w <<= 3)",
			"(return)",
		},
		selection.Instructions)
	requireCoverageConservation(t, selection)
}

func TestSelectComparisons(t *testing.T) {
	fn := ast.NewFunction(
		"cmp",
		0,
		0,
		[]ast.Instruction{
			compare(ast.GreaterThan, v("x"), v("a"), v("b")),
			compare(ast.Equal, v("y"), v("a"), imm(0)),
			&ast.ConditionalJump{
				Kind: ast.GreaterEqual,
				Src1: v("a"),
				Src2: v("b"),
				Then: "done",
			},
			&ast.Label{Name: "done"},
			&ast.ReturnValue{Value: v("x")},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			"(x <- b < a)",
			"(y <- a = 0)",
			"(cjump b <= a :done_cmp)",
			":done_cmp",
			"(rax <- x)",
			"(return)",
		},
		selection.Instructions)
	requireCoverageConservation(t, selection)
}

func TestSelectCompareBranch(t *testing.T) {
	fn := ast.NewFunction(
		"f",
		0,
		0,
		[]ast.Instruction{
			compare(ast.LessThan, v("t"), v("a"), v("b")),
			&ast.ConditionalJump{
				Kind: ast.Equal,
				Src1: v("t"),
				Src2: imm(1),
				Then: "yes",
				Else: "no",
			},
			&ast.Label{Name: "yes"},
			&ast.Return{},
			&ast.Label{Name: "no"},
			&ast.Return{},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			"(cjump a < b :yes_f :no_f)",
			":yes_f",
			"(return)",
			":no_f",
			"(return)",
		},
		selection.Instructions)

	require.Equal(t, []string{"CompareBranch"}, tileNames(selection.Tilings[0]))
	require.Equal(t, 2, selection.Tilings[0][0].Coverage)
	requireCoverageConservation(t, selection)
}

func TestSelectCompareBranchOnFalse(t *testing.T) {
	fn := ast.NewFunction(
		"f",
		0,
		0,
		[]ast.Instruction{
			compare(ast.LessEqual, v("t"), v("a"), imm(5)),
			&ast.ConditionalJump{
				Kind: ast.Equal,
				Src1: v("t"),
				Src2: imm(0),
				Then: "yes",
				Else: "no",
			},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{"(cjump a <= 5 :no_f :yes_f)"},
		selection.Instructions)
}

func TestSelectCompareBranchRequiresSingleUse(t *testing.T) {
	fn := ast.NewFunction(
		"f",
		0,
		0,
		[]ast.Instruction{
			compare(ast.LessThan, v("t"), v("a"), v("b")),
			&ast.ConditionalJump{
				Kind: ast.Equal,
				Src1: v("t"),
				Src2: imm(1),
				Then: "yes",
				Else: "no",
			},
			&ast.Label{Name: "yes"},
			&ast.ReturnValue{Value: v("t")},
			&ast.Label{Name: "no"},
			&ast.Return{},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{"ConditionalBranch", "Comparison"},
		tileNames(selection.Tilings[0]))
	require.Equal(
		t,
		[]string{"(t <- a < b)", "(cjump t = 1 :yes_f :no_f)"},
		selection.Instructions[:2])
	requireCoverageConservation(t, selection)
}

func TestSelectMemoryOffsets(t *testing.T) {
	fn := ast.NewFunction(
		"mem",
		1,
		0,
		[]ast.Instruction{
			arith(ast.Add, v("p"), v("q"), imm(16)),
			load(v("x"), v("p")),
			arith(ast.Add, v("r"), imm(8), v("q")),
			store(v("r"), v("x")),
			arith(ast.Add, v("s"), v("q"), imm(4)),
			load(v("y"), v("s")),
			&ast.ReturnValue{Value: v("y")},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			"(x <- (mem q 16))",
			"((mem q 8) <- x)",
			"(s <- q)",
			"(s += 4)",
			"(y <- (mem s 0))",
			"(rax <- y)",
			"(return)",
		},
		selection.Instructions)

	require.Equal(t, []string{"LoadOffset"}, tileNames(selection.Tilings[0]))
	require.Equal(t, []string{"StoreOffset"}, tileNames(selection.Tilings[1]))
	requireCoverageConservation(t, selection)
}

func TestSelectIncrementDecrement(t *testing.T) {
	fn := ast.NewFunction(
		"step",
		0,
		0,
		[]ast.Instruction{
			arith(ast.Add, v("i"), v("i"), imm(1)),
			&ast.Return{},
			arith(ast.Sub, v("j"), v("j"), imm(1)),
			&ast.Return{},
			arith(ast.Sub, v("k"), v("j"), imm(1)),
			&ast.Return{},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			"(i++)",
			"(return)",
			"(j--)",
			"(return)",
			"(k <- j)",
			"(k -= 1)",
			"(return)",
		},
		selection.Instructions)
}

func TestSelectCalls(t *testing.T) {
	args := []ast.Item{}
	for idx := int64(0); idx < 8; idx++ {
		args = append(args, imm(idx))
	}

	fn := ast.NewFunction(
		"main",
		0,
		0,
		[]ast.Instruction{
			&ast.Label{Name: "__ret0"},
			&ast.FuncCall{
				Dest:    v("x"),
				Callee:  ast.LabelRef("f"),
				Args:    args,
				NumArgs: 8,
			},
			&ast.RuntimeCall{
				Callee:  "print",
				Args:    []ast.Item{v("x")},
				NumArgs: 1,
			},
			&ast.FuncCall{
				Callee:  v("fp"),
				NumArgs: 0,
			},
			&ast.Return{},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			":__ret0_main",
			"(rdi <- 0)",
			"(rsi <- 1)",
			"(rdx <- 2)",
			"(rcx <- 3)",
			"(r8 <- 4)",
			"(r9 <- 5)",
			"((mem rsp -16) <- 6)",
			"((mem rsp -24) <- 7)",
			"((mem rsp -8) <- :__ret1_main)",
			"(call :f 8)",
			":__ret1_main",
			"(x <- rax)",
			"(rdi <- x)",
			"(call print 1)",
			"((mem rsp -8) <- :__ret2_main)",
			"(call fp 0)",
			":__ret2_main",
			"(return)",
		},
		selection.Instructions)
	requireCoverageConservation(t, selection)
}

func TestSelectRuntimeCallAssign(t *testing.T) {
	fn := ast.NewFunction(
		"main",
		0,
		0,
		[]ast.Instruction{
			&ast.RuntimeCall{
				Dest:    v("arr"),
				Callee:  "allocate",
				Args:    []ast.Item{imm(5), imm(1)},
				NumArgs: 2,
			},
			&ast.ReturnValue{Value: v("arr")},
		})

	selection := selectInstructions(t, fn)
	require.Equal(
		t,
		[]string{
			"(rdi <- 5)",
			"(rsi <- 1)",
			"(call allocate 2)",
			"(arr <- rax)",
			"(rax <- arr)",
			"(return)",
		},
		selection.Instructions)
}

func TestSelectWithoutCoveringTile(t *testing.T) {
	selector := NewSelectorWithTiles(testPlatform(), ReturnValueTile)

	_, err := selector.Select(scenarioFunction())
	require.ErrorContains(t, err, "instruction 0")
	require.ErrorContains(t, err, "no tile covers")
}

func TestTilerBreaksTiesByRegistryOrder(t *testing.T) {
	newTile := func(name string, coverage int) *Tile {
		return &Tile{
			Name: name,
			Covers: func(ctx *TileContext, id TreeID) bool {
				return ctx.Tree(id).Op == ReturnOp
			},
			Coverage: func(*TileContext, TreeID) int {
				return coverage
			},
			Fire: func(*TileContext, TreeID) ([]string, []TreeID) {
				return []string{name}, nil
			},
		}
	}

	fn := ast.NewFunction("f", 0, 0, []ast.Instruction{&ast.Return{}})
	forest := buildForest(t, fn)
	ctx := NewTileContext(forest, testPlatform())

	first := newTile("first", 1)
	second := newTile("second", 1)
	better := newTile("better", 2)

	tile, _ := NewTiler(first, second).Match(ctx, forest.Roots[0])
	require.Same(t, first, tile)

	tile, _ = NewTiler(second, first).Match(ctx, forest.Roots[0])
	require.Same(t, second, tile)

	tile, coverage := NewTiler(first, second, better).Match(ctx, forest.Roots[0])
	require.Same(t, better, tile)
	require.Equal(t, 2, coverage)
}

func TestDefaultTilesCoverEveryOperator(t *testing.T) {
	tiles := DefaultTiles()
	names := map[string]struct{}{}
	for _, tile := range tiles {
		names[tile.Name] = struct{}{}
	}
	require.Len(t, names, len(tiles))
	require.Equal(t, "CompareBranch", tiles[0].Name)
	require.Equal(t, "Label", tiles[len(tiles)-1].Name)
}
