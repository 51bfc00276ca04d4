package allocator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/ast"
)

var calleeSaved = []string{"r12", "r13", "r14", "r15", "rbp", "rbx"}

var callerSaved = []string{
	"r10", "r11", "r8", "r9", "rax", "rcx", "rdi", "rdx", "rsi",
}

// i <- 0; loop while i < 10; return i
func loopFunction() *ast.Function {
	return ast.NewFunction(
		"loop",
		0,
		0,
		[]ast.Instruction{
			assign(v("i"), imm(0)),
			&ast.Label{Name: "loop"},
			&ast.ConditionalJump{
				Kind: ast.LessThan,
				Src1: v("i"),
				Src2: imm(10),
				Then: "body",
				Else: "exit",
			},
			&ast.Label{Name: "body"},
			arith(ast.Add, v("i"), v("i"), imm(1)),
			&ast.Jump{Label: "loop"},
			&ast.Label{Name: "exit"},
			&ast.ReturnValue{Value: v("i")},
		})
}

func TestLivenessScenario(t *testing.T) {
	fn := scenarioFunction()
	live, err := NewLivenessAnalyzer(testPlatform()).Analyze(fn)
	require.NoError(t, err)

	require.Len(t, live.Gen, 4)
	require.Len(t, live.Kill, 4)
	require.Len(t, live.In, 4)
	require.Len(t, live.Out, 4)

	require.Equal(t, util.NewNameSet("c"), variablesOnly(live.In[3], fn))
	require.Equal(
		t,
		util.NewNameSet(append([]string{"c"}, calleeSaved...)...),
		live.In[3])

	require.Equal(t, util.NewNameSet("a", "b"), variablesOnly(live.In[2], fn))
	require.Equal(t, util.NewNameSet("c"), variablesOnly(live.Out[2], fn))
	require.Equal(t, util.NewNameSet("a"), variablesOnly(live.Out[0], fn))
	require.Empty(t, variablesOnly(live.In[0], fn))
}

func TestLivenessLoop(t *testing.T) {
	fn := loopFunction()
	live, err := NewLivenessAnalyzer(testPlatform()).Analyze(fn)
	require.NoError(t, err)

	require.Equal(
		t,
		[][]int{{1}, {2}, {3, 6}, {4}, {5}, {1}, {7}, {}},
		live.Successors)

	for idx := 1; idx < len(fn.Instructions); idx++ {
		require.True(t, live.In[idx].Contains("i"), "instruction %d", idx)
	}
	require.False(t, live.In[0].Contains("i"))

	// The back edge requires at least one extra sweep.
	require.Greater(t, live.Iterations, 1)
}

func TestLivenessFixpointIdempotence(t *testing.T) {
	for _, fn := range []*ast.Function{
		scenarioFunction(),
		loopFunction(),
		highPressureFunction(20),
	} {
		live, err := NewLivenessAnalyzer(testPlatform()).Analyze(fn)
		require.NoError(t, err)

		again, err := SolveLiveness(live.Gen, live.Kill, live.Successors)
		require.NoError(t, err)

		require.Equal(t, live.In, again.In, fn.Name)
		require.Equal(t, live.Out, again.Out, fn.Name)

		// The fixpoint satisfies the dataflow equations.
		for idx := range fn.Instructions {
			out := util.NameSet{}
			for _, succ := range live.Successors[idx] {
				out.AddAll(live.In[succ])
			}
			require.Equal(t, out, live.Out[idx])

			in := out.Difference(live.Kill[idx])
			in.AddAll(live.Gen[idx])
			require.Equal(t, in, live.In[idx])
		}
	}
}

func TestSolveLivenessMismatchedInputs(t *testing.T) {
	_, err := SolveLiveness(
		[]util.NameSet{{}, {}},
		[]util.NameSet{{}},
		[][]int{{1}, {}})
	require.Error(t, err)

	_, err = SolveLiveness(
		[]util.NameSet{{}},
		[]util.NameSet{{}},
		[][]int{{5}})
	require.Error(t, err)
}

func TestSuccessorsFallThrough(t *testing.T) {
	fn := ast.NewFunction(
		"fallthrough",
		0,
		0,
		[]ast.Instruction{
			&ast.ConditionalJump{
				Kind: ast.Equal,
				Src1: v("x"),
				Src2: imm(1),
				Then: "done",
			},
			assign(v("x"), imm(2)),
			&ast.Label{Name: "done"},
			&ast.Return{},
			assign(v("y"), imm(3)),
		})

	successors, err := Successors(fn)
	require.NoError(t, err)
	require.Equal(t, [][]int{{2, 1}, {2}, {3}, {}, {}}, successors)
}

func TestSuccessorsDuplicateLabelResolvesToFirst(t *testing.T) {
	fn := ast.NewFunction(
		"duplicate",
		0,
		0,
		[]ast.Instruction{
			&ast.Label{Name: "top"},
			assign(v("x"), imm(1)),
			&ast.Label{Name: "top"},
			&ast.Jump{Label: "top"},
		})

	successors, err := Successors(fn)
	require.NoError(t, err)
	require.Equal(t, [][]int{{1}, {2}, {3}, {0}}, successors)
}

func TestSuccessorsMissingLabel(t *testing.T) {
	fn := ast.NewFunction(
		"missing",
		0,
		0,
		[]ast.Instruction{
			&ast.Label{Name: "start"},
			&ast.Jump{Label: "nowhere"},
		})

	_, err := Successors(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "instruction 1")
	require.Contains(t, err.Error(), "nowhere")

	_, err = NewLivenessAnalyzer(testPlatform()).Analyze(fn)
	require.Error(t, err)
}

func TestGenKill(t *testing.T) {
	analyzer := NewLivenessAnalyzer(testPlatform())

	type expected struct {
		gen  []string
		kill []string
	}

	cases := []struct {
		name     string
		inst     ast.Instruction
		expected expected
	}{
		{
			name: "stack load",
			inst: &ast.Load{
				Dest:    v("x"),
				Address: ast.MemoryReference{Base: r("rsp"), Offset: 8},
			},
			expected: expected{kill: []string{"x"}},
		},
		{
			name: "store",
			inst: &ast.Store{
				Address: ast.MemoryReference{Base: v("p"), Offset: 16},
				Src:     v("x"),
			},
			expected: expected{gen: []string{"p", "x"}},
		},
		{
			name: "two address arithmetic",
			inst: arith(ast.Sub, v("w"), v("w"), imm(3)),
			expected: expected{
				gen:  []string{"w"},
				kill: []string{"w"},
			},
		},
		{
			name: "memory is destination",
			inst: &ast.MemoryArithmeticOperation{
				Kind:        ast.Add,
				Orientation: ast.MemoryIsDestination,
				Address:     ast.MemoryReference{Base: v("p"), Offset: 0},
				Register:    v("t"),
			},
			expected: expected{gen: []string{"p", "t"}},
		},
		{
			name: "memory is source",
			inst: &ast.MemoryArithmeticOperation{
				Kind:        ast.Add,
				Orientation: ast.MemoryIsSource,
				Address:     ast.MemoryReference{Base: v("p"), Offset: 0},
				Register:    v("w"),
			},
			expected: expected{
				gen:  []string{"p", "w"},
				kill: []string{"w"},
			},
		},
		{
			name: "shift",
			inst: &ast.ShiftOperation{
				Kind: ast.ShiftLeft,
				Dest: v("w"),
				Src1: v("w"),
				Src2: v("c"),
			},
			expected: expected{
				gen:  []string{"c", "w"},
				kill: []string{"w"},
			},
		},
		{
			name: "comparison",
			inst: &ast.ComparisonOperation{
				Kind: ast.LessEqual,
				Dest: v("d"),
				Src1: v("a"),
				Src2: imm(4),
			},
			expected: expected{
				gen:  []string{"a"},
				kill: []string{"d"},
			},
		},
		{
			name: "wide address",
			inst: &ast.WideAddress{
				Dest:       v("d"),
				Start:      v("base"),
				Multiplier: v("idx"),
				Scale:      8,
			},
			expected: expected{
				gen:  []string{"base", "idx"},
				kill: []string{"d"},
			},
		},
		{
			name:     "label",
			inst:     &ast.Label{Name: "l"},
			expected: expected{},
		},
		{
			name: "runtime call",
			inst: &ast.RuntimeCall{Callee: "print", NumArgs: 1},
			expected: expected{
				gen:  []string{"rdi"},
				kill: callerSaved,
			},
		},
		{
			name: "call with stack arguments",
			inst: &ast.FuncCall{Callee: ast.LabelRef("f"), NumArgs: 8},
			expected: expected{
				gen:  []string{"r8", "r9", "rcx", "rdi", "rdx", "rsi"},
				kill: callerSaved,
			},
		},
		{
			name: "indirect call",
			inst: &ast.FuncCall{Callee: v("fp"), NumArgs: 0},
			expected: expected{
				gen:  []string{"fp"},
				kill: callerSaved,
			},
		},
		{
			name: "return",
			inst: &ast.Return{},
			expected: expected{
				gen: append([]string{"rax"}, calleeSaved...),
			},
		},
		{
			name: "return value",
			inst: &ast.ReturnValue{Value: imm(5)},
			expected: expected{
				gen: calleeSaved,
			},
		},
	}

	for _, testCase := range cases {
		gen, kill, err := analyzer.GenKill(0, testCase.inst)
		require.NoError(t, err, testCase.name)
		require.Equal(
			t,
			util.NewNameSet(testCase.expected.gen...),
			gen,
			testCase.name)
		require.Equal(
			t,
			util.NewNameSet(testCase.expected.kill...),
			kill,
			testCase.name)
	}
}

func TestGenKillUnknownRegister(t *testing.T) {
	analyzer := NewLivenessAnalyzer(testPlatform())
	_, _, err := analyzer.GenKill(3, assign(r("xmm0"), imm(1)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "instruction 3")
}
