package ast

import (
	"testing"

	"github.com/pattyshack/gt/parseutil"
	"github.com/stretchr/testify/require"
)

func sampleFunction() *Function {
	return NewFunction(
		"sample",
		1,
		0,
		[]Instruction{
			&Assignment{Dest: Variable("x"), Src: Register("rdi")},
			&Label{Name: "loop"},
			&ArithmeticOperation{
				Kind: Add,
				Dest: Variable("x"),
				Src1: Variable("x"),
				Src2: Immediate(1),
			},
			&ComparisonOperation{
				Kind: LessThan,
				Dest: Variable("c"),
				Src1: Variable("x"),
				Src2: Immediate(10),
			},
			&ConditionalJump{
				Kind: Equal,
				Src1: Variable("c"),
				Src2: Immediate(1),
				Then: "loop",
				Else: "done",
			},
			&Label{Name: "done"},
			&Store{
				Address: MemoryReference{Base: Register("rsp"), Offset: 8},
				Src:     Variable("x"),
			},
			&ReturnValue{Value: Variable("x")},
		})
}

func TestFunctionString(t *testing.T) {
	require.Equal(
		t,
		"(:sample\n"+
			"  1 0\n"+
			"  (x <- rdi)\n"+
			"  :loop\n"+
			"  (x += 1)\n"+
			"  (c <- x < 10)\n"+
			"  (cjump c = 1 :loop :done)\n"+
			"  :done\n"+
			"  ((mem rsp 8) <- x)\n"+
			"  (return x)\n"+
			")\n",
		FunctionString(sampleFunction()))
}

func TestCollectVariables(t *testing.T) {
	fn := sampleFunction()
	require.Equal(
		t,
		map[string]struct{}{"x": {}, "c": {}},
		fn.Variables)
	require.Equal(t, 1, fn.LabelIndex("loop"))
	require.Equal(t, -1, fn.LabelIndex("missing"))
}

func TestRewriteDoesNotModifyOriginal(t *testing.T) {
	inst := &ArithmeticOperation{
		Kind: Sub,
		Dest: Variable("x"),
		Src1: Variable("y"),
		Src2: Variable("x"),
	}

	rewritten := Rewrite(
		inst,
		func(item Item) Item {
			if item.IsVariable() && item.Name == "x" {
				return Register("rax")
			}
			return item
		})

	require.Equal(t, "(x <- y - x)", inst.String())
	require.Equal(t, "(rax <- y - rax)", rewritten.String())
	require.True(t, References(inst, "x"))
	require.False(t, References(rewritten, "x"))
}

func TestFunctionCopyIsIndependent(t *testing.T) {
	fn := sampleFunction()
	copied := fn.Copy()

	copied.Instructions[0].(*Assignment).Src = Immediate(0)
	copied.Variables["z"] = struct{}{}

	require.Equal(t, "(x <- rdi)", fn.Instructions[0].String())
	require.NotContains(t, fn.Variables, "z")
}

func TestFunctionValidate(t *testing.T) {
	emitter := &parseutil.Emitter{}
	sampleFunction().Validate(emitter)
	require.False(t, emitter.HasErrors())

	fn := NewFunction(
		"bad",
		0,
		0,
		[]Instruction{
			&Label{Name: "a"},
			&Label{Name: "a"},
			&Assignment{Dest: Immediate(1), Src: Variable("x")},
			&Jump{Label: "missing"},
		})

	emitter = &parseutil.Emitter{}
	fn.Validate(emitter)

	errs := emitter.Errors()
	require.Len(t, errs, 3)
	require.ErrorContains(t, errs[0], "label (a) previously defined")
	require.ErrorContains(t, errs[1], "must be a variable or a register")
	require.ErrorContains(t, errs[2], "undefined label (missing)")
}

func TestProgramValidate(t *testing.T) {
	prog := &Program{
		Entry:     "main",
		Functions: []*Function{sampleFunction(), sampleFunction()},
	}

	emitter := &parseutil.Emitter{}
	prog.Validate(emitter)

	errs := emitter.Errors()
	require.Len(t, errs, 2)
	require.ErrorContains(t, errs[0], "function (sample) previously defined")
	require.ErrorContains(t, errs[1], "entry function (main) not defined")
}

func TestNormalizeComparison(t *testing.T) {
	kind, swap := GreaterThan.Normalize()
	require.Equal(t, LessThan, kind)
	require.True(t, swap)

	kind, swap = GreaterEqual.Normalize()
	require.Equal(t, LessEqual, kind)
	require.True(t, swap)

	kind, swap = Equal.Normalize()
	require.Equal(t, Equal, kind)
	require.False(t, swap)
}
