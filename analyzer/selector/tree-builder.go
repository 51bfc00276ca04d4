package selector

import (
	"github.com/pattyshack/gt/parseutil"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

var (
	arithmeticOps = map[ast.ArithmeticKind]OpKind{
		ast.Add: AddOp,
		ast.Sub: SubOp,
		ast.Mul: MulOp,
		ast.And: AndOp,
	}

	shiftOps = map[ast.ShiftKind]OpKind{
		ast.ShiftLeft:  ShiftLeftOp,
		ast.ShiftRight: ShiftRightOp,
	}

	comparisonOps = map[ast.ComparisonKind]OpKind{
		ast.LessThan:  LessThanOp,
		ast.LessEqual: LessEqualOp,
		ast.Equal:     EqualOp,
	}
)

// Converts each instruction into its own expression tree.  Greater than /
// greater equal comparisons are normalized into less than / less equal with
// swapped operands.  Labels and branch targets are suffixed with the function
// name to keep them unique across functions.
type TreeBuilder struct {
	runtime platform.RuntimeFunctions
}

func NewTreeBuilder(targetPlatform platform.Platform) *TreeBuilder {
	return &TreeBuilder{
		runtime: targetPlatform.RuntimeFunctions(),
	}
}

func LocalLabel(fn *ast.Function, name string) string {
	return name + "_" + fn.Name
}

func (builder *TreeBuilder) Build(fn *ast.Function) (*Forest, error) {
	forest := newForest(fn)

	for idx, inst := range fn.Instructions {
		id, err := builder.buildTree(forest, fn, idx, inst)
		if err != nil {
			return nil, err
		}
		forest.Roots = append(forest.Roots, id)
	}

	tlog.V("tiling").Printw(
		"built forest",
		"function", fn.Name,
		"trees", len(forest.Roots),
		"nodes", forest.NumNodes())

	return forest, nil
}

func (builder *TreeBuilder) buildTree(
	forest *Forest,
	fn *ast.Function,
	idx int,
	in ast.Instruction,
) (
	TreeID,
	error,
) {
	tree := &Tree{
		Op:     NoOp,
		Left:   NoTree,
		Right:  NoTree,
		Weight: 1,
		Source: idx,
	}

	binary := func(
		op OpKind,
		dest ast.Item,
		src1 ast.Item,
		src2 ast.Item,
	) {
		tree.Op = op
		tree.Result = dest
		tree.Left = forest.newLeaf(src1)
		tree.Right = forest.newLeaf(src2)
	}

	switch inst := in.(type) {
	case *ast.Assignment:
		tree.Op = AssignOp
		tree.Result = inst.Dest
		tree.Left = forest.newLeaf(inst.Src)
	case *ast.ArithmeticOperation:
		op, ok := arithmeticOps[inst.Kind]
		if !ok {
			return NoTree, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: unexpected arithmetic (%s)",
				idx,
				inst.Kind)
		}
		binary(op, inst.Dest, inst.Src1, inst.Src2)
	case *ast.ShiftOperation:
		op, ok := shiftOps[inst.Kind]
		if !ok {
			return NoTree, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: unexpected shift (%s)",
				idx,
				inst.Kind)
		}
		binary(op, inst.Dest, inst.Src1, inst.Src2)
	case *ast.ComparisonOperation:
		kind, swap := inst.Kind.Normalize()
		op, ok := comparisonOps[kind]
		if !ok {
			return NoTree, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: unexpected comparison (%s)",
				idx,
				inst.Kind)
		}

		src1 := inst.Src1
		src2 := inst.Src2
		if swap {
			src1, src2 = src2, src1
		}
		binary(op, inst.Dest, src1, src2)
	case *ast.Load:
		tree.Op = LoadOp
		tree.Result = inst.Dest
		tree.Left = forest.newLeaf(inst.Address.Base)
		tree.Offset = inst.Address.Offset
	case *ast.Store:
		tree.Op = StoreOp
		tree.Left = forest.newLeaf(inst.Address.Base)
		tree.Right = forest.newLeaf(inst.Src)
		tree.Offset = inst.Address.Offset
	case *ast.Label:
		tree.Op = LabelOp
		tree.Data = []ast.Item{ast.LabelRef(LocalLabel(fn, inst.Name))}
	case *ast.Jump:
		tree.Op = BranchOp
		tree.Data = []ast.Item{ast.LabelRef(LocalLabel(fn, inst.Label))}
	case *ast.ConditionalJump:
		kind, swap := inst.Kind.Normalize()
		op, ok := comparisonOps[kind]
		if !ok {
			return NoTree, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: unexpected comparison (%s)",
				idx,
				inst.Kind)
		}

		src1 := inst.Src1
		src2 := inst.Src2
		if swap {
			src1, src2 = src2, src1
		}

		tree.Op = ConditionalBranchOp
		tree.Condition = op
		tree.Left = forest.newLeaf(src1)
		tree.Right = forest.newLeaf(src2)
		tree.Data = []ast.Item{ast.LabelRef(LocalLabel(fn, inst.Then))}
		if inst.Else != "" {
			tree.Data = append(
				tree.Data,
				ast.LabelRef(LocalLabel(fn, inst.Else)))
		}
	case *ast.Return:
		tree.Op = ReturnOp
	case *ast.ReturnValue:
		tree.Op = ReturnValueOp
		tree.Left = forest.newLeaf(inst.Value)
	case *ast.FuncCall:
		tree.Op = CallOp
		if inst.Dest.IsValid() {
			tree.Op = CallAssignOp
			tree.Result = inst.Dest
		}
		tree.Data = append([]ast.Item{inst.Callee}, inst.Args...)
		tree.NumArgs = inst.NumArgs
	case *ast.RuntimeCall:
		runtimeFunc, ok := builder.runtime.Get(inst.Callee)
		if !ok {
			return NoTree, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: unknown runtime function (%s)",
				idx,
				inst.Callee)
		}
		if !runtimeFunc.AcceptsNumArgs(inst.NumArgs) {
			return NoTree, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: runtime function (%s) does not accept %d "+
					"arguments",
				idx,
				inst.Callee,
				inst.NumArgs)
		}

		tree.Op = CallOp
		if inst.Dest.IsValid() {
			if !runtimeFunc.Returns {
				return NoTree, parseutil.NewLocationError(
					inst.Loc(),
					"instruction %d: runtime function (%s) does not return a value",
					idx,
					inst.Callee)
			}
			tree.Op = CallAssignOp
			tree.Result = inst.Dest
		}
		tree.IsRuntimeCall = true
		tree.Data = append([]ast.Item{ast.LabelRef(inst.Callee)}, inst.Args...)
		tree.NumArgs = inst.NumArgs
	case *ast.MemoryArithmeticOperation, *ast.WideAddress:
		return NoTree, parseutil.NewLocationError(
			in.Loc(),
			"instruction %d: %s is a register level instruction and cannot be "+
				"selected",
			idx,
			in)
	default:
		panic("unhandled instruction: " + in.String())
	}

	return forest.add(tree), nil
}
