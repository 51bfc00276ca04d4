package selector

import (
	"fmt"

	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
)

func opTile(
	name string,
	op OpKind,
	fire func(*TileContext, TreeID) ([]string, []TreeID),
) *Tile {
	return &Tile{
		Name: name,
		Covers: func(ctx *TileContext, id TreeID) bool {
			return ctx.Tree(id).Op == op
		},
		Coverage: unitCoverage,
		Fire:     fire,
	}
}

func unitCoverage(*TileContext, TreeID) int {
	return 1
}

func idiomCoverage(*TileContext, TreeID) int {
	return 2
}

func move(dest fmt.Stringer, src fmt.Stringer) string {
	return fmt.Sprintf("(%s <- %s)", dest, src)
}

func children(tree *Tree) []TreeID {
	result := []TreeID{}
	if tree.Left != NoTree {
		result = append(result, tree.Left)
	}
	if tree.Right != NoTree {
		result = append(result, tree.Right)
	}
	return result
}

// The tree's child that is a fused, single use computation of the given
// kind, or nil.
func foldableChild(
	ctx *TileContext,
	id TreeID,
	accept func(*Tree) bool,
) *Tree {
	if id == NoTree {
		return nil
	}

	child := ctx.Tree(id)
	if child.IsLeaf() || !accept(child) {
		return nil
	}

	if !ctx.Forest.IsSingleUse(child.Result) {
		return nil
	}

	return child
}

// base + (multiple of 8) immediate, in either operand order.
func offsetAddress(ctx *TileContext, add *Tree) (ast.Item, int64, bool) {
	if add.Op != AddOp {
		return ast.Item{}, 0, false
	}

	left := ctx.Tree(add.Left)
	right := ctx.Tree(add.Right)
	if !left.IsLeaf() || !right.IsLeaf() {
		return ast.Item{}, 0, false
	}

	base := left.Result
	offset := right.Result
	if base.IsImmediate() {
		base, offset = offset, base
	}

	if !base.IsStorage() ||
		!offset.IsImmediate() ||
		offset.Value%architecture.AddressByteSize != 0 {

		return ast.Item{}, 0, false
	}

	return base, offset.Value, true
}

func isOffsetAddress(ctx *TileContext) func(*Tree) bool {
	return func(tree *Tree) bool {
		_, _, ok := offsetAddress(ctx, tree)
		return ok
	}
}

func isImmediate(ctx *TileContext, id TreeID, value int64) bool {
	tree := ctx.Tree(id)
	return tree.IsLeaf() && tree.Result.IsImmediate() && tree.Result.Value == value
}

// (cjump <cmp> = 1 :t :f) / (cjump <cmp> = 0 :t :f) where <cmp> is a single
// use comparison computed by the immediately preceding instruction.
var CompareBranchTile = &Tile{
	Name: "CompareBranch",
	Covers: func(ctx *TileContext, id TreeID) bool {
		tree := ctx.Tree(id)
		if tree.Op != ConditionalBranchOp || tree.Condition != EqualOp {
			return false
		}

		cmp := foldableChild(
			ctx,
			tree.Left,
			func(child *Tree) bool { return child.Op.IsComparison() })
		if cmp == nil {
			return false
		}

		if isImmediate(ctx, tree.Right, 1) {
			return true
		}
		return isImmediate(ctx, tree.Right, 0) && len(tree.Data) == 2
	},
	Coverage: idiomCoverage,
	Fire: func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		cmp := ctx.Tree(tree.Left)

		labels := tree.Data
		if isImmediate(ctx, tree.Right, 0) {
			labels = []ast.Item{tree.Data[1], tree.Data[0]}
		}

		inst := fmt.Sprintf(
			"(cjump %s %s %s",
			ctx.Operand(cmp.Left),
			cmp.Op,
			ctx.Operand(cmp.Right))
		for _, label := range labels {
			inst += " " + label.String()
		}
		inst += ")"

		return []string{inst}, children(cmp)
	},
}

// (d <- (mem b M)) where the address b + M is a single use addition.
var LoadOffsetTile = &Tile{
	Name: "LoadOffset",
	Covers: func(ctx *TileContext, id TreeID) bool {
		tree := ctx.Tree(id)
		if tree.Op != LoadOp {
			return false
		}
		return foldableChild(ctx, tree.Left, isOffsetAddress(ctx)) != nil
	},
	Coverage: idiomCoverage,
	Fire: func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		add := ctx.Tree(tree.Left)
		base, offset, _ := offsetAddress(ctx, add)

		address := ast.MemoryReference{
			Base:   base,
			Offset: tree.Offset + offset,
		}
		return []string{move(tree.Result, address)}, children(add)
	},
}

// ((mem b M) <- s) where the address b + M is a single use addition.
var StoreOffsetTile = &Tile{
	Name: "StoreOffset",
	Covers: func(ctx *TileContext, id TreeID) bool {
		tree := ctx.Tree(id)
		if tree.Op != StoreOp {
			return false
		}
		return foldableChild(ctx, tree.Left, isOffsetAddress(ctx)) != nil
	},
	Coverage: idiomCoverage,
	Fire: func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		add := ctx.Tree(tree.Left)
		base, offset, _ := offsetAddress(ctx, add)

		address := ast.MemoryReference{
			Base:   base,
			Offset: tree.Offset + offset,
		}
		insts := []string{move(address, ctx.Operand(tree.Right))}
		return insts, append(children(add), tree.Right)
	},
}

func stepTile(name string, op OpKind, suffix string) *Tile {
	return &Tile{
		Name: name,
		Covers: func(ctx *TileContext, id TreeID) bool {
			tree := ctx.Tree(id)
			return tree.Op == op &&
				tree.Result.Same(ctx.Operand(tree.Left)) &&
				isImmediate(ctx, tree.Right, 1)
		},
		Coverage: unitCoverage,
		Fire: func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
			tree := ctx.Tree(id)
			return []string{"(" + tree.Result.String() + suffix + ")"}, children(tree)
		},
	}
}

// (d++)
var IncrementTile = stepTile("Increment", AddOp, "++")

// (d--)
var DecrementTile = stepTile("Decrement", SubOp, "--")

var ReturnTile = opTile(
	"Return",
	ReturnOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		return []string{"(return)"}, nil
	})

var ReturnValueTile = opTile(
	"ReturnValue",
	ReturnValueOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		insts := []string{
			move(ctx.Registers.Return, ctx.Operand(tree.Left)),
			"(return)",
		}
		return insts, children(tree)
	})

var AssignmentTile = opTile(
	"Assignment",
	AssignOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		return []string{move(tree.Result, ctx.Operand(tree.Left))}, children(tree)
	})

// Two address arithmetic (d op= s).  The destination may alias either
// operand.
var ArithmeticTile = &Tile{
	Name: "Arithmetic",
	Covers: func(ctx *TileContext, id TreeID) bool {
		return ctx.Tree(id).Op.IsArithmetic()
	},
	Coverage: unitCoverage,
	Fire: func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		dest := tree.Result
		left := ctx.Operand(tree.Left)
		right := ctx.Operand(tree.Right)

		update := func(dest ast.Item, src ast.Item) string {
			return fmt.Sprintf("(%s %s= %s)", dest, tree.Op, src)
		}

		var insts []string
		switch {
		case dest.Same(left):
			insts = []string{update(dest, right)}
		case dest.Same(right) && tree.Op.IsCommutative():
			insts = []string{update(dest, left)}
		case dest.Same(right):
			tmp := ctx.newTemp()
			insts = []string{
				move(tmp, left),
				update(tmp, right),
				move(dest, tmp),
			}
		default:
			insts = []string{
				move(dest, left),
				update(dest, right),
			}
		}

		return insts, children(tree)
	},
}

var ComparisonTile = &Tile{
	Name: "Comparison",
	Covers: func(ctx *TileContext, id TreeID) bool {
		return ctx.Tree(id).Op.IsComparison()
	},
	Coverage: unitCoverage,
	Fire: func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		inst := fmt.Sprintf(
			"(%s <- %s %s %s)",
			tree.Result,
			ctx.Operand(tree.Left),
			tree.Op,
			ctx.Operand(tree.Right))
		return []string{inst}, children(tree)
	},
}

var BranchTile = opTile(
	"Branch",
	BranchOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		return []string{"(goto " + ctx.Tree(id).Data[0].String() + ")"}, nil
	})

var ConditionalBranchTile = opTile(
	"ConditionalBranch",
	ConditionalBranchOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		inst := fmt.Sprintf(
			"(cjump %s %s %s",
			ctx.Operand(tree.Left),
			tree.Condition,
			ctx.Operand(tree.Right))
		for _, label := range tree.Data {
			inst += " " + label.String()
		}
		inst += ")"
		return []string{inst}, children(tree)
	})

// Move the arguments into argument registers / outgoing stack slots, push
// the return label (non-runtime callees only), then call.
func callInstructions(ctx *TileContext, tree *Tree) []string {
	insts := []string{}
	for idx, arg := range tree.Data[1:] {
		register := ctx.Convention.ArgumentRegister(idx)
		if register != nil {
			insts = append(insts, move(register, arg))
			continue
		}

		slot := ast.MemoryReference{
			Base:   ctx.Registers.StackPointer.Item(),
			Offset: ctx.Convention.OutgoingArgumentOffset(idx),
		}
		insts = append(insts, move(slot, arg))
	}

	callee := tree.Data[0]
	if tree.IsRuntimeCall {
		return append(insts, fmt.Sprintf("(call %s %d)", callee.Name, tree.NumArgs))
	}

	retLabel := ctx.newReturnLabel()
	retSlot := ast.MemoryReference{
		Base:   ctx.Registers.StackPointer.Item(),
		Offset: ctx.Convention.ReturnAddressOffset(),
	}

	return append(
		insts,
		move(retSlot, retLabel),
		fmt.Sprintf("(call %s %d)", callee, tree.NumArgs),
		retLabel.String())
}

var CallTile = opTile(
	"Call",
	CallOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		return callInstructions(ctx, ctx.Tree(id)), nil
	})

var CallAssignTile = opTile(
	"CallAssign",
	CallAssignOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		insts := callInstructions(ctx, tree)
		return append(insts, move(tree.Result, ctx.Registers.Return)), nil
	})

var LoadTile = opTile(
	"Load",
	LoadOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		address := ast.MemoryReference{
			Base:   ctx.Operand(tree.Left),
			Offset: tree.Offset,
		}
		return []string{move(tree.Result, address)}, children(tree)
	})

var StoreTile = opTile(
	"Store",
	StoreOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		tree := ctx.Tree(id)
		address := ast.MemoryReference{
			Base:   ctx.Operand(tree.Left),
			Offset: tree.Offset,
		}
		return []string{move(address, ctx.Operand(tree.Right))}, children(tree)
	})

var LabelTile = opTile(
	"Label",
	LabelOp,
	func(ctx *TileContext, id TreeID) ([]string, []TreeID) {
		return []string{ctx.Tree(id).Data[0].String()}, nil
	})

// The tile library, in tie breaking order.
func DefaultTiles() []*Tile {
	return []*Tile{
		CompareBranchTile,
		LoadOffsetTile,
		StoreOffsetTile,
		IncrementTile,
		DecrementTile,
		ReturnTile,
		ReturnValueTile,
		AssignmentTile,
		ArithmeticTile,
		ComparisonTile,
		BranchTile,
		ConditionalBranchTile,
		CallTile,
		CallAssignTile,
		LoadTile,
		StoreTile,
		LabelTile,
	}
}
