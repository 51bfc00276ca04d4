package selector

import (
	"fmt"
	"io"
	"strings"

	"github.com/pattyshack/sparrow/ast"
)

type OpKind string

const (
	NoOp = OpKind("none") // leaf

	AssignOp     = OpKind("assign")
	AddOp        = OpKind("+")
	SubOp        = OpKind("-")
	MulOp        = OpKind("*")
	AndOp        = OpKind("&")
	ShiftLeftOp  = OpKind("<<")
	ShiftRightOp = OpKind(">>")
	LessThanOp   = OpKind("<")
	LessEqualOp  = OpKind("<=")
	EqualOp      = OpKind("=")

	LoadOp  = OpKind("load")
	StoreOp = OpKind("store")

	BranchOp            = OpKind("branch")
	ConditionalBranchOp = OpKind("cbranch")
	ReturnOp            = OpKind("return")
	ReturnValueOp       = OpKind("return-value")
	CallOp              = OpKind("call")
	CallAssignOp        = OpKind("call-assign")
	LabelOp             = OpKind("label")
)

func (op OpKind) IsArithmetic() bool {
	switch op {
	case AddOp, SubOp, MulOp, AndOp, ShiftLeftOp, ShiftRightOp:
		return true
	}
	return false
}

func (op OpKind) IsComparison() bool {
	switch op {
	case LessThanOp, LessEqualOp, EqualOp:
		return true
	}
	return false
}

func (op OpKind) IsCommutative() bool {
	switch op {
	case AddOp, MulOp, AndOp:
		return true
	}
	return false
}

// Arena index of a tree node.
type TreeID int

const NoTree = TreeID(-1)

type Tree struct {
	// The value the node produces (the instruction's destination), or the
	// operand itself for leaves.  Invalid for nodes without results.
	Result ast.Item

	Op OpKind

	Left  TreeID
	Right TreeID

	// Auxiliary operands:
	//  - branch / label: [label]
	//  - conditional branch: [then label, (optional) else label]
	//  - call / call assign: [callee, args...]
	Data []ast.Item

	// Normalized comparison of a conditional branch.
	Condition OpKind

	// Runtime callees are referenced by bare name and push no return label.
	IsRuntimeCall bool

	// Call arity.
	NumArgs int

	// Memory reference offset for load / store.
	Offset int64

	// Number of source instructions represented by this tree (0 for leaves).
	Weight int

	// Index of the source instruction, or -1 for leaves.
	Source int
}

func (tree *Tree) IsLeaf() bool {
	return tree.Op == NoOp
}

// A forest of expression trees, one root per (unfused) instruction, in
// program order.  All nodes are owned by the arena; parent / child
// relationships are arena indices.
type Forest struct {
	FunctionName string
	NumArgs      int

	nodes []*Tree

	Roots []TreeID

	// Variable name -> number of operand slots referencing it in the source
	// function.
	occurrences map[string]int
}

func newForest(fn *ast.Function) *Forest {
	forest := &Forest{
		FunctionName: fn.Name,
		NumArgs:      fn.NumArgs,
		occurrences:  map[string]int{},
	}

	for _, inst := range fn.Instructions {
		for _, item := range inst.Items() {
			if item.IsVariable() {
				forest.occurrences[item.Name]++
			}
		}
	}

	return forest
}

func (forest *Forest) add(tree *Tree) TreeID {
	id := TreeID(len(forest.nodes))
	forest.nodes = append(forest.nodes, tree)
	return id
}

func (forest *Forest) newLeaf(item ast.Item) TreeID {
	return forest.add(&Tree{
		Result: item,
		Op:     NoOp,
		Left:   NoTree,
		Right:  NoTree,
		Source: -1,
	})
}

func (forest *Forest) Get(id TreeID) *Tree {
	if id == NoTree {
		return nil
	}
	return forest.nodes[id]
}

func (forest *Forest) NumNodes() int {
	return len(forest.nodes)
}

// The item a parent uses to reference the subtree: the leaf operand, or the
// child's result.
func (forest *Forest) Operand(id TreeID) ast.Item {
	return forest.nodes[id].Result
}

func (forest *Forest) Occurrences(name string) int {
	return forest.occurrences[name]
}

// True if the item is a variable that is defined once and used once (i.e.,
// appears in exactly two operand slots).  Single use results may be folded
// into their consumer without emitting their own definition.
func (forest *Forest) IsSingleUse(item ast.Item) bool {
	return item.IsVariable() && forest.occurrences[item.Name] == 2
}

// Leaf operands reachable from the tree, in left to right order.
func (forest *Forest) Leaves(id TreeID) []ast.Item {
	if id == NoTree {
		return nil
	}

	tree := forest.nodes[id]
	if tree.IsLeaf() {
		return []ast.Item{tree.Result}
	}

	leaves := forest.Leaves(tree.Left)
	return append(leaves, forest.Leaves(tree.Right)...)
}

func (forest *Forest) TreeString(id TreeID) string {
	tree := forest.Get(id)
	if tree == nil {
		return "<nil>"
	}

	if tree.IsLeaf() {
		return tree.Result.String()
	}

	parts := []string{string(tree.Op)}
	if tree.Condition != "" {
		parts = append(parts, string(tree.Condition))
	}
	if tree.Result.IsValid() {
		parts = append(parts, tree.Result.String())
	}
	if tree.Left != NoTree {
		parts = append(parts, forest.TreeString(tree.Left))
	}
	if tree.Right != NoTree {
		parts = append(parts, forest.TreeString(tree.Right))
	}
	for _, item := range tree.Data {
		parts = append(parts, item.String())
	}

	return "(" + strings.Join(parts, " ") + ")"
}

func (forest *Forest) String() string {
	builder := &strings.Builder{}
	forest.Print(builder)
	return builder.String()
}

func (forest *Forest) Print(writer io.Writer) {
	fmt.Fprintf(writer, "forest %s:\n", forest.FunctionName)
	for _, root := range forest.Roots {
		tree := forest.nodes[root]
		fmt.Fprintf(
			writer,
			"  %d [weight %d]: %s\n",
			tree.Source,
			tree.Weight,
			forest.TreeString(root))
	}
}
