package ast

import (
	"fmt"
	"strconv"
)

type ItemKind int

const (
	// The zero item is "no operand" (e.g., a call without destination).
	NoItem = ItemKind(iota)
	VariableItem
	RegisterItem
	ImmediateItem
	LabelItem
)

func (kind ItemKind) String() string {
	switch kind {
	case NoItem:
		return "none"
	case VariableItem:
		return "variable"
	case RegisterItem:
		return "register"
	case ImmediateItem:
		return "immediate"
	case LabelItem:
		return "label"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(kind))
	}
}

// An operand slot.  Variables are symbolic (pre-allocation) names, registers
// are physical register names.  Labels cover both block labels and function
// names (the name excludes the ':' prefix).
type Item struct {
	Kind ItemKind

	Name string // variable, register or label name

	Value int64 // immediate value
}

func Variable(name string) Item {
	return Item{Kind: VariableItem, Name: name}
}

func Register(name string) Item {
	return Item{Kind: RegisterItem, Name: name}
}

func Immediate(value int64) Item {
	return Item{Kind: ImmediateItem, Value: value}
}

func LabelRef(name string) Item {
	return Item{Kind: LabelItem, Name: name}
}

func (item Item) IsValid() bool {
	return item.Kind != NoItem
}

func (item Item) IsVariable() bool {
	return item.Kind == VariableItem
}

func (item Item) IsRegister() bool {
	return item.Kind == RegisterItem
}

func (item Item) IsImmediate() bool {
	return item.Kind == ImmediateItem
}

func (item Item) IsLabel() bool {
	return item.Kind == LabelItem
}

// Variables and registers name storage; immediates and labels don't.
func (item Item) IsStorage() bool {
	return item.Kind == VariableItem || item.Kind == RegisterItem
}

// True if both items denote the same operand.
func (item Item) Same(other Item) bool {
	if item.Kind != other.Kind {
		return false
	}
	if item.Kind == ImmediateItem {
		return item.Value == other.Value
	}
	return item.Name == other.Name
}

func (item Item) String() string {
	switch item.Kind {
	case NoItem:
		return "<none>"
	case ImmediateItem:
		return strconv.FormatInt(item.Value, 10)
	case LabelItem:
		return ":" + item.Name
	default:
		return item.Name
	}
}

// (mem <base> <offset>)
type MemoryReference struct {
	Base   Item
	Offset int64
}

func (ref MemoryReference) String() string {
	return fmt.Sprintf("(mem %s %d)", ref.Base, ref.Offset)
}
