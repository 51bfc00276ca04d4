package ast

import (
	"github.com/pattyshack/gt/parseutil"
)

type Validator interface {
	Validate(*parseutil.Emitter)
}

// Instruction is a closed union.  Only the instruction types declared in this
// package implement it; consumers type switch over the concrete types and
// panic on anything else.
type Instruction interface {
	Validator

	Loc() parseutil.Location
	String() string

	// Pointers to every operand slot of the instruction (destinations,
	// sources and memory reference bases), in a fixed per-kind order.
	Items() []*Item

	// Shallow copy with independently mutable operand slots.
	Copy() Instruction

	isInstruction()
}

type instruction struct{}

func (instruction) isInstruction() {}

// Rewrite returns a copy of the instruction where every operand slot has
// been passed through the mapping function.
func Rewrite(inst Instruction, mapping func(Item) Item) Instruction {
	copied := inst.Copy()
	for _, item := range copied.Items() {
		*item = mapping(*item)
	}
	return copied
}

// References returns true if any operand slot of the instruction is the
// named variable.
func References(inst Instruction, name string) bool {
	for _, item := range inst.Items() {
		if item.IsVariable() && item.Name == name {
			return true
		}
	}
	return false
}

func validateDestination(
	emitter *parseutil.Emitter,
	inst Instruction,
	dest Item,
) {
	if !dest.IsVariable() && !dest.IsRegister() {
		emitter.Emit(
			inst.Loc(),
			"destination (%s) must be a variable or a register",
			dest)
	}
}

func validateSource(
	emitter *parseutil.Emitter,
	inst Instruction,
	src Item,
) {
	if !src.IsValid() {
		emitter.Emit(inst.Loc(), "missing source operand")
	}
}
