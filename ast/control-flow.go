package ast

import (
	"fmt"
	"strings"

	"github.com/pattyshack/gt/parseutil"
)

type ControlFlowInstruction interface {
	Instruction
	isControlFlow()
}

type controlFlowInstruction struct {
	instruction
}

func (controlFlowInstruction) isControlFlow() {}

// Branch target of the form: :<name>
type Label struct {
	instruction

	parseutil.StartEndPos

	Name string
}

var _ Instruction = &Label{}

func (Label) Items() []*Item {
	return nil
}

func (label *Label) Copy() Instruction {
	copied := *label
	return &copied
}

func (label *Label) Validate(emitter *parseutil.Emitter) {
	validateLabelName(emitter, label, label.Name)
}

func (label *Label) String() string {
	return ":" + label.Name
}

// Unconditional jump instruction of the form: goto :<label>
type Jump struct {
	controlFlowInstruction

	parseutil.StartEndPos

	Label string
}

var _ ControlFlowInstruction = &Jump{}

func (Jump) Items() []*Item {
	return nil
}

func (jump *Jump) Copy() Instruction {
	copied := *jump
	return &copied
}

func (jump *Jump) Validate(emitter *parseutil.Emitter) {
	validateLabelName(emitter, jump, jump.Label)
}

func (jump *Jump) String() string {
	return fmt.Sprintf("(goto :%s)", jump.Label)
}

// Instructions of the form: cjump <src1> <cmp> <src2> :<then> [:<else>]
//
// When Else is empty, the jump falls through to the next instruction.
type ConditionalJump struct {
	controlFlowInstruction

	parseutil.StartEndPos

	Kind ComparisonKind

	Src1 Item
	Src2 Item

	Then string
	Else string // optional
}

var _ ControlFlowInstruction = &ConditionalJump{}

func (jump *ConditionalJump) Items() []*Item {
	return []*Item{&jump.Src1, &jump.Src2}
}

func (jump *ConditionalJump) Copy() Instruction {
	copied := *jump
	return &copied
}

func (jump *ConditionalJump) Validate(emitter *parseutil.Emitter) {
	jump.Kind.validate(emitter, jump)
	validateSource(emitter, jump, jump.Src1)
	validateSource(emitter, jump, jump.Src2)
	validateLabelName(emitter, jump, jump.Then)
	if jump.Else != "" {
		validateLabelName(emitter, jump, jump.Else)
	}
}

func (jump *ConditionalJump) String() string {
	if jump.Else == "" {
		return fmt.Sprintf(
			"(cjump %s %s %s :%s)",
			jump.Src1,
			jump.Kind,
			jump.Src2,
			jump.Then)
	}
	return fmt.Sprintf(
		"(cjump %s %s %s :%s :%s)",
		jump.Src1,
		jump.Kind,
		jump.Src2,
		jump.Then,
		jump.Else)
}

// Return without value.  At register level, the return value (if any) has
// already been moved into the return register.
type Return struct {
	controlFlowInstruction

	parseutil.StartEndPos
}

var _ ControlFlowInstruction = &Return{}

func (Return) Items() []*Item {
	return nil
}

func (ret *Return) Copy() Instruction {
	copied := *ret
	return &copied
}

func (Return) Validate(*parseutil.Emitter) {}

func (Return) String() string {
	return "(return)"
}

// Instructions of the form: return <value>
type ReturnValue struct {
	controlFlowInstruction

	parseutil.StartEndPos

	Value Item
}

var _ ControlFlowInstruction = &ReturnValue{}

func (ret *ReturnValue) Items() []*Item {
	return []*Item{&ret.Value}
}

func (ret *ReturnValue) Copy() Instruction {
	copied := *ret
	return &copied
}

func (ret *ReturnValue) Validate(emitter *parseutil.Emitter) {
	validateSource(emitter, ret, ret.Value)
}

func (ret *ReturnValue) String() string {
	return fmt.Sprintf("(return %s)", ret.Value)
}

// Return true if control never falls through to the next instruction.
func IsTerminal(inst Instruction) bool {
	switch inst.(type) {
	case *Jump, *Return, *ReturnValue:
		return true
	}
	return false
}

func validateLabelName(
	emitter *parseutil.Emitter,
	inst Instruction,
	name string,
) {
	if name == "" {
		emitter.Emit(inst.Loc(), "empty label name")
	} else if strings.HasPrefix(name, ":") {
		emitter.Emit(inst.Loc(), "label name (%s) should not include ':'", name)
	}
}
