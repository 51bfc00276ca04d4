package ast

import (
	"github.com/pattyshack/gt/parseutil"
)

type Function struct {
	parseutil.StartEndPos

	Name string

	NumArgs int

	// Number of 8-byte stack slots reserved for spilled variables.
	Locals int

	Instructions []Instruction

	// Names of all variables referenced by the instructions.  Populated by
	// NewFunction / CollectVariables; maintained by the spiller.
	Variables map[string]struct{}
}

var _ Validator = &Function{}

func NewFunction(
	name string,
	numArgs int,
	locals int,
	instructions []Instruction,
) *Function {
	fn := &Function{
		Name:         name,
		NumArgs:      numArgs,
		Locals:       locals,
		Instructions: instructions,
	}
	fn.CollectVariables()
	return fn
}

// Recompute Variables from the instruction list.
func (fn *Function) CollectVariables() {
	fn.Variables = map[string]struct{}{}
	for _, inst := range fn.Instructions {
		for _, item := range inst.Items() {
			if item.IsVariable() {
				fn.Variables[item.Name] = struct{}{}
			}
		}
	}
}

// Copy returns a function with its own instruction list and variable set.
// The instructions themselves are copied as well.
func (fn *Function) Copy() *Function {
	copied := *fn

	copied.Instructions = make([]Instruction, 0, len(fn.Instructions))
	for _, inst := range fn.Instructions {
		copied.Instructions = append(copied.Instructions, inst.Copy())
	}

	copied.Variables = make(map[string]struct{}, len(fn.Variables))
	for name := range fn.Variables {
		copied.Variables[name] = struct{}{}
	}

	return &copied
}

// Returns the index of the first label with the given name, or -1.
func (fn *Function) LabelIndex(name string) int {
	for idx, inst := range fn.Instructions {
		label, ok := inst.(*Label)
		if ok && label.Name == name {
			return idx
		}
	}
	return -1
}

func (fn *Function) Validate(emitter *parseutil.Emitter) {
	if fn.Name == "" {
		emitter.Emit(fn.Loc(), "empty function name")
	}

	if fn.NumArgs < 0 {
		emitter.Emit(fn.Loc(), "negative number of arguments (%d)", fn.NumArgs)
	}

	if fn.Locals < 0 {
		emitter.Emit(fn.Loc(), "negative number of locals (%d)", fn.Locals)
	}

	labels := map[string]*Label{}
	for _, inst := range fn.Instructions {
		inst.Validate(emitter)

		label, ok := inst.(*Label)
		if !ok {
			continue
		}

		prev, ok := labels[label.Name]
		if ok {
			emitter.Emit(
				label.Loc(),
				"label (%s) previously defined at (%s)",
				label.Name,
				prev.Loc().ShortString())
		} else {
			labels[label.Name] = label
		}
	}

	checkTarget := func(inst Instruction, target string) {
		if target == "" {
			return
		}
		_, ok := labels[target]
		if !ok {
			emitter.Emit(inst.Loc(), "undefined label (%s)", target)
		}
	}

	for _, in := range fn.Instructions {
		switch inst := in.(type) {
		case *Jump:
			checkTarget(inst, inst.Label)
		case *ConditionalJump:
			checkTarget(inst, inst.Then)
			checkTarget(inst, inst.Else)
		}
	}
}

type Program struct {
	parseutil.StartEndPos

	// Name of the entry function.
	Entry string

	Functions []*Function
}

var _ Validator = &Program{}

func (prog *Program) Validate(emitter *parseutil.Emitter) {
	names := map[string]*Function{}
	for _, fn := range prog.Functions {
		fn.Validate(emitter)

		prev, ok := names[fn.Name]
		if ok {
			emitter.Emit(
				fn.Loc(),
				"function (%s) previously defined at (%s)",
				fn.Name,
				prev.Loc().ShortString())
		} else {
			names[fn.Name] = fn
		}
	}

	if prog.Entry != "" {
		_, ok := names[prog.Entry]
		if !ok {
			emitter.Emit(prog.Loc(), "entry function (%s) not defined", prog.Entry)
		}
	}
}
