package architecture

import (
	"tlog.app/go/errors"

	"github.com/pattyshack/sparrow/ast"
)

const (
	// Assumption: we only support 64 bit architecture.
	RegisterByteSize = 8
	AddressByteSize  = RegisterByteSize

	// Stack frames are 16-byte aligned at call sites.
	StackFrameAlignment = 16
)

type Register struct {
	Name string

	// When true, the register is reserved for stack pointer.  The stack
	// pointer is never colorable and is ignored by liveness analysis.
	IsStackPointer bool

	// Index into the colorable register list (i.e., the register's color).
	// -1 for the stack pointer.
	Color int

	// Clobbered by calls.
	IsCallerSaved bool

	// Must hold the same value at function return as at function entry.
	IsCalleeSaved bool
}

func (register *Register) Item() ast.Item {
	return ast.Register(register.Name)
}

func (register *Register) String() string {
	return register.Name
}

// Register names grouped by role.  Colorable register order defines the
// color index.
type RegisterClassification struct {
	StackPointer string

	Colorable []string

	CallerSaved []string
	CalleeSaved []string

	// In argument order.
	Arguments []string

	Return string

	// Variable shift counts must live in this register.
	ShiftCount string
}

// Assumptions:
//
// 1. Each architecture have exactly one stack pointer register.  The stack
// pointer is always live and hence can't be used for coloring.
//
// 2. Every colorable register is either caller-saved or callee-saved, but not
// both.
//
// 3. Argument, return and shift count registers are colorable.
type RegisterSet struct {
	StackPointer *Register

	// In color order.
	Colorable []*Register

	CallerSaved []*Register
	CalleeSaved []*Register

	Arguments []*Register

	Return *Register

	ShiftCount *Register

	byName map[string]*Register
}

func NewRegisterSet(class RegisterClassification) (*RegisterSet, error) {
	set := &RegisterSet{
		byName: map[string]*Register{},
	}

	if class.StackPointer == "" {
		return nil, errors.New("no stack pointer register specified")
	}

	set.StackPointer = &Register{
		Name:           class.StackPointer,
		IsStackPointer: true,
		Color:          -1,
	}
	set.byName[class.StackPointer] = set.StackPointer

	if len(class.Colorable) == 0 {
		return nil, errors.New("no colorable register specified")
	}

	for idx, name := range class.Colorable {
		if name == "" {
			return nil, errors.New("no register name")
		}

		_, ok := set.byName[name]
		if ok {
			return nil, errors.New("added duplicate register: %s", name)
		}

		register := &Register{
			Name:  name,
			Color: idx,
		}
		set.byName[name] = register
		set.Colorable = append(set.Colorable, register)
	}

	var err error
	set.CallerSaved, err = set.lookupAll("caller-saved", class.CallerSaved)
	if err != nil {
		return nil, err
	}

	set.CalleeSaved, err = set.lookupAll("callee-saved", class.CalleeSaved)
	if err != nil {
		return nil, err
	}

	set.Arguments, err = set.lookupAll("argument", class.Arguments)
	if err != nil {
		return nil, err
	}

	set.Return, err = set.lookup("return", class.Return)
	if err != nil {
		return nil, err
	}

	set.ShiftCount, err = set.lookup("shift count", class.ShiftCount)
	if err != nil {
		return nil, err
	}

	for _, register := range set.CallerSaved {
		register.IsCallerSaved = true
	}

	for _, register := range set.CalleeSaved {
		if register.IsCallerSaved {
			return nil, errors.New(
				"register (%s) is both caller-saved and callee-saved",
				register.Name)
		}
		register.IsCalleeSaved = true
	}

	for _, register := range set.Colorable {
		if !register.IsCallerSaved && !register.IsCalleeSaved {
			return nil, errors.New(
				"register (%s) is neither caller-saved nor callee-saved",
				register.Name)
		}
	}

	if !set.Return.IsCallerSaved {
		return nil, errors.New(
			"return register (%s) must be caller-saved",
			set.Return.Name)
	}

	return set, nil
}

func (set *RegisterSet) lookup(role string, name string) (*Register, error) {
	if name == "" {
		return nil, errors.New("no %s register specified", role)
	}

	register, ok := set.byName[name]
	if !ok {
		return nil, errors.New("unknown %s register (%s)", role, name)
	}

	if register.IsStackPointer {
		return nil, errors.New(
			"stack pointer (%s) cannot be used as %s register",
			name,
			role)
	}

	return register, nil
}

func (set *RegisterSet) lookupAll(
	role string,
	names []string,
) (
	[]*Register,
	error,
) {
	result := make([]*Register, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		_, ok := seen[name]
		if ok {
			return nil, errors.New("duplicate %s register (%s)", role, name)
		}
		seen[name] = struct{}{}

		register, err := set.lookup(role, name)
		if err != nil {
			return nil, err
		}
		result = append(result, register)
	}
	return result, nil
}

// The coloring budget (k).
func (set *RegisterSet) NumColors() int {
	return len(set.Colorable)
}

func (set *RegisterSet) Get(name string) (*Register, bool) {
	register, ok := set.byName[name]
	return register, ok
}

// Returns nil if the color is out of range.
func (set *RegisterSet) ColorRegister(color int) *Register {
	if color < 0 || color >= len(set.Colorable) {
		return nil
	}
	return set.Colorable[color]
}

// True for variables and colorable registers.  Immediates, labels and the
// stack pointer are never tracked by liveness analysis.
func (set *RegisterSet) IsTracked(item ast.Item) bool {
	switch item.Kind {
	case ast.VariableItem:
		return true
	case ast.RegisterItem:
		register, ok := set.byName[item.Name]
		return ok && !register.IsStackPointer
	default:
		return false
	}
}

func (set *RegisterSet) IsStackPointer(item ast.Item) bool {
	return item.IsRegister() && item.Name == set.StackPointer.Name
}
