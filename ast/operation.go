package ast

import (
	"fmt"
	"strings"

	"github.com/pattyshack/gt/parseutil"
)

// Instructions of the form: <dest> <- (mem <base> <offset>)
type Load struct {
	instruction

	parseutil.StartEndPos

	Dest    Item
	Address MemoryReference
}

var _ Instruction = &Load{}

func (load *Load) Items() []*Item {
	return []*Item{&load.Dest, &load.Address.Base}
}

func (load *Load) Copy() Instruction {
	copied := *load
	return &copied
}

func (load *Load) Validate(emitter *parseutil.Emitter) {
	validateDestination(emitter, load, load.Dest)
	validateMemoryReference(emitter, load, load.Address)
}

func (load *Load) String() string {
	return fmt.Sprintf("(%s <- %s)", load.Dest, load.Address)
}

// Instructions of the form: (mem <base> <offset>) <- <src>
type Store struct {
	instruction

	parseutil.StartEndPos

	Address MemoryReference
	Src     Item
}

var _ Instruction = &Store{}

func (store *Store) Items() []*Item {
	return []*Item{&store.Address.Base, &store.Src}
}

func (store *Store) Copy() Instruction {
	copied := *store
	return &copied
}

func (store *Store) Validate(emitter *parseutil.Emitter) {
	validateMemoryReference(emitter, store, store.Address)
	validateSource(emitter, store, store.Src)
}

func (store *Store) String() string {
	return fmt.Sprintf("(%s <- %s)", store.Address, store.Src)
}

func validateMemoryReference(
	emitter *parseutil.Emitter,
	inst Instruction,
	ref MemoryReference,
) {
	if !ref.Base.IsStorage() {
		emitter.Emit(
			inst.Loc(),
			"memory reference base (%s) must be a variable or a register",
			ref.Base)
	}
	if ref.Offset%8 != 0 {
		emitter.Emit(
			inst.Loc(),
			"memory reference offset (%d) is not a multiple of 8",
			ref.Offset)
	}
}

// Instructions of the form: <dest> <- <src>
type Assignment struct {
	instruction

	parseutil.StartEndPos

	Dest Item
	Src  Item
}

var _ Instruction = &Assignment{}

// A register-to-register copy.  Copies are exempt from the kill/out
// interference clique so that the destination may share the source's
// register.
func (assign *Assignment) IsCopy() bool {
	return assign.Src.IsStorage()
}

func (assign *Assignment) Items() []*Item {
	return []*Item{&assign.Dest, &assign.Src}
}

func (assign *Assignment) Copy() Instruction {
	copied := *assign
	return &copied
}

func (assign *Assignment) Validate(emitter *parseutil.Emitter) {
	validateDestination(emitter, assign, assign.Dest)
	validateSource(emitter, assign, assign.Src)
}

func (assign *Assignment) String() string {
	return fmt.Sprintf("(%s <- %s)", assign.Dest, assign.Src)
}

type ArithmeticKind string

const (
	Add = ArithmeticKind("+")
	Sub = ArithmeticKind("-")
	Mul = ArithmeticKind("*")
	And = ArithmeticKind("&")
)

func (kind ArithmeticKind) IsCommutative() bool {
	return kind == Add || kind == Mul || kind == And
}

func (kind ArithmeticKind) validate(
	emitter *parseutil.Emitter,
	inst Instruction,
) {
	switch kind {
	case Add, Sub, Mul, And: // ok
	default:
		emitter.Emit(inst.Loc(), "unexpected arithmetic operation (%s)", kind)
	}
}

// Instructions of the form: <dest> <- <src1> <op> <src2>
//
// The two-address form (<dest> <op>= <src2>) is expressed with Src1 equal to
// Dest.
type ArithmeticOperation struct {
	instruction

	parseutil.StartEndPos

	Kind ArithmeticKind

	Dest Item
	Src1 Item
	Src2 Item
}

var _ Instruction = &ArithmeticOperation{}

func (arith *ArithmeticOperation) IsTwoAddress() bool {
	return arith.Dest.Same(arith.Src1)
}

func (arith *ArithmeticOperation) Items() []*Item {
	return []*Item{&arith.Dest, &arith.Src1, &arith.Src2}
}

func (arith *ArithmeticOperation) Copy() Instruction {
	copied := *arith
	return &copied
}

func (arith *ArithmeticOperation) Validate(emitter *parseutil.Emitter) {
	arith.Kind.validate(emitter, arith)
	validateDestination(emitter, arith, arith.Dest)
	validateSource(emitter, arith, arith.Src1)
	validateSource(emitter, arith, arith.Src2)
}

func (arith *ArithmeticOperation) String() string {
	if arith.IsTwoAddress() {
		return fmt.Sprintf("(%s %s= %s)", arith.Dest, arith.Kind, arith.Src2)
	}
	return fmt.Sprintf(
		"(%s <- %s %s %s)",
		arith.Dest,
		arith.Src1,
		arith.Kind,
		arith.Src2)
}

type MemoryOrientation string

const (
	// (mem x M) <op>= t
	MemoryIsDestination = MemoryOrientation("memory-destination")
	// w <op>= (mem x M)
	MemoryIsSource = MemoryOrientation("memory-source")
)

type MemoryArithmeticOperation struct {
	instruction

	parseutil.StartEndPos

	Kind        ArithmeticKind
	Orientation MemoryOrientation

	Address MemoryReference

	// The destination when memory is the source, otherwise the source.
	Register Item
}

var _ Instruction = &MemoryArithmeticOperation{}

func (arith *MemoryArithmeticOperation) Items() []*Item {
	return []*Item{&arith.Address.Base, &arith.Register}
}

func (arith *MemoryArithmeticOperation) Copy() Instruction {
	copied := *arith
	return &copied
}

func (arith *MemoryArithmeticOperation) Validate(emitter *parseutil.Emitter) {
	arith.Kind.validate(emitter, arith)
	validateMemoryReference(emitter, arith, arith.Address)

	switch arith.Orientation {
	case MemoryIsDestination:
		validateSource(emitter, arith, arith.Register)
	case MemoryIsSource:
		validateDestination(emitter, arith, arith.Register)
	default:
		emitter.Emit(
			arith.Loc(),
			"unexpected memory arithmetic orientation (%s)",
			arith.Orientation)
	}
}

func (arith *MemoryArithmeticOperation) String() string {
	if arith.Orientation == MemoryIsDestination {
		return fmt.Sprintf("(%s %s= %s)", arith.Address, arith.Kind, arith.Register)
	}
	return fmt.Sprintf("(%s %s= %s)", arith.Register, arith.Kind, arith.Address)
}

type ShiftKind string

const (
	ShiftLeft  = ShiftKind("<<")
	ShiftRight = ShiftKind(">>")
)

// Instructions of the form: <dest> <- <src1> <op> <src2>.  Like arithmetic
// operations, the two-address form has Src1 equal to Dest.  A non-immediate
// shift count (Src2) must live in the architecture's shift count register.
type ShiftOperation struct {
	instruction

	parseutil.StartEndPos

	Kind ShiftKind

	Dest Item
	Src1 Item
	Src2 Item
}

var _ Instruction = &ShiftOperation{}

func (shift *ShiftOperation) IsTwoAddress() bool {
	return shift.Dest.Same(shift.Src1)
}

func (shift *ShiftOperation) Items() []*Item {
	return []*Item{&shift.Dest, &shift.Src1, &shift.Src2}
}

func (shift *ShiftOperation) Copy() Instruction {
	copied := *shift
	return &copied
}

func (shift *ShiftOperation) Validate(emitter *parseutil.Emitter) {
	switch shift.Kind {
	case ShiftLeft, ShiftRight: // ok
	default:
		emitter.Emit(shift.Loc(), "unexpected shift operation (%s)", shift.Kind)
	}
	validateDestination(emitter, shift, shift.Dest)
	validateSource(emitter, shift, shift.Src1)
	validateSource(emitter, shift, shift.Src2)
}

func (shift *ShiftOperation) String() string {
	if shift.IsTwoAddress() {
		return fmt.Sprintf("(%s %s= %s)", shift.Dest, shift.Kind, shift.Src2)
	}
	return fmt.Sprintf(
		"(%s <- %s %s %s)",
		shift.Dest,
		shift.Src1,
		shift.Kind,
		shift.Src2)
}

type ComparisonKind string

const (
	LessThan     = ComparisonKind("<")
	LessEqual    = ComparisonKind("<=")
	Equal        = ComparisonKind("=")
	GreaterThan  = ComparisonKind(">")
	GreaterEqual = ComparisonKind(">=")
)

// Greater than / greater equal are rewritten into less than / less equal
// with swapped operands.  The returned bool indicates whether the operands
// must be swapped.
func (kind ComparisonKind) Normalize() (ComparisonKind, bool) {
	switch kind {
	case GreaterThan:
		return LessThan, true
	case GreaterEqual:
		return LessEqual, true
	default:
		return kind, false
	}
}

func (kind ComparisonKind) validate(
	emitter *parseutil.Emitter,
	inst Instruction,
) {
	switch kind {
	case LessThan, LessEqual, Equal, GreaterThan, GreaterEqual: // ok
	default:
		emitter.Emit(inst.Loc(), "unexpected comparison (%s)", kind)
	}
}

// Instructions of the form: <dest> <- <src1> <cmp> <src2>
type ComparisonOperation struct {
	instruction

	parseutil.StartEndPos

	Kind ComparisonKind

	Dest Item
	Src1 Item
	Src2 Item
}

var _ Instruction = &ComparisonOperation{}

func (cmp *ComparisonOperation) Items() []*Item {
	return []*Item{&cmp.Dest, &cmp.Src1, &cmp.Src2}
}

func (cmp *ComparisonOperation) Copy() Instruction {
	copied := *cmp
	return &copied
}

func (cmp *ComparisonOperation) Validate(emitter *parseutil.Emitter) {
	cmp.Kind.validate(emitter, cmp)
	validateDestination(emitter, cmp, cmp.Dest)
	validateSource(emitter, cmp, cmp.Src1)
	validateSource(emitter, cmp, cmp.Src2)
}

func (cmp *ComparisonOperation) String() string {
	return fmt.Sprintf("(%s <- %s %s %s)", cmp.Dest, cmp.Src1, cmp.Kind, cmp.Src2)
}

// Instructions of the form: <dest> @ <start> <multiplier> <scale>
// i.e., dest = start + multiplier * scale
type WideAddress struct {
	instruction

	parseutil.StartEndPos

	Dest       Item
	Start      Item
	Multiplier Item
	Scale      int64
}

var _ Instruction = &WideAddress{}

func (wide *WideAddress) Items() []*Item {
	return []*Item{&wide.Dest, &wide.Start, &wide.Multiplier}
}

func (wide *WideAddress) Copy() Instruction {
	copied := *wide
	return &copied
}

func (wide *WideAddress) Validate(emitter *parseutil.Emitter) {
	validateDestination(emitter, wide, wide.Dest)
	if !wide.Start.IsStorage() || !wide.Multiplier.IsStorage() {
		emitter.Emit(
			wide.Loc(),
			"wide address operands must be variables or registers")
	}
	switch wide.Scale {
	case 1, 2, 4, 8: // ok
	default:
		emitter.Emit(wide.Loc(), "unexpected wide address scale (%d)", wide.Scale)
	}
}

func (wide *WideAddress) String() string {
	return fmt.Sprintf(
		"(%s @ %s %s %d)",
		wide.Dest,
		wide.Start,
		wide.Multiplier,
		wide.Scale)
}

// Instructions of the form: [<dest> <-] call <callee> <args>
//
// Register level code carries only NumArgs (the arguments are already in
// argument registers / outgoing stack slots).  Higher level code carries the
// argument list as well, in which case NumArgs equals len(Args).
type FuncCall struct {
	instruction

	parseutil.StartEndPos

	Dest    Item // optional
	Callee  Item // label or (indirect) variable / register
	Args    []Item
	NumArgs int
}

var _ Instruction = &FuncCall{}

func (call *FuncCall) Items() []*Item {
	items := []*Item{&call.Dest, &call.Callee}
	for idx := range call.Args {
		items = append(items, &call.Args[idx])
	}
	return items
}

func (call *FuncCall) Copy() Instruction {
	copied := *call
	copied.Args = append([]Item(nil), call.Args...)
	return &copied
}

func (call *FuncCall) Validate(emitter *parseutil.Emitter) {
	if call.Dest.IsValid() {
		validateDestination(emitter, call, call.Dest)
	}
	if !call.Callee.IsValid() || call.Callee.IsImmediate() {
		emitter.Emit(call.Loc(), "invalid callee (%s)", call.Callee)
	}
	validateArgs(emitter, call, call.Args, call.NumArgs)
}

func (call *FuncCall) String() string {
	return callString(call.Dest, call.Callee.String(), call.Args, call.NumArgs)
}

// Calls into the language runtime (print, allocate, ...).  Runtime calls
// never push a return label.
type RuntimeCall struct {
	instruction

	parseutil.StartEndPos

	Dest    Item // optional
	Callee  string
	Args    []Item
	NumArgs int
}

var _ Instruction = &RuntimeCall{}

func (call *RuntimeCall) Items() []*Item {
	items := []*Item{&call.Dest}
	for idx := range call.Args {
		items = append(items, &call.Args[idx])
	}
	return items
}

func (call *RuntimeCall) Copy() Instruction {
	copied := *call
	copied.Args = append([]Item(nil), call.Args...)
	return &copied
}

func (call *RuntimeCall) Validate(emitter *parseutil.Emitter) {
	if call.Dest.IsValid() {
		validateDestination(emitter, call, call.Dest)
	}
	if call.Callee == "" {
		emitter.Emit(call.Loc(), "empty runtime callee name")
	}
	validateArgs(emitter, call, call.Args, call.NumArgs)
}

func (call *RuntimeCall) String() string {
	return callString(call.Dest, call.Callee, call.Args, call.NumArgs)
}

func validateArgs(
	emitter *parseutil.Emitter,
	inst Instruction,
	args []Item,
	numArgs int,
) {
	if numArgs < 0 {
		emitter.Emit(inst.Loc(), "negative number of arguments (%d)", numArgs)
	}
	if len(args) > 0 && len(args) != numArgs {
		emitter.Emit(
			inst.Loc(),
			"argument list size (%d) does not match number of arguments (%d)",
			len(args),
			numArgs)
	}
	for _, arg := range args {
		validateSource(emitter, inst, arg)
	}
}

func callString(dest Item, callee string, args []Item, numArgs int) string {
	if len(args) == 0 && !dest.IsValid() {
		return fmt.Sprintf("(call %s %d)", callee, numArgs)
	}

	argStrings := make([]string, 0, len(args))
	for _, arg := range args {
		argStrings = append(argStrings, arg.String())
	}

	call := fmt.Sprintf("call %s(%s)", callee, strings.Join(argStrings, ", "))
	if dest.IsValid() {
		return fmt.Sprintf("(%s <- %s)", dest, call)
	}
	return "(" + call + ")"
}
