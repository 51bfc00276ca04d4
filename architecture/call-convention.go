package architecture

// The register-level calling convention shared by function calls and
// runtime calls.
//
// The first len(Arguments) arguments are passed in argument registers (in
// order); the remaining arguments are passed on the stack.  Calls clobber
// every caller-saved register, and the callee must preserve every
// callee-saved register.  Non-runtime calls push a return label immediately
// below the stack pointer.
type CallConvention struct {
	Registers *RegisterSet
}

func NewCallConvention(registers *RegisterSet) *CallConvention {
	return &CallConvention{
		Registers: registers,
	}
}

func (con *CallConvention) NumRegisterArguments(numArgs int) int {
	if numArgs < len(con.Registers.Arguments) {
		return numArgs
	}
	return len(con.Registers.Arguments)
}

// Argument registers read by a call with the given number of arguments.
func (con *CallConvention) ArgumentRegisters(numArgs int) []*Register {
	return con.Registers.Arguments[:con.NumRegisterArguments(numArgs)]
}

// The argument's register, or nil if the argument is passed on the stack.
func (con *CallConvention) ArgumentRegister(argIdx int) *Register {
	if argIdx < len(con.Registers.Arguments) {
		return con.Registers.Arguments[argIdx]
	}
	return nil
}

// Stack pointer relative offset of an outgoing stack argument.  Slot -8 is
// reserved for the return label, hence the first stack argument is at -16.
func (con *CallConvention) OutgoingArgumentOffset(argIdx int) int64 {
	stackIdx := argIdx - len(con.Registers.Arguments)
	if stackIdx < 0 {
		panic("should never happen")
	}
	return -AddressByteSize * int64(stackIdx+2)
}

// Stack pointer relative offset of the return label slot.
func (con *CallConvention) ReturnAddressOffset() int64 {
	return -AddressByteSize
}

// Registers clobbered by a call.
func (con *CallConvention) Clobbered() []*Register {
	return con.Registers.CallerSaved
}

// Registers that must hold their entry values at function return.
func (con *CallConvention) Preserved() []*Register {
	return con.Registers.CalleeSaved
}
