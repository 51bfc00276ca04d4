package architecture

import (
	"fmt"
)

// Where a variable lives after allocation.
//
// A data location is either completely in a register, or completely on the
// stack (i.e., the variable was spilled).
type DataLocation struct {
	Name string

	Register *Register

	OnStack bool

	// Stack slot index.  Only meaningful when OnStack is true.
	Slot int

	// All offsets are relative to the stack pointer:
	//
	// entry address = stack pointer address + offset
	Offset int64
}

func NewRegisterDataLocation(name string, register *Register) *DataLocation {
	return &DataLocation{
		Name:     name,
		Register: register,
	}
}

func NewStackDataLocation(name string, slot int) *DataLocation {
	return &DataLocation{
		Name:    name,
		OnStack: true,
		Slot:    slot,
		Offset:  SlotOffset(slot),
	}
}

func (loc *DataLocation) Copy() *DataLocation {
	copied := *loc
	return &copied
}

func (loc *DataLocation) String() string {
	if loc.OnStack {
		return fmt.Sprintf("%s: stack slot %d (offset %d)", loc.Name, loc.Slot, loc.Offset)
	}
	return fmt.Sprintf("%s: %s", loc.Name, loc.Register.Name)
}
