package architecture

import (
	"golang.org/x/exp/slices"
)

// Stack frame layout from top to bottom:
//
// |              | (low address)
// |--------------| <- stack pointer
// |local slot 0  | offset 0
// |--------------|
// |local slot 1  | offset 8
// |--------------|
// |...           |
// |--------------|
// |local slot n  | offset 8n
// |--------------|
// |ret address   |
// |--------------|
// |argument 7    | first argument that goes on the stack
// |--------------|
// |...           |
// |              | (high address)
//
// Outgoing stack arguments are written below the stack pointer prior to the
// call (see CallConvention.OutgoingArgumentOffset).
//
// Each spilled variable name occupies a unique, predetermined slot.  Slots
// are allocated in spill order; slot index = number of locals prior to the
// spill.
type StackFrame struct {
	// Number of slots allocated so far (includes slots allocated by earlier
	// passes, which are not tracked by name).
	Locals int

	// Spilled variable name -> location
	Locations map[string]*DataLocation
}

func NewStackFrame(locals int) *StackFrame {
	if locals < 0 {
		panic("negative number of locals")
	}

	return &StackFrame{
		Locals:    locals,
		Locations: map[string]*DataLocation{},
	}
}

func SlotOffset(slot int) int64 {
	return int64(slot) * RegisterByteSize
}

// Returns the existing location if the name was previously allocated.
func (frame *StackFrame) AllocateSlot(name string) *DataLocation {
	loc, ok := frame.Locations[name]
	if ok {
		return loc
	}

	loc = NewStackDataLocation(name, frame.Locals)
	frame.Locals++
	frame.Locations[name] = loc
	return loc
}

// Locations sorted by slot index.
func (frame *StackFrame) Layout() []*DataLocation {
	bySlot := make(map[int]*DataLocation, len(frame.Locations))
	slots := make([]int, 0, len(frame.Locations))
	for _, loc := range frame.Locations {
		bySlot[loc.Slot] = loc
		slots = append(slots, loc.Slot)
	}
	slices.Sort(slots)

	layout := make([]*DataLocation, 0, len(slots))
	for _, slot := range slots {
		layout = append(layout, bySlot[slot])
	}
	return layout
}

// The locals' portion of the frame, rounded up to the frame alignment.
func (frame *StackFrame) FrameSize() int {
	size := frame.Locals * RegisterByteSize
	roundUp := (size + StackFrameAlignment - 1) / StackFrameAlignment
	return roundUp * StackFrameAlignment
}
