package allocator

import (
	"fmt"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
)

// Spiller relocates a variable onto its own stack slot.  Every instruction
// that references the variable is replaced by
//
//	<tmp> <- (mem <stack pointer> <slot offset>)
//	<instruction with the variable replaced by tmp>
//	(mem <stack pointer> <slot offset>) <- <tmp>
//
// where each rewrite gets a fresh temporary named <name>.s<slot>.<n>.
type Spiller struct {
	stackPointer ast.Item

	Frame *architecture.StackFrame
}

func NewSpiller(
	registers *architecture.RegisterSet,
	frame *architecture.StackFrame,
) *Spiller {
	return &Spiller{
		stackPointer: registers.StackPointer.Item(),
		Frame:        frame,
	}
}

// Returns a new function; the input function is not modified.
func (spiller *Spiller) Spill(
	fn *ast.Function,
	name string,
) (
	*ast.Function,
	*architecture.DataLocation,
) {
	loc := spiller.Frame.AllocateSlot(name)

	spilled := &ast.Function{
		StartEndPos:  fn.StartEndPos,
		Name:         fn.Name,
		NumArgs:      fn.NumArgs,
		Locals:       spiller.Frame.Locals,
		Instructions: make([]ast.Instruction, 0, len(fn.Instructions)),
		Variables:    make(map[string]struct{}, len(fn.Variables)),
	}

	for variable := range fn.Variables {
		if variable != name {
			spilled.Variables[variable] = struct{}{}
		}
	}

	address := ast.MemoryReference{
		Base:   spiller.stackPointer,
		Offset: loc.Offset,
	}

	tmpCount := 0
	for _, inst := range fn.Instructions {
		if !ast.References(inst, name) {
			spilled.Instructions = append(spilled.Instructions, inst.Copy())
			continue
		}

		tmp := spiller.newTemp(fn, spilled, name, loc.Slot, &tmpCount)
		pos := parseutil.NewStartEndPos(inst.Loc(), inst.Loc())

		rewritten := ast.Rewrite(
			inst,
			func(item ast.Item) ast.Item {
				if item.IsVariable() && item.Name == name {
					return tmp
				}
				return item
			})

		spilled.Instructions = append(
			spilled.Instructions,
			&ast.Load{
				StartEndPos: pos,
				Dest:        tmp,
				Address:     address,
			},
			rewritten,
			&ast.Store{
				StartEndPos: pos,
				Address:     address,
				Src:         tmp,
			})
	}

	return spilled, loc
}

func (spiller *Spiller) newTemp(
	orig *ast.Function,
	spilled *ast.Function,
	name string,
	slot int,
	count *int,
) ast.Item {
	for {
		tmp := fmt.Sprintf("%s.s%d.%d", name, slot, *count)
		*count++

		_, ok := orig.Variables[tmp]
		if ok {
			continue
		}

		_, ok = spilled.Variables[tmp]
		if ok {
			continue
		}

		spilled.Variables[tmp] = struct{}{}
		return ast.Variable(tmp)
	}
}
