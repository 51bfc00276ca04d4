package allocator

import (
	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
)

// Rewrite every variable item into its assigned register.  The coloring must
// be complete.
func RenameRegisters(
	registers *architecture.RegisterSet,
	fn *ast.Function,
	coloring *Coloring,
) *ast.Function {
	renamed := &ast.Function{
		StartEndPos:  fn.StartEndPos,
		Name:         fn.Name,
		NumArgs:      fn.NumArgs,
		Locals:       fn.Locals,
		Instructions: make([]ast.Instruction, 0, len(fn.Instructions)),
		Variables:    map[string]struct{}{},
	}

	mapping := func(item ast.Item) ast.Item {
		if !item.IsVariable() {
			return item
		}

		color, ok := coloring.Colors[item.Name]
		if !ok {
			panic("uncolored variable: " + item.Name)
		}

		return registers.ColorRegister(color).Item()
	}

	for _, inst := range fn.Instructions {
		renamed.Instructions = append(
			renamed.Instructions,
			ast.Rewrite(inst, mapping))
	}

	return renamed
}
