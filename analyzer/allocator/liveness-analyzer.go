package allocator

import (
	"github.com/pattyshack/gt/parseutil"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

// Per instruction index liveness facts.
//
// Invariant: len(Gen) == len(Kill) == len(In) == len(Out) == len(Successors)
// == number of instructions.
type Liveness struct {
	Gen  []util.NameSet
	Kill []util.NameSet

	In  []util.NameSet
	Out []util.NameSet

	// Fully resolved successor indices (0, 1 or 2 entries).
	Successors [][]int

	// Number of backward sweeps needed to reach the fixpoint (including the
	// final unchanged sweep).
	Iterations int
}

// Solve the backward dataflow equations
//
//	OUT(i) = U IN(s) for s in succ(i)
//	IN(i) = GEN(i) U (OUT(i) - KILL(i))
//
// by repeated reverse sweeps until no IN / OUT set changes.
func SolveLiveness(
	gen []util.NameSet,
	kill []util.NameSet,
	successors [][]int,
) (
	*Liveness,
	error,
) {
	numInsts := len(gen)
	if len(kill) != numInsts || len(successors) != numInsts {
		return nil, errors.New(
			"mismatched liveness inputs: %d gen sets, %d kill sets, "+
				"%d successor lists",
			len(gen),
			len(kill),
			len(successors))
	}

	for idx, succs := range successors {
		for _, succ := range succs {
			if succ < 0 || succ >= numInsts {
				return nil, errors.New(
					"instruction %d: successor index (%d) out of range",
					idx,
					succ)
			}
		}
	}

	live := &Liveness{
		Gen:        gen,
		Kill:       kill,
		In:         make([]util.NameSet, numInsts),
		Out:        make([]util.NameSet, numInsts),
		Successors: successors,
	}

	for idx := 0; idx < numInsts; idx++ {
		live.In[idx] = util.NameSet{}
		live.Out[idx] = util.NameSet{}
	}

	modified := true
	for modified {
		modified = false
		live.Iterations++

		for idx := numInsts - 1; idx >= 0; idx-- {
			out := util.NameSet{}
			for _, succ := range successors[idx] {
				out.AddAll(live.In[succ])
			}

			in := out.Difference(kill[idx])
			in.AddAll(gen[idx])

			if !out.Equal(live.Out[idx]) {
				live.Out[idx] = out
				modified = true
			}

			if !in.Equal(live.In[idx]) {
				live.In[idx] = in
				modified = true
			}
		}
	}

	return live, nil
}

type LivenessAnalyzer struct {
	registers  *architecture.RegisterSet
	convention *architecture.CallConvention
}

func NewLivenessAnalyzer(targetPlatform platform.Platform) *LivenessAnalyzer {
	return &LivenessAnalyzer{
		registers:  targetPlatform.ArchitectureRegisters(),
		convention: targetPlatform.CallConvention(),
	}
}

func (analyzer *LivenessAnalyzer) Analyze(fn *ast.Function) (*Liveness, error) {
	gen := make([]util.NameSet, 0, len(fn.Instructions))
	kill := make([]util.NameSet, 0, len(fn.Instructions))
	for idx, inst := range fn.Instructions {
		instGen, instKill, err := analyzer.GenKill(idx, inst)
		if err != nil {
			return nil, err
		}
		gen = append(gen, instGen)
		kill = append(kill, instKill)
	}

	successors, err := Successors(fn)
	if err != nil {
		return nil, err
	}

	live, err := SolveLiveness(gen, kill, successors)
	if err != nil {
		return nil, err
	}

	tlog.V("liveness").Printw(
		"liveness fixpoint",
		"function", fn.Name,
		"instructions", len(fn.Instructions),
		"iterations", live.Iterations)

	return live, nil
}

// Compute the instruction's GEN (names read) and KILL (names written) sets.
// Immediates, labels and the stack pointer are never tracked.
func (analyzer *LivenessAnalyzer) GenKill(
	idx int,
	in ast.Instruction,
) (
	util.NameSet,
	util.NameSet,
	error,
) {
	for _, item := range in.Items() {
		if !item.IsRegister() {
			continue
		}

		_, ok := analyzer.registers.Get(item.Name)
		if !ok {
			return nil, nil, parseutil.NewLocationError(
				in.Loc(),
				"instruction %d: unknown register (%s)",
				idx,
				item.Name)
		}
	}

	gen := util.NameSet{}
	kill := util.NameSet{}

	use := func(items ...ast.Item) {
		for _, item := range items {
			if analyzer.registers.IsTracked(item) {
				gen.Add(item.Name)
			}
		}
	}

	def := func(items ...ast.Item) {
		for _, item := range items {
			if analyzer.registers.IsTracked(item) {
				kill.Add(item.Name)
			}
		}
	}

	useRegisters := func(registers []*architecture.Register) {
		for _, register := range registers {
			gen.Add(register.Name)
		}
	}

	defRegisters := func(registers []*architecture.Register) {
		for _, register := range registers {
			kill.Add(register.Name)
		}
	}

	switch inst := in.(type) {
	case *ast.Load:
		use(inst.Address.Base)
		def(inst.Dest)
	case *ast.Store:
		use(inst.Address.Base, inst.Src)
	case *ast.Assignment:
		use(inst.Src)
		def(inst.Dest)
	case *ast.ArithmeticOperation:
		use(inst.Src1, inst.Src2)
		def(inst.Dest)
	case *ast.MemoryArithmeticOperation:
		use(inst.Address.Base, inst.Register)
		if inst.Orientation == ast.MemoryIsSource {
			def(inst.Register)
		}
	case *ast.ShiftOperation:
		use(inst.Src1, inst.Src2)
		def(inst.Dest)
	case *ast.ComparisonOperation:
		use(inst.Src1, inst.Src2)
		def(inst.Dest)
	case *ast.WideAddress:
		use(inst.Start, inst.Multiplier)
		def(inst.Dest)
	case *ast.Label, *ast.Jump:
		// no data flow
	case *ast.ConditionalJump:
		use(inst.Src1, inst.Src2)
	case *ast.FuncCall:
		use(inst.Callee)
		use(inst.Args...)
		useRegisters(analyzer.convention.ArgumentRegisters(inst.NumArgs))
		defRegisters(analyzer.convention.Clobbered())
		def(inst.Dest)
	case *ast.RuntimeCall:
		use(inst.Args...)
		useRegisters(analyzer.convention.ArgumentRegisters(inst.NumArgs))
		defRegisters(analyzer.convention.Clobbered())
		def(inst.Dest)
	case *ast.Return:
		useRegisters([]*architecture.Register{analyzer.registers.Return})
		useRegisters(analyzer.convention.Preserved())
	case *ast.ReturnValue:
		use(inst.Value)
		useRegisters(analyzer.convention.Preserved())
	default:
		panic("unhandled instruction: " + in.String())
	}

	return gen, kill, nil
}

// Resolve every instruction's successor indices.  Branch targets resolve to
// the first matching label in the function.
func Successors(fn *ast.Function) ([][]int, error) {
	resolve := func(idx int, inst ast.Instruction, name string) (int, error) {
		target := fn.LabelIndex(name)
		if target < 0 {
			return 0, parseutil.NewLocationError(
				inst.Loc(),
				"instruction %d: branch target (%s) not found in function %s",
				idx,
				name,
				fn.Name)
		}
		return target, nil
	}

	numInsts := len(fn.Instructions)
	successors := make([][]int, 0, numInsts)
	for idx, in := range fn.Instructions {
		var succs []int
		switch inst := in.(type) {
		case *ast.Jump:
			target, err := resolve(idx, inst, inst.Label)
			if err != nil {
				return nil, err
			}
			succs = []int{target}
		case *ast.ConditionalJump:
			target, err := resolve(idx, inst, inst.Then)
			if err != nil {
				return nil, err
			}
			succs = []int{target}

			if inst.Else != "" {
				target, err = resolve(idx, inst, inst.Else)
				if err != nil {
					return nil, err
				}
				succs = append(succs, target)
			} else if idx+1 < numInsts {
				succs = append(succs, idx+1)
			}
		case *ast.Return, *ast.ReturnValue:
			succs = []int{}
		default:
			if idx+1 < numInsts {
				succs = []int{idx + 1}
			} else {
				succs = []int{}
			}
		}

		successors = append(successors, succs)
	}

	return successors, nil
}
