package allocator

import (
	"github.com/pattyshack/gt/parseutil"
	"golang.org/x/exp/slices"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

// A graph coloring register allocator.
//
// Each round recomputes liveness and the interference graph from scratch,
// then colors the graph.  Uncolorable variables are spilled onto the stack
// and the round is retried, until the graph is fully colored.
type Allocator struct {
	platform.Platform

	liveness *LivenessAnalyzer
	colorer  *GraphColorer
}

type Result struct {
	// The input function with every variable replaced by its register.
	Function *ast.Function

	// The final (spilled but not yet renamed) function, and its liveness /
	// interference / coloring.
	Spilled  *ast.Function
	Liveness *Liveness
	Graph    *InterferenceGraph
	Coloring *Coloring

	Frame *architecture.StackFrame

	// Variable name -> final location.  Includes spilled variables.
	Locations map[string]*architecture.DataLocation

	// Number of coloring attempts.
	Rounds int

	// Spilled variable names, in spill order.
	SpilledNames []string
}

func NewAllocator(targetPlatform platform.Platform) *Allocator {
	return &Allocator{
		Platform: targetPlatform,
		liveness: NewLivenessAnalyzer(targetPlatform),
		colorer:  NewGraphColorer(targetPlatform.ArchitectureRegisters()),
	}
}

func (allocator *Allocator) Allocate(fn *ast.Function) (*Result, error) {
	registers := allocator.ArchitectureRegisters()

	err := checkRegisterLevelCalls(fn)
	if err != nil {
		return nil, err
	}

	for _, name := range util.NameSet(fn.Variables).Sorted() {
		_, ok := registers.Get(name)
		if ok {
			return nil, parseutil.NewLocationError(
				fn.Loc(),
				"variable (%s) shadows a register name in function %s",
				name,
				fn.Name)
		}
	}

	frame := architecture.NewStackFrame(fn.Locals)
	spiller := NewSpiller(registers, frame)

	maxRounds := len(fn.Variables) + 1

	result := &Result{
		Frame: frame,
	}

	current := fn
	for {
		result.Rounds++
		if result.Rounds > maxRounds {
			return nil, errors.New(
				"function %s: spilling did not converge after %d rounds",
				fn.Name,
				maxRounds)
		}

		live, err := allocator.liveness.Analyze(current)
		if err != nil {
			return nil, errors.Wrap(err, "function %s", fn.Name)
		}

		graph := BuildInterferenceGraph(registers, current, live)
		coloring := allocator.colorer.Color(graph)

		if coloring.IsComplete() {
			result.Spilled = current
			result.Liveness = live
			result.Graph = graph
			result.Coloring = coloring
			break
		}

		spills := slices.Clone(coloring.Spills)
		slices.Sort(spills)

		tlog.Printw(
			"spill round",
			"function", fn.Name,
			"round", result.Rounds,
			"spills", spills)

		for _, name := range spills {
			current, _ = spiller.Spill(current, name)
			result.SpilledNames = append(result.SpilledNames, name)
		}
	}

	result.Function = RenameRegisters(registers, result.Spilled, result.Coloring)

	result.Locations = map[string]*architecture.DataLocation{}
	for name := range result.Spilled.Variables {
		register := registers.ColorRegister(result.Coloring.Colors[name])
		result.Locations[name] = architecture.NewRegisterDataLocation(
			name,
			register)
	}
	for name, loc := range frame.Locations {
		result.Locations[name] = loc
	}

	tlog.Printw(
		"allocated",
		"function", fn.Name,
		"rounds", result.Rounds,
		"spilled", len(result.SpilledNames),
		"locals", result.Function.Locals)

	return result, nil
}

// Calls must be in register level form: the arguments are already in
// argument registers / stack slots, and the result is read from the return
// register by a subsequent instruction.
func checkRegisterLevelCalls(fn *ast.Function) error {
	for idx, in := range fn.Instructions {
		var dest ast.Item
		var args []ast.Item
		switch inst := in.(type) {
		case *ast.FuncCall:
			dest = inst.Dest
			args = inst.Args
		case *ast.RuntimeCall:
			dest = inst.Dest
			args = inst.Args
		default:
			continue
		}

		if dest.IsValid() || len(args) > 0 {
			return parseutil.NewLocationError(
				in.Loc(),
				"instruction %d: call in function %s is not in register level form",
				idx,
				fn.Name)
		}
	}
	return nil
}
