package analyzer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pattyshack/gt/parseutil"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/analyzer/allocator"
	"github.com/pattyshack/sparrow/analyzer/selector"
	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

// Assign registers to every function in the program.  Functions are
// processed sequentially, in program order.  A failed function is reported
// to the emitter (and has a nil result) without stopping the remaining
// functions.
//
// Returns nil if the program is malformed.
func Allocate(
	prog *ast.Program,
	targetPlatform platform.Platform,
	emitter *parseutil.Emitter,
) []*allocator.Result {
	util.Process(
		prog,
		[]util.Pass[*ast.Program]{ValidateAstSyntax(emitter)},
		emitter.HasErrors)
	if emitter.HasErrors() {
		return nil
	}

	registerAllocator := &functionAllocator{
		Emitter:   emitter,
		allocator: allocator.NewAllocator(targetPlatform),
		results:   map[*ast.Function]*allocator.Result{},
	}

	passes := []util.Pass[*ast.Function]{}
	if tlog.If("liveness") {
		passes = append(passes, PrintLiveness(os.Stderr, targetPlatform, emitter))
	}
	passes = append(passes, registerAllocator)
	if tlog.If("dump") {
		passes = append(passes, &allocationDumper{registerAllocator})
	}

	results := make([]*allocator.Result, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		util.Process(fn, passes, nil)
		results = append(results, registerAllocator.results[fn])
	}

	return results
}

// The program with every successfully allocated function replaced by its
// register level form.  Failed functions are omitted.
func AllocatedProgram(
	prog *ast.Program,
	results []*allocator.Result,
) *ast.Program {
	allocated := &ast.Program{
		StartEndPos: prog.StartEndPos,
		Entry:       prog.Entry,
	}

	for _, result := range results {
		if result != nil {
			allocated.Functions = append(allocated.Functions, result.Function)
		}
	}

	return allocated
}

type functionAllocator struct {
	*parseutil.Emitter

	allocator *allocator.Allocator
	results   map[*ast.Function]*allocator.Result
}

func (pass *functionAllocator) Process(fn *ast.Function) {
	result, err := pass.allocator.Allocate(fn)
	if err != nil {
		pass.EmitErrors(err)
		return
	}
	pass.results[fn] = result
}

type allocationDumper struct {
	*functionAllocator
}

func (dumper *allocationDumper) Process(fn *ast.Function) {
	result, ok := dumper.results[fn]
	if !ok {
		return
	}
	tlog.Printw(
		"allocation",
		"function", fn.Name,
		"result", allocator.ResultString(result))
}

// Select register level instructions for every function in the program.
// Functions are processed sequentially, in program order.  A failed function
// is reported to the emitter (and has a nil selection) without stopping the
// remaining functions.
//
// Returns nil if the program is malformed.
func SelectInstructions(
	prog *ast.Program,
	targetPlatform platform.Platform,
	emitter *parseutil.Emitter,
) []*selector.Selection {
	util.Process(
		prog,
		[]util.Pass[*ast.Program]{ValidateAstSyntax(emitter)},
		emitter.HasErrors)
	if emitter.HasErrors() {
		return nil
	}

	instructionSelector := &functionSelector{
		Emitter:    emitter,
		selector:   selector.NewSelector(targetPlatform),
		selections: map[*ast.Function]*selector.Selection{},
	}

	passes := []util.Pass[*ast.Function]{instructionSelector}
	if tlog.If("dump") {
		passes = append(passes, &selectionDumper{instructionSelector})
	}

	selections := make([]*selector.Selection, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		util.Process(fn, passes, nil)
		selections = append(selections, instructionSelector.selections[fn])
	}

	return selections
}

type functionSelector struct {
	*parseutil.Emitter

	selector   *selector.Selector
	selections map[*ast.Function]*selector.Selection
}

func (pass *functionSelector) Process(fn *ast.Function) {
	selection, err := pass.selector.Select(fn)
	if err != nil {
		pass.EmitErrors(err)
		return
	}
	pass.selections[fn] = selection
}

type selectionDumper struct {
	*functionSelector
}

func (dumper *selectionDumper) Process(fn *ast.Function) {
	selection, ok := dumper.selections[fn]
	if !ok {
		return
	}
	tlog.Printw(
		"selection",
		"function", fn.Name,
		"forest", selection.Forest.String(),
		"instructions", len(selection.Instructions))
}

func SelectedProgramString(entry string, selections []*selector.Selection) string {
	buffer := &bytes.Buffer{}
	_ = PrintSelectedProgram(buffer, entry, selections)
	return buffer.String()
}

// Print the selected functions in the register level program form.  Failed
// (nil) selections are skipped.
func PrintSelectedProgram(
	output io.Writer,
	entry string,
	selections []*selector.Selection,
) error {
	_, err := fmt.Fprintf(output, "(:%s\n", entry)
	if err != nil {
		return err
	}

	for _, selection := range selections {
		if selection == nil {
			continue
		}

		err = selector.PrintSelection(output, selection, "  ")
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(output, ")\n")
	return err
}
