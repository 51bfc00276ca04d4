package analyzer

import (
	"io"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/sparrow/analyzer/allocator"
	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/ast"
	"github.com/pattyshack/sparrow/platform"
)

type livenessPrinter struct {
	*parseutil.Emitter

	analyzer *allocator.LivenessAnalyzer
	output   io.Writer
}

// This is only for debugging purpose.
func PrintLiveness(
	output io.Writer,
	targetPlatform platform.Platform,
	emitter *parseutil.Emitter,
) util.Pass[*ast.Function] {
	return &livenessPrinter{
		Emitter:  emitter,
		analyzer: allocator.NewLivenessAnalyzer(targetPlatform),
		output:   output,
	}
}

func (printer *livenessPrinter) Process(fn *ast.Function) {
	live, err := printer.analyzer.Analyze(fn)
	if err != nil {
		printer.EmitErrors(err)
		return
	}

	err = allocator.PrintLiveness(printer.output, fn, live)
	if err != nil {
		printer.EmitErrors(err)
	}
}
