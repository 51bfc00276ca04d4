package allocator

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pattyshack/sparrow/ast"
)

// This is only for debugging purpose.
func LivenessString(fn *ast.Function, live *Liveness) string {
	buffer := &bytes.Buffer{}
	_ = PrintLiveness(buffer, fn, live)
	return buffer.String()
}

func PrintLiveness(output io.Writer, fn *ast.Function, live *Liveness) error {
	printer := &livenessPrinter{
		writer: output,
	}

	printer.write("Function: %s (iterations: %d)\n", fn.Name, live.Iterations)
	for idx, inst := range fn.Instructions {
		printer.write("  %d: %s\n", idx, inst)
		printer.write("    Gen:  %s\n", live.Gen[idx])
		printer.write("    Kill: %s\n", live.Kill[idx])
		printer.write("    In:   %s\n", live.In[idx])
		printer.write("    Out:  %s\n", live.Out[idx])
		printer.write("    Successors: %v\n", live.Successors[idx])
	}

	return printer.err
}

type livenessPrinter struct {
	writer io.Writer
	err    error
}

func (printer *livenessPrinter) write(format string, args ...interface{}) {
	if printer.err != nil {
		return
	}
	_, printer.err = fmt.Fprintf(printer.writer, format, args...)
}
