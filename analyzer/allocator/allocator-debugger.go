package allocator

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/pattyshack/sparrow/ast"
)

// This is only for debugging purpose.
func ResultString(result *Result) string {
	buffer := &bytes.Buffer{}
	_ = PrintResult(buffer, result)
	return buffer.String()
}

func PrintResult(output io.Writer, result *Result) error {
	buffer := &bytes.Buffer{}
	printf := func(template string, args ...interface{}) {
		fmt.Fprintf(buffer, template, args...)
	}

	printf("Function: %s\n", result.Function.Name)
	printf("------------------------------------------\n")
	printf("Rounds: %d\n", result.Rounds)
	printf("Spilled: %v\n", result.SpilledNames)

	printf("------------------------------------------\n")
	_ = PrintLiveness(buffer, result.Spilled, result.Liveness)

	printf("------------------------------------------\n")
	printf("Interference:\n")
	for _, name := range result.Graph.Nodes() {
		printf("  %s: %s\n", name, result.Graph.Neighbors(name))
	}

	printf("------------------------------------------\n")
	printf("Data Locations:\n")
	names := maps.Keys(result.Locations)
	slices.Sort(names)
	for _, name := range names {
		printf("  %s\n", result.Locations[name])
	}

	printf("------------------------------------------\n")
	printf("Stack Frame (Size = %d):\n", result.Frame.FrameSize())
	printf("  Layout (top to bottom):\n")
	for _, entry := range result.Frame.Layout() {
		printf("    %s\n", entry)
	}

	printf("------------------------------------------\n")
	_ = ast.PrintFunction(buffer, result.Function, "")
	printf("==========================================\n")

	_, err := output.Write(buffer.Bytes())
	return err
}
