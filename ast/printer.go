package ast

import (
	"bytes"
	"fmt"
	"io"
)

const (
	indent = "  "
)

func FunctionString(fn *Function) string {
	buffer := &bytes.Buffer{}
	_ = PrintFunction(buffer, fn, "")
	return buffer.String()
}

func ProgramString(prog *Program) string {
	buffer := &bytes.Buffer{}
	_ = PrintProgram(buffer, prog)
	return buffer.String()
}

// Print the function in the textual form:
//
//	(:<name>
//	  <num args> <locals>
//	  <instruction>
//	  ...
//	)
func PrintFunction(output io.Writer, fn *Function, prefix string) error {
	printer := &printer{
		indent: prefix,
		writer: output,
	}
	printer.printFunction(fn)
	return printer.err
}

func PrintProgram(output io.Writer, prog *Program) error {
	printer := &printer{
		writer: output,
	}

	printer.write("(:%s\n", prog.Entry)
	printer.indent = indent
	for _, fn := range prog.Functions {
		printer.printFunction(fn)
	}
	printer.write(")\n")
	return printer.err
}

type printer struct {
	indent string
	writer io.Writer
	err    error
}

func (printer *printer) write(format string, args ...interface{}) {
	if printer.err != nil {
		return
	}

	if len(args) == 0 {
		_, printer.err = printer.writer.Write([]byte(format))
	} else {
		_, printer.err = fmt.Fprintf(printer.writer, format, args...)
	}
}

func (printer *printer) printFunction(fn *Function) {
	printer.write(printer.indent)
	printer.write("(:%s\n", fn.Name)
	printer.write(printer.indent + indent)
	printer.write("%d %d\n", fn.NumArgs, fn.Locals)
	for _, inst := range fn.Instructions {
		printer.write(printer.indent + indent)
		printer.write(inst.String())
		printer.write("\n")
	}
	printer.write(printer.indent)
	printer.write(")\n")
}
