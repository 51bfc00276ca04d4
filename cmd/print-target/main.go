package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pattyshack/sparrow/platform"
	"github.com/pattyshack/sparrow/platform/x64"
)

func printTarget(target platform.Platform) {
	registers := target.ArchitectureRegisters()

	fmt.Printf(
		"Target: %s/%s\n",
		target.ArchitectureName(),
		target.OperatingSystemName())
	fmt.Println("Stack pointer:", registers.StackPointer.Name)
	fmt.Println("Colors:", registers.NumColors())

	for _, register := range registers.Colorable {
		saved := ""
		if register.IsCallerSaved {
			saved = " caller-saved"
		} else if register.IsCalleeSaved {
			saved = " callee-saved"
		}
		fmt.Printf("  color %2d: %s%s\n", register.Color, register.Name, saved)
	}

	args := []string{}
	for _, register := range registers.Arguments {
		args = append(args, register.Name)
	}
	fmt.Println("Arguments:", strings.Join(args, " "))
	fmt.Println("Return:", registers.Return.Name)
	fmt.Println("Shift count:", registers.ShiftCount.Name)

	fmt.Println("Runtime functions:")
	funcs := target.RuntimeFunctions()
	for _, name := range funcs.Names() {
		fn, _ := funcs.Get(name)
		fmt.Printf(
			"  %s: [%d, %d] arguments, returns: %v\n",
			name,
			fn.MinArgs,
			fn.MaxArgs,
			fn.Returns)
	}
}

func main() {
	if len(os.Args) < 2 {
		printTarget(x64.NewPlatform(platform.Linux))
		return
	}

	for _, fileName := range os.Args[1:] {
		fmt.Println("=====================")
		fmt.Println("File name:", fileName)
		fmt.Println("---------------------")
		content, err := os.ReadFile(fileName)
		if err != nil {
			fmt.Println("ReadFile error:", err)
			continue
		}

		target, err := platform.LoadTarget(content)
		if err != nil {
			fmt.Println("LoadTarget error:", err)
			continue
		}

		printTarget(target)
	}
}
