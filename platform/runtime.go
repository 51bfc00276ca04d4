package platform

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A function provided by the language runtime (e.g., print, allocate).
// Runtime calls do not push a return label.
type RuntimeFunction struct {
	Name string `yaml:"name"`

	// Accepted argument counts.
	MinArgs int `yaml:"min_args"`
	MaxArgs int `yaml:"max_args"`

	// When true, the result is returned in the return register.
	Returns bool `yaml:"returns"`
}

func (fn RuntimeFunction) AcceptsNumArgs(numArgs int) bool {
	return fn.MinArgs <= numArgs && numArgs <= fn.MaxArgs
}

type RuntimeFunctions map[string]RuntimeFunction

func (funcs RuntimeFunctions) Get(name string) (RuntimeFunction, bool) {
	fn, ok := funcs[name]
	return fn, ok
}

func (funcs RuntimeFunctions) IsRuntime(name string) bool {
	_, ok := funcs[name]
	return ok
}

// Sorted by name.
func (funcs RuntimeFunctions) Names() []string {
	names := maps.Keys(funcs)
	slices.Sort(names)
	return names
}
