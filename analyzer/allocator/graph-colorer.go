package allocator

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/architecture"
)

type Coloring struct {
	// name -> color.  Uncolorable (spilled) names are absent.
	Colors map[string]int

	// Names that could not be colored, in selection order.
	Spills []string
}

func (coloring *Coloring) IsComplete() bool {
	return len(coloring.Spills) == 0
}

// Chaitin style simplify / select graph colorer.
type GraphColorer struct {
	registers *architecture.RegisterSet

	// The coloring budget.
	k int
}

func NewGraphColorer(registers *architecture.RegisterSet) *GraphColorer {
	return &GraphColorer{
		registers: registers,
		k:         registers.NumColors(),
	}
}

func (colorer *GraphColorer) Color(graph *InterferenceGraph) *Coloring {
	stack := colorer.simplify(graph)
	return colorer.selectColors(graph, stack)
}

// Repeatedly remove the variable node with the highest degree below k from
// the working graph.  When no node is below k, optimistically remove the
// highest degree node.  Ties are broken by ascending name.  Returns the
// removed nodes in removal order.
func (colorer *GraphColorer) simplify(graph *InterferenceGraph) []string {
	working := graph.Copy()

	candidates := map[string]struct{}{}
	for name := range working.Adjacency {
		if !working.IsRegister(name) {
			candidates[name] = struct{}{}
		}
	}

	stack := make([]string, 0, len(candidates))
	for len(candidates) > 0 {
		best := ""
		bestDegree := -1
		fallback := ""
		fallbackDegree := -1

		for name := range candidates {
			degree := working.Degree(name)

			if degree < colorer.k && isBetterCandidate(
				name,
				degree,
				best,
				bestDegree) {

				best = name
				bestDegree = degree
			}

			if isBetterCandidate(name, degree, fallback, fallbackDegree) {
				fallback = name
				fallbackDegree = degree
			}
		}

		if best == "" {
			best = fallback
			tlog.V("coloring").Printw(
				"optimistic removal",
				"name", best,
				"degree", fallbackDegree)
		}

		working.RemoveNode(best)
		delete(candidates, best)
		stack = append(stack, best)
	}

	return stack
}

func isBetterCandidate(
	name string,
	degree int,
	current string,
	currentDegree int,
) bool {
	if degree != currentDegree {
		return degree > currentDegree
	}
	return current == "" || name < current
}

// Color the physical registers with their own colors and assign every
// precolored node its required color, then re-insert the removed nodes in
// reverse removal order, assigning the lowest color unused by already colored
// neighbors.  A precolored node is spilled only when an interfering register
// (or an interfering precolored node assigned first, by ascending name)
// already holds its color.
func (colorer *GraphColorer) selectColors(
	graph *InterferenceGraph,
	stack []string,
) *Coloring {
	coloring := &Coloring{
		Colors: map[string]int{},
	}

	for _, register := range colorer.registers.Colorable {
		if graph.HasNode(register.Name) {
			coloring.Colors[register.Name] = register.Color
		}
	}

	precolored := maps.Keys(graph.Precolored)
	slices.Sort(precolored)

	conflicts := map[string]struct{}{}
	for _, name := range precolored {
		if !graph.HasNode(name) {
			continue
		}

		precolor := graph.Precolored[name]
		conflict := false
		for neighbor := range graph.Neighbors(name) {
			color, ok := coloring.Colors[neighbor]
			if ok && color == precolor {
				conflict = true
				break
			}
		}

		if conflict {
			conflicts[name] = struct{}{}
			continue
		}
		coloring.Colors[name] = precolor
	}

	for idx := len(stack) - 1; idx >= 0; idx-- {
		name := stack[idx]

		register, ok := colorer.registers.Get(name)
		if ok && !register.IsStackPointer {
			coloring.Colors[name] = register.Color
			continue
		}

		_, ok = graph.Precolored[name]
		if ok {
			_, ok = conflicts[name]
			if ok {
				coloring.Spills = append(coloring.Spills, name)
			}
			continue
		}

		used := make([]bool, colorer.k)
		for neighbor := range graph.Neighbors(name) {
			color, ok := coloring.Colors[neighbor]
			if ok {
				used[color] = true
			}
		}

		selected := -1
		for color, inUse := range used {
			if !inUse {
				selected = color
				break
			}
		}

		if selected < 0 {
			coloring.Spills = append(coloring.Spills, name)
			continue
		}

		coloring.Colors[name] = selected
	}

	return coloring
}
