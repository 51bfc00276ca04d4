package allocator

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"tlog.app/go/tlog"

	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/ast"
)

// Undirected interference graph over variable and physical register names.
// Symmetric by construction: AddEdge always inserts both directions and never
// inserts self edges.
type InterferenceGraph struct {
	registers *architecture.RegisterSet

	Adjacency map[string]util.NameSet

	// Variables that must be colored with a specific register (e.g., shift
	// counts).  name -> color
	Precolored map[string]int
}

func NewInterferenceGraph(
	registers *architecture.RegisterSet,
) *InterferenceGraph {
	graph := &InterferenceGraph{
		registers:  registers,
		Adjacency:  map[string]util.NameSet{},
		Precolored: map[string]int{},
	}

	for _, register := range registers.Colorable {
		graph.AddNode(register.Name)
	}

	for idx, first := range registers.Colorable {
		for _, second := range registers.Colorable[idx+1:] {
			graph.AddEdge(first.Name, second.Name)
		}
	}

	return graph
}

func (graph *InterferenceGraph) AddNode(name string) {
	_, ok := graph.Adjacency[name]
	if !ok {
		graph.Adjacency[name] = util.NameSet{}
	}
}

func (graph *InterferenceGraph) AddEdge(first string, second string) {
	graph.AddNode(first)
	graph.AddNode(second)

	if first == second {
		return
	}

	graph.Adjacency[first].Add(second)
	graph.Adjacency[second].Add(first)
}

// Every pair of names in the set interferes.
func (graph *InterferenceGraph) AddClique(names util.NameSet) {
	sorted := names.Sorted()
	for idx, first := range sorted {
		graph.AddNode(first)
		for _, second := range sorted[idx+1:] {
			graph.AddEdge(first, second)
		}
	}
}

func (graph *InterferenceGraph) HasNode(name string) bool {
	_, ok := graph.Adjacency[name]
	return ok
}

func (graph *InterferenceGraph) Interferes(first string, second string) bool {
	neighbors, ok := graph.Adjacency[first]
	if !ok {
		return false
	}
	return neighbors.Contains(second)
}

func (graph *InterferenceGraph) Neighbors(name string) util.NameSet {
	return graph.Adjacency[name]
}

func (graph *InterferenceGraph) Degree(name string) int {
	return len(graph.Adjacency[name])
}

// All node names, sorted.
func (graph *InterferenceGraph) Nodes() []string {
	names := maps.Keys(graph.Adjacency)
	slices.Sort(names)
	return names
}

// True if the node is a physical register.
func (graph *InterferenceGraph) IsRegister(name string) bool {
	register, ok := graph.registers.Get(name)
	return ok && !register.IsStackPointer
}

func (graph *InterferenceGraph) Copy() *InterferenceGraph {
	copied := &InterferenceGraph{
		registers:  graph.registers,
		Adjacency:  make(map[string]util.NameSet, len(graph.Adjacency)),
		Precolored: maps.Clone(graph.Precolored),
	}

	for name, neighbors := range graph.Adjacency {
		copied.Adjacency[name] = neighbors.Copy()
	}

	return copied
}

// Remove the node and all of its edges.
func (graph *InterferenceGraph) RemoveNode(name string) {
	for neighbor := range graph.Adjacency[name] {
		graph.Adjacency[neighbor].Remove(name)
	}
	delete(graph.Adjacency, name)
}

// Build the interference graph:
//  1. all names simultaneously live in the same IN or OUT set interfere.
//  2. for every instruction other than a variable / register copy, the
//     instruction's KILL U OUT set interferes.  For copies, the destination
//     interferes with OUT minus the copy source.
//  3. all colorable physical registers pairwise interfere.
//  4. every variable referenced by the function is a node.
//  5. variable shift counts are precolored to the shift count register.
func BuildInterferenceGraph(
	registers *architecture.RegisterSet,
	fn *ast.Function,
	live *Liveness,
) *InterferenceGraph {
	if len(live.In) != len(fn.Instructions) {
		panic("should never happen")
	}

	graph := NewInterferenceGraph(registers)

	for name := range fn.Variables {
		graph.AddNode(name)
	}

	for idx, in := range fn.Instructions {
		graph.AddClique(live.In[idx])
		graph.AddClique(live.Out[idx])

		switch inst := in.(type) {
		case *ast.Assignment:
			if registers.IsTracked(inst.Src) && registers.IsTracked(inst.Dest) {
				for name := range live.Out[idx] {
					if name != inst.Src.Name {
						graph.AddEdge(inst.Dest.Name, name)
					}
				}
				continue
			}
		case *ast.ShiftOperation:
			if inst.Src2.IsVariable() {
				graph.Precolored[inst.Src2.Name] = registers.ShiftCount.Color
			}
		}

		graph.AddClique(live.Kill[idx].Union(live.Out[idx]))
	}

	tlog.V("interference").Printw(
		"interference graph",
		"function", fn.Name,
		"nodes", len(graph.Adjacency),
		"precolored", len(graph.Precolored))

	return graph
}
