package selector

import (
	"tlog.app/go/tlog"
)

// Fuse adjacent trees.  Scanning from the last tree to the first, when tree
// i's left (or else right) leaf operand is tree i-1's result, tree i-1 is
// spliced in as that child and the pair collapses into a single root.  At
// most one adjacency step is taken per position; fused pairs are not fused
// further with earlier trees.
func MergeForest(forest *Forest) {
	merged := make([]TreeID, 0, len(forest.Roots))

	idx := len(forest.Roots) - 1
	for ; idx > 0; idx-- {
		parentID := forest.Roots[idx]
		childID := forest.Roots[idx-1]

		if !fuse(forest, parentID, childID) {
			merged = append(merged, parentID)
			continue
		}

		merged = append(merged, parentID)
		idx--
	}

	if idx == 0 {
		merged = append(merged, forest.Roots[0])
	}

	for i, j := 0, len(merged)-1; i < j; i, j = i+1, j-1 {
		merged[i], merged[j] = merged[j], merged[i]
	}

	tlog.V("tiling").Printw(
		"merged forest",
		"function", forest.FunctionName,
		"before", len(forest.Roots),
		"after", len(merged))

	forest.Roots = merged
}

func fuse(forest *Forest, parentID TreeID, childID TreeID) bool {
	parent := forest.Get(parentID)
	child := forest.Get(childID)

	if !child.Result.IsStorage() {
		return false
	}

	for _, slot := range []*TreeID{&parent.Left, &parent.Right} {
		if *slot == NoTree {
			continue
		}

		leaf := forest.Get(*slot)
		if !leaf.IsLeaf() || !leaf.Result.Same(child.Result) {
			continue
		}

		*slot = childID
		parent.Weight += child.Weight
		return true
	}

	return false
}
