package util

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A set of variable / register names.
type NameSet map[string]struct{}

func NewNameSet(names ...string) NameSet {
	set := make(NameSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (set NameSet) Add(name string) {
	set[name] = struct{}{}
}

func (set NameSet) Remove(name string) {
	delete(set, name)
}

func (set NameSet) Contains(name string) bool {
	_, ok := set[name]
	return ok
}

// Add all entries of other into set.  Returns true if the set changed.
func (set NameSet) AddAll(other NameSet) bool {
	changed := false
	for name := range other {
		_, ok := set[name]
		if !ok {
			set[name] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (set NameSet) Copy() NameSet {
	if set == nil {
		return NameSet{}
	}
	return maps.Clone(set)
}

func (set NameSet) Equal(other NameSet) bool {
	return maps.Equal(set, other)
}

// Entries in set but not in other.
func (set NameSet) Difference(other NameSet) NameSet {
	result := NameSet{}
	for name := range set {
		_, ok := other[name]
		if !ok {
			result[name] = struct{}{}
		}
	}
	return result
}

func (set NameSet) Union(other NameSet) NameSet {
	result := set.Copy()
	result.AddAll(other)
	return result
}

func (set NameSet) Sorted() []string {
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

func (set NameSet) String() string {
	return "{" + strings.Join(set.Sorted(), " ") + "}"
}
