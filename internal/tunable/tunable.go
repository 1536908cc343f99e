package tunable

import (
	"github.com/vk/tunegrid/internal/paramid"
)

// Tunable is the contract shared by every node of a search space.
type Tunable interface {
	// Children returns the named sub-tunables of a composite. Leaves return
	// nil; composites without children (Constant) return an empty,
	// non-nil list. The order must be the same on every call.
	Children() Children

	// Resolve produces the node's value for the round c belongs to.
	// Composites read their children through c.ChildValue; leaves read the
	// assignment through c.Assignment. Resolve must not have side effects.
	Resolve(c *Context) (any, error)
}

// Param is a leaf exposed to the optimizer as one search dimension.
type Param interface {
	Tunable

	// Default is the value used when the assignment has no entry for the
	// parameter.
	Default() any

	// Descriptor describes the search dimension. Name is left empty; it is
	// filled in from the parameter's path when the tree is flattened.
	Descriptor() Descriptor
}

// Child is one named edge of a composite node.
type Child struct {
	Segment paramid.Segment
	Tunable Tunable
}

// Children is the ordered list of a composite's named sub-tunables.
type Children []Child

// Named returns a child addressed by a plain name.
func Named(name string, t Tunable) Child {
	return Child{Segment: paramid.NewSegment(name), Tunable: t}
}

// Indexed returns a child addressed by name and index, e.g. `item[3]`.
func Indexed(name string, index int, t Tunable) Child {
	return Child{Segment: paramid.NewIndexedSegment(name, index), Tunable: t}
}

// IsLeaf reports whether t is a leaf node.
func IsLeaf(t Tunable) bool {
	return t.Children() == nil
}
