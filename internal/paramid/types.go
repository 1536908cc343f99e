// internal/paramid/types.go
package paramid

// Separator joins the segments of a path into its flattened name.
const Separator = ":"

// Segment represents a single component of a path, e.g., `name` or `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewSegment creates a new path segment without an index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewIndexedSegment creates a new path segment that includes an index.
func NewIndexedSegment(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex returns true if the segment has an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Path is an ordered sequence of segments from the tree root to a node.
// The empty path addresses the root itself.
type Path []Segment
