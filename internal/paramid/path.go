// internal/paramid/path.go
package paramid

import (
	"fmt"
	"slices"
	"strings"
)

// String renders the segment, e.g. `filters` or `repeat[2]`.
func (s Segment) String() string {
	if !s.HasIndex() {
		return s.Name
	}
	return fmt.Sprintf("%s[%d]", s.Name, s.Index)
}

// String serializes the path into its flattened parameter name.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p {
		if i > 0 {
			sb.WriteString(Separator)
		}
		sb.WriteString(segment.String())
	}
	return sb.String()
}

// Child returns a new path extended by one segment. The receiver is never
// modified, so sibling paths do not share backing storage.
func (p Path) Child(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}
