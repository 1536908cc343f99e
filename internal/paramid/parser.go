// internal/paramid/parser.go
package paramid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex is used to parse a single segment of a path, e.g., `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)(?:\[(\d+)\])?$`)

// nameRegex validates a bare segment name.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// ValidateSegment reports whether a segment can appear in a path. Tunable
// trees call it for every child name at declaration time.
func ValidateSegment(s Segment) error {
	if s.Name == "" {
		return fmt.Errorf("segment name cannot be empty")
	}
	if !nameRegex.MatchString(s.Name) || !isValidSegmentName(s.Name) {
		return fmt.Errorf("invalid segment name: %q", s.Name)
	}
	if s.Index < -1 {
		return fmt.Errorf("invalid segment index %d for %q", s.Index, s.Name)
	}
	return nil
}

// Parse creates a new Path by parsing its flattened name. The empty string
// parses to the root path.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, nil
	}

	var path Path
	for _, segmentStr := range strings.Split(raw, Separator) {
		if segmentStr == "" {
			return nil, fmt.Errorf("path contains empty segment")
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}

		name := matches[1]
		if !isValidSegmentName(name) {
			return nil, fmt.Errorf("invalid segment name: %q", name)
		}

		segment := NewSegment(name)
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				return nil, fmt.Errorf("invalid segment index in %q: %w", segmentStr, err)
			}
			segment.Index = index
		}
		path = append(path, segment)
	}

	return path, nil
}
