package tunable

import (
	"fmt"
	"slices"
	"sort"

	"github.com/vk/tunegrid/internal/paramid"
)

// Parameters flattens a node tree into the descriptors of every reachable
// leaf, depth first in Children order. It needs no Root or Context.
func Parameters(t Tunable) ([]Descriptor, error) {
	var params []Descriptor
	names := make(map[string]struct{})

	err := walk(t, paramid.Path{}, make(map[Tunable]struct{}), func(path paramid.Path, node Tunable) error {
		p, ok := node.(Param)
		if !ok {
			return nil
		}
		if len(path) == 0 {
			return declarationErrorf("a parameter at the root of a tree has no name; wrap it in a composite")
		}
		d := p.Descriptor()
		d.Name = path.String()
		if _, dup := names[d.Name]; dup {
			return declarationErrorf("parameter name %q is used twice", d.Name)
		}
		names[d.Name] = struct{}{}
		params = append(params, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that a node tree is well formed: no nil nodes, no cycles,
// valid and unique child names, unique parameter names.
func Validate(t Tunable) error {
	_, err := Parameters(t)
	return err
}

// CheckAssignment reports assignment keys that do not name one of params.
// Keys are parsed as paths, so a malformed key is reported as such. Resolution
// itself ignores unknown keys; callers use this to catch typos.
func CheckAssignment(params []Descriptor, assignment Assignment) error {
	known := make([]paramid.Path, 0, len(params))
	for _, d := range params {
		p, err := paramid.Parse(d.Name)
		if err != nil {
			return declarationErrorf("parameter %q: %v", d.Name, err)
		}
		known = append(known, p)
	}

	keys := make([]string, 0, len(assignment))
	for k := range assignment {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p, err := paramid.Parse(k)
		if err != nil {
			return fmt.Errorf("%w: key %q: %w", ErrInvalidAssignment, k, err)
		}
		if !slices.ContainsFunc(known, p.Equal) {
			return fmt.Errorf("%w: %q is not a parameter of this space", ErrInvalidAssignment, k)
		}
	}
	return nil
}

func walk(t Tunable, path paramid.Path, ancestors map[Tunable]struct{}, visit func(paramid.Path, Tunable) error) error {
	release, err := enter(t, path, ancestors)
	if err != nil {
		return err
	}
	defer release()

	if err := visit(path, t); err != nil {
		return err
	}

	children := t.Children()
	if err := checkChildren(path, children); err != nil {
		return err
	}
	for _, child := range children {
		if err := walk(child.Tunable, path.Child(child.Segment), ancestors, visit); err != nil {
			return err
		}
	}
	return nil
}
