package tunable

import (
	"fmt"
	"reflect"

	"github.com/vk/tunegrid/internal/paramid"
)

type state uint8

const (
	unresolved state = iota
	inProgress
	resolved
)

// Context is the per-round resolution state of one node. Context trees
// mirror the node tree and are owned by a single round.
type Context struct {
	root     *Root
	path     paramid.Path
	tunable  Tunable
	children []*Context
	index    map[string]int

	state state
	value any
}

func newContext(root *Root, path paramid.Path, t Tunable, ancestors map[Tunable]struct{}) (*Context, error) {
	release, err := enter(t, path, ancestors)
	if err != nil {
		return nil, err
	}
	defer release()

	c := &Context{root: root, path: path, tunable: t}

	children := t.Children()
	if children == nil {
		return c, nil
	}
	if err := checkChildren(path, children); err != nil {
		return nil, err
	}

	c.children = make([]*Context, len(children))
	c.index = make(map[string]int, len(children))
	for i, child := range children {
		sub, err := newContext(root, path.Child(child.Segment), child.Tunable, ancestors)
		if err != nil {
			return nil, err
		}
		c.children[i] = sub
		c.index[child.Segment.String()] = i
	}
	return c, nil
}

// Value returns the node's value for this round, resolving it on first use.
func (c *Context) Value() (any, error) {
	if !c.root.Current() {
		return nil, fmt.Errorf("%w: %s belongs to round %d which has been superseded", ErrStaleContext, c.describe(), c.root.round)
	}

	switch c.state {
	case resolved:
		return c.value, nil
	case inProgress:
		return nil, fmt.Errorf("%w: %s depends on its own value", ErrRecursiveEvaluation, c.describe())
	}

	c.state = inProgress
	v, err := c.tunable.Resolve(c)
	if err != nil {
		c.state = unresolved
		return nil, err
	}
	c.value = v
	c.state = resolved
	c.root.logger.Debug("Resolved tunable.", "path", c.describe(), "round", c.root.round)
	return v, nil
}

// Resolved reports whether the node already has a value this round.
func (c *Context) Resolved() bool { return c.state == resolved }

// Assignment returns the round's assignment for this node's path, or def.
func (c *Context) Assignment(def any) any {
	return c.root.Lookup(c.path, def)
}

// Child returns the context of the named child.
func (c *Context) Child(name string) (*Context, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("%s has no child %q", c.describe(), name)
	}
	return c.children[i], nil
}

// ChildValue resolves the named child.
func (c *Context) ChildValue(name string) (any, error) {
	child, err := c.Child(name)
	if err != nil {
		return nil, err
	}
	return child.Value()
}

// ChildValueAt resolves the i-th child in Children order.
func (c *Context) ChildValueAt(i int) (any, error) {
	if i < 0 || i >= len(c.children) {
		return nil, fmt.Errorf("%s has no child at index %d", c.describe(), i)
	}
	return c.children[i].Value()
}

// Len returns the number of child contexts.
func (c *Context) Len() int { return len(c.children) }

// Path returns the node's path from the tree root.
func (c *Context) Path() paramid.Path { return c.path }

// Name returns the flattened name of the node's path.
func (c *Context) Name() string { return c.path.String() }

// Tunable returns the node this context wraps.
func (c *Context) Tunable() Tunable { return c.tunable }

// Root returns the round this context belongs to.
func (c *Context) Root() *Root { return c.root }

func (c *Context) describe() string {
	if len(c.path) == 0 {
		return "<root>"
	}
	return c.path.String()
}

// enter records t as an ancestor of the nodes below it and fails when t is
// already one, i.e. the tree contains a cycle. Only pointer nodes are
// tracked; value nodes cannot contain themselves.
func enter(t Tunable, path paramid.Path, ancestors map[Tunable]struct{}) (func(), error) {
	if t == nil {
		return nil, declarationErrorf("nil tunable at %s", describePath(path))
	}
	if reflect.TypeOf(t).Kind() != reflect.Ptr {
		return func() {}, nil
	}
	if _, seen := ancestors[t]; seen {
		return nil, fmt.Errorf("%w: %T at %s contains itself", ErrRecursiveEvaluation, t, describePath(path))
	}
	ancestors[t] = struct{}{}
	return func() { delete(ancestors, t) }, nil
}

func checkChildren(path paramid.Path, children Children) error {
	seen := make(map[string]struct{}, len(children))
	for _, child := range children {
		if err := paramid.ValidateSegment(child.Segment); err != nil {
			return declarationErrorf("child of %s: %v", describePath(path), err)
		}
		name := child.Segment.String()
		if _, dup := seen[name]; dup {
			return declarationErrorf("%s declares child %q twice", describePath(path), name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func describePath(path paramid.Path) string {
	if len(path) == 0 {
		return "<root>"
	}
	return path.String()
}
