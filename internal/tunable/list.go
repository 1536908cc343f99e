package tunable

import "slices"

// ListTunable combines heterogeneous children into an ordered sequence.
type ListTunable struct {
	items []Tunable
}

// List returns a node resolving to the values of items, in order. Children
// are named positionally: item[0], item[1], ...
func List(items ...Tunable) *ListTunable {
	return &ListTunable{items: slices.Clone(items)}
}

// Len returns the number of items.
func (l *ListTunable) Len() int { return len(l.items) }

func (l *ListTunable) Children() Children {
	children := make(Children, len(l.items))
	for i, item := range l.items {
		children[i] = Indexed("item", i, item)
	}
	return children
}

func (l *ListTunable) Resolve(c *Context) (any, error) {
	values := make([]any, len(l.items))
	for i := range l.items {
		v, err := c.ChildValueAt(i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
