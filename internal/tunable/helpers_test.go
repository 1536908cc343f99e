package tunable

// countingTunable counts how often it is resolved.
type countingTunable struct {
	calls int
	value any
}

func (c *countingTunable) Children() Children { return Children{} }

func (c *countingTunable) Resolve(*Context) (any, error) {
	c.calls++
	return c.value, nil
}

// selfReader reads its own context while resolving.
type selfReader struct{}

func (s *selfReader) Children() Children { return Children{} }

func (s *selfReader) Resolve(c *Context) (any, error) {
	return c.Value()
}

// looping is a composite whose children are set after construction, which
// lets tests build cycles.
type looping struct {
	children Children
}

func (l *looping) Children() Children { return l.children }

func (l *looping) Resolve(c *Context) (any, error) {
	values := make([]any, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		v, err := c.ChildValueAt(i)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// collect returns a Func that records its arguments and returns them.
func collect(calls *[]Args) Func {
	return func(args Args) (any, error) {
		*calls = append(*calls, args)
		return args.Named, nil
	}
}
