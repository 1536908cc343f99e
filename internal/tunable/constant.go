package tunable

// ConstantTunable pins a slot of a search space to a fixed value. It is not a
// search dimension and never appears in the flattened parameter list.
type ConstantTunable struct {
	value any
}

// Constant returns a node that always resolves to v.
func Constant(v any) *ConstantTunable {
	return &ConstantTunable{value: v}
}

func (c *ConstantTunable) Children() Children { return Children{} }

func (c *ConstantTunable) Resolve(*Context) (any, error) { return c.value, nil }
