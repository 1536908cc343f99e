package tunable

import (
	"math"
	"slices"
)

// IntParam is a bounded integer search dimension.
type IntParam struct {
	def, min, max int64
	description   string
}

// NewInt declares an integer parameter on the inclusive range [min, max].
func NewInt(def, min, max int64) (*IntParam, error) {
	if min >= max {
		return nil, declarationErrorf("int parameter minimum %d must be less than maximum %d", min, max)
	}
	if def < min || def > max {
		return nil, declarationErrorf("int parameter default %d is outside [%d, %d]", def, min, max)
	}
	return &IntParam{def: def, min: min, max: max}, nil
}

// MustInt is like NewInt but panics on an invalid declaration.
func MustInt(def, min, max int64) *IntParam {
	return must(NewInt(def, min, max))
}

// WithDescription returns a copy of p carrying a human-readable description.
func (p *IntParam) WithDescription(description string) *IntParam {
	cp := *p
	cp.description = description
	return &cp
}

func (p *IntParam) Min() int64 { return p.min }
func (p *IntParam) Max() int64 { return p.max }

func (p *IntParam) Default() any { return p.def }

func (p *IntParam) Children() Children { return nil }

// Resolve returns the raw assignment value. Values outside the bounds are
// returned as they are; keeping suggestions in range is the optimizer's job.
func (p *IntParam) Resolve(c *Context) (any, error) {
	return c.Assignment(p.def), nil
}

func (p *IntParam) Descriptor() Descriptor {
	return Descriptor{
		Type:        TypeInt,
		Bounds:      &Bounds{Min: float64(p.min), Max: float64(p.max)},
		Description: p.description,
	}
}

// DoubleParam is a bounded real-valued search dimension.
type DoubleParam struct {
	def, min, max float64
	description   string
}

// NewDouble declares a real parameter on the inclusive range [min, max].
func NewDouble(def, min, max float64) (*DoubleParam, error) {
	for _, v := range []float64{def, min, max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, declarationErrorf("double parameter values must be finite, got %v", v)
		}
	}
	if min >= max {
		return nil, declarationErrorf("double parameter minimum %v must be less than maximum %v", min, max)
	}
	if def < min || def > max {
		return nil, declarationErrorf("double parameter default %v is outside [%v, %v]", def, min, max)
	}
	return &DoubleParam{def: def, min: min, max: max}, nil
}

// MustDouble is like NewDouble but panics on an invalid declaration.
func MustDouble(def, min, max float64) *DoubleParam {
	return must(NewDouble(def, min, max))
}

// WithDescription returns a copy of p carrying a human-readable description.
func (p *DoubleParam) WithDescription(description string) *DoubleParam {
	cp := *p
	cp.description = description
	return &cp
}

func (p *DoubleParam) Min() float64 { return p.min }
func (p *DoubleParam) Max() float64 { return p.max }

func (p *DoubleParam) Default() any { return p.def }

func (p *DoubleParam) Children() Children { return nil }

func (p *DoubleParam) Resolve(c *Context) (any, error) {
	return c.Assignment(p.def), nil
}

func (p *DoubleParam) Descriptor() Descriptor {
	return Descriptor{
		Type:        TypeDouble,
		Bounds:      &Bounds{Min: p.min, Max: p.max},
		Description: p.description,
	}
}

// CategoricalParam is a search dimension over an ordered set of strings.
type CategoricalParam struct {
	def         string
	choices     []string
	description string
}

// NewCategorical declares a categorical parameter. The default must be one
// of the choices; choices must be non-empty and distinct.
func NewCategorical(def string, choices ...string) (*CategoricalParam, error) {
	if len(choices) == 0 {
		return nil, declarationErrorf("categorical parameter needs at least one choice")
	}
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		if choice == "" {
			return nil, declarationErrorf("categorical parameter choices cannot be empty strings")
		}
		if _, dup := seen[choice]; dup {
			return nil, declarationErrorf("categorical parameter choice %q is listed twice", choice)
		}
		seen[choice] = struct{}{}
	}
	if _, ok := seen[def]; !ok {
		return nil, declarationErrorf("categorical parameter default %q is not one of %q", def, choices)
	}
	return &CategoricalParam{def: def, choices: slices.Clone(choices)}, nil
}

// MustCategorical is like NewCategorical but panics on an invalid declaration.
func MustCategorical(def string, choices ...string) *CategoricalParam {
	return must(NewCategorical(def, choices...))
}

// WithDescription returns a copy of p carrying a human-readable description.
func (p *CategoricalParam) WithDescription(description string) *CategoricalParam {
	cp := *p
	cp.description = description
	return &cp
}

// Choices returns a copy of the allowed values in declaration order.
func (p *CategoricalParam) Choices() []string { return slices.Clone(p.choices) }

func (p *CategoricalParam) Default() any { return p.def }

func (p *CategoricalParam) Children() Children { return nil }

func (p *CategoricalParam) Resolve(c *Context) (any, error) {
	return c.Assignment(p.def), nil
}

func (p *CategoricalParam) Descriptor() Descriptor {
	return Descriptor{
		Type:              TypeCategorical,
		CategoricalValues: slices.Clone(p.choices),
		Description:       p.description,
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
