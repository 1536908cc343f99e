package tunable

// ParamType is the kind of a search dimension as the optimizer sees it.
type ParamType string

const (
	TypeDouble      ParamType = "double"
	TypeInt         ParamType = "int"
	TypeCategorical ParamType = "categorical"
)

// Bounds is the inclusive range of a numeric parameter.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Descriptor is the record registered with the optimizer for one leaf.
type Descriptor struct {
	Name              string    `json:"name" yaml:"name"`
	Type              ParamType `json:"type" yaml:"type"`
	Bounds            *Bounds   `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	CategoricalValues []string  `json:"categorical_values,omitempty" yaml:"categorical_values,omitempty"`
	Description       string    `json:"description,omitempty" yaml:"description,omitempty"`
}
