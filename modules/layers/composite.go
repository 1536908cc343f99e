package layers

import (
	"github.com/vk/tunegrid/internal/tunable"
)

// DenseLayer is a Go-declared node resolving to a dense Layer. It exposes
// its units and, when given, its activation as tunable children.
type DenseLayer struct {
	units      tunable.Tunable
	activation tunable.Tunable
}

// NewDenseLayer declares a dense layer node. activation may be nil, in which
// case the layer is linear.
func NewDenseLayer(units *tunable.IntParam, activation *tunable.CategoricalParam) *DenseLayer {
	d := &DenseLayer{units: units}
	if activation != nil {
		d.activation = activation
	}
	return d
}

func (d *DenseLayer) Children() tunable.Children {
	children := tunable.Children{tunable.Named("units", d.units)}
	if d.activation != nil {
		children = append(children, tunable.Named("activation", d.activation))
	}
	return children
}

func (d *DenseLayer) Resolve(c *tunable.Context) (any, error) {
	named := make(map[string]any, 2)
	units, err := c.ChildValue("units")
	if err != nil {
		return nil, err
	}
	named["units"] = units
	if d.activation != nil {
		if named["activation"], err = c.ChildValue("activation"); err != nil {
			return nil, err
		}
	}
	return Dense(tunable.Args{Named: named})
}

// Chain is a Go-declared node resolving to the flattened layer list of its
// single child, typically a List or a Repeat of layer nodes.
type Chain struct {
	layers tunable.Tunable
}

// NewChain wraps layers. A plain slice of nodes is wrapped in a List.
func NewChain(layers ...tunable.Tunable) *Chain {
	if len(layers) == 1 {
		return &Chain{layers: layers[0]}
	}
	return &Chain{layers: tunable.List(layers...)}
}

func (ch *Chain) Children() tunable.Children {
	return tunable.Children{tunable.Named("chain", ch.layers)}
}

func (ch *Chain) Resolve(c *tunable.Context) (any, error) {
	v, err := c.ChildValue("chain")
	if err != nil {
		return nil, err
	}
	return collect(v)
}
