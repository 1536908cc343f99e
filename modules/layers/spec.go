// Package layers builds plain descriptions of layered network architectures
// from tunable arguments. Nothing here trains a network: a Spec is a value an
// evaluator can inspect, serialize or hand to a training backend.
package layers

import (
	"fmt"

	"github.com/vk/tunegrid/internal/experiment"
)

// Kind identifies a layer type.
type Kind string

const (
	KindDense Kind = "dense"
	KindConv  Kind = "conv"
	KindPool  Kind = "pool"
)

// Activations lists the activation functions a layer may use.
var Activations = []string{"relu", "tanh", "sigmoid", "linear"}

// PoolTypes lists the supported pooling operations.
var PoolTypes = []string{"max", "average"}

// Optimizers lists the training optimizers a Network may name.
var Optimizers = []string{"adam", "rmsprop", "sgd"}

// Layer describes one layer. Which fields are set depends on Kind.
type Layer struct {
	Kind       Kind   `json:"kind"`
	Units      int    `json:"units,omitempty"`
	Filters    int    `json:"filters,omitempty"`
	KernelSize int    `json:"kernel_size,omitempty"`
	PoolSize   int    `json:"pool_size,omitempty"`
	PoolType   string `json:"pool_type,omitempty"`
	Activation string `json:"activation,omitempty"`
}

// Spec describes a whole network and how to train it.
type Spec struct {
	Inputs       int     `json:"inputs"`
	Layers       []Layer `json:"layers"`
	LearningRate float64 `json:"learning_rate"`
	Optimizer    string  `json:"optimizer"`
	Loss         string  `json:"loss"`
}

// Parameters counts the trainable weights of s, treating convolutions as
// operating on a single spatial position. Pooling layers have none.
func (s Spec) Parameters() (int, error) {
	width := s.Inputs
	total := 0
	for i, l := range s.Layers {
		switch l.Kind {
		case KindDense:
			total += width*l.Units + l.Units
			width = l.Units
		case KindConv:
			total += l.KernelSize*l.KernelSize*width*l.Filters + l.Filters
			width = l.Filters
		case KindPool:
			if l.PoolSize > 1 && width < l.PoolSize {
				return 0, fmt.Errorf("%w: layer %d pools %d over width %d", experiment.ErrInvalidConfiguration, i, l.PoolSize, width)
			}
		default:
			return 0, fmt.Errorf("layer %d has unknown kind %q", i, l.Kind)
		}
	}
	return total, nil
}

func validateChoice(what, value string, choices []string) error {
	for _, c := range choices {
		if c == value {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown %s %q", experiment.ErrInvalidConfiguration, what, value)
}

func validatePositive(what string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", experiment.ErrInvalidConfiguration, what, v)
	}
	return nil
}
