package layers

import (
	"fmt"

	"github.com/vk/tunegrid/internal/tunable"
)

// DenseArgs defines the arguments of the Dense handler.
type DenseArgs struct {
	Units      int    `tune:"units"`
	Activation string `tune:"activation"`
}

// Dense describes a fully connected layer.
func Dense(args tunable.Args) (any, error) {
	in := DenseArgs{Activation: "linear"}
	if err := args.DecodeStruct(&in); err != nil {
		return nil, err
	}
	if err := validatePositive("units", in.Units); err != nil {
		return nil, err
	}
	if err := validateChoice("activation", in.Activation, Activations); err != nil {
		return nil, err
	}
	return Layer{Kind: KindDense, Units: in.Units, Activation: in.Activation}, nil
}

// ConvArgs defines the arguments of the Conv handler.
type ConvArgs struct {
	Filters    int    `tune:"filters"`
	KernelSize int    `tune:"kernel_size"`
	Activation string `tune:"activation"`
}

// Conv describes a 2D convolution.
func Conv(args tunable.Args) (any, error) {
	in := ConvArgs{KernelSize: 3, Activation: "linear"}
	if err := args.DecodeStruct(&in); err != nil {
		return nil, err
	}
	if err := validatePositive("filters", in.Filters); err != nil {
		return nil, err
	}
	if err := validatePositive("kernel_size", in.KernelSize); err != nil {
		return nil, err
	}
	if err := validateChoice("activation", in.Activation, Activations); err != nil {
		return nil, err
	}
	return Layer{Kind: KindConv, Filters: in.Filters, KernelSize: in.KernelSize, Activation: in.Activation}, nil
}

// PoolArgs defines the arguments of the Pool handler.
type PoolArgs struct {
	PoolSize int    `tune:"pool_size"`
	PoolType string `tune:"pool_type"`
}

// Pool describes a pooling layer.
func Pool(args tunable.Args) (any, error) {
	in := PoolArgs{PoolSize: 2, PoolType: "max"}
	if err := args.DecodeStruct(&in); err != nil {
		return nil, err
	}
	if err := validatePositive("pool_size", in.PoolSize); err != nil {
		return nil, err
	}
	if err := validateChoice("pool type", in.PoolType, PoolTypes); err != nil {
		return nil, err
	}
	return Layer{Kind: KindPool, PoolSize: in.PoolSize, PoolType: in.PoolType}, nil
}

// NetworkArgs defines the arguments of the Network handler. Layers takes
// whatever a repeat, list or use argument resolves to.
type NetworkArgs struct {
	Inputs       int     `tune:"inputs"`
	Layers       any     `tune:"layers"`
	LearningRate float64 `tune:"learning_rate"`
	Optimizer    string  `tune:"optimizer"`
	Loss         string  `tune:"loss"`
}

// Network assembles a Spec. Bound layer functions found in Layers are
// invoked, and nested sequences are flattened in order.
func Network(args tunable.Args) (any, error) {
	in := NetworkArgs{LearningRate: 0.001, Optimizer: "adam", Loss: "categorical_crossentropy"}
	if err := args.DecodeStruct(&in); err != nil {
		return nil, err
	}
	if err := validatePositive("inputs", in.Inputs); err != nil {
		return nil, err
	}
	if err := validateChoice("optimizer", in.Optimizer, Optimizers); err != nil {
		return nil, err
	}
	layers, err := collect(in.Layers)
	if err != nil {
		return nil, err
	}
	return Spec{
		Inputs:       in.Inputs,
		Layers:       layers,
		LearningRate: in.LearningRate,
		Optimizer:    in.Optimizer,
		Loss:         in.Loss,
	}, nil
}

// SequenceArgs defines the arguments of the Sequence handler.
type SequenceArgs struct {
	Layers any `tune:"layers"`
}

// Sequence flattens its layers into a []Layer, so a stack of layers can be
// declared once and used as one item of a larger network.
func Sequence(args tunable.Args) (any, error) {
	var in SequenceArgs
	if err := args.DecodeStruct(&in); err != nil {
		return nil, err
	}
	return collect(in.Layers)
}

// collect flattens a resolved layers value into a layer list.
func collect(v any) ([]Layer, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case Layer:
		return []Layer{tv}, nil
	case []Layer:
		return tv, nil
	case *tunable.Bound:
		out, err := tv.Call()
		if err != nil {
			return nil, err
		}
		return collect(out)
	case []any:
		var layers []Layer
		for _, item := range tv {
			sub, err := collect(item)
			if err != nil {
				return nil, err
			}
			layers = append(layers, sub...)
		}
		return layers, nil
	}
	return nil, fmt.Errorf("cannot use %T as a layer", v)
}
