package layers

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tunegrid/internal/builder"
	"github.com/vk/tunegrid/internal/experiment"
	"github.com/vk/tunegrid/internal/hcl"
	"github.com/vk/tunegrid/internal/registry"
	"github.com/vk/tunegrid/internal/tunable"
)

func loadBundled(t *testing.T) (*builder.Space, *registry.Registry) {
	t.Helper()
	ctx := context.Background()
	model, err := hcl.NewLoader().Load(ctx, "network.hcl")
	require.NoError(t, err)

	r := registry.New()
	(&Module{}).Register(r)
	require.NoError(t, r.ValidateRegistry(ctx, model))

	space, err := builder.Build(ctx, model, r, "mlp")
	require.NoError(t, err)
	return space, r
}

func resolveSpec(t *testing.T, root tunable.Tunable, a tunable.Assignment) Spec {
	t.Helper()
	value, err := tunable.Resolve(context.Background(), root, a)
	require.NoError(t, err)
	bound, ok := value.(*tunable.Bound)
	require.True(t, ok)
	out, err := bound.Call()
	require.NoError(t, err)
	spec, ok := out.(Spec)
	require.True(t, ok, "got %T", out)
	return spec
}

func TestBundledNetwork_Parameters(t *testing.T) {
	// --- Arrange ---
	space, _ := loadBundled(t)

	// --- Act ---
	params, err := tunable.Parameters(space.Root)
	require.NoError(t, err)

	// --- Assert ---
	var names []string
	for _, p := range params {
		names = append(names, p.Name)
	}
	want := []string{"layers:item[0]:layers:count"}
	for _, i := range []string{"0", "1", "2", "3"} {
		want = append(want,
			"layers:item[0]:layers:repeat["+i+"]:activation",
			"layers:item[0]:layers:repeat["+i+"]:units",
		)
	}
	want = append(want, "learning_rate", "optimizer")
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("parameter names mismatch (-want +got):\n%s", diff)
	}
}

func TestBundledNetwork_Defaults(t *testing.T) {
	// --- Arrange ---
	space, _ := loadBundled(t)

	// --- Act ---
	spec := resolveSpec(t, space.Root, nil)

	// --- Assert ---
	want := []Layer{
		{Kind: KindDense, Units: 64, Activation: "relu"},
		{Kind: KindDense, Units: 64, Activation: "relu"},
		{Kind: KindDense, Units: 10, Activation: "linear"},
	}
	if diff := cmp.Diff(want, spec.Layers); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 784, spec.Inputs)
	assert.InDelta(t, 0.001, spec.LearningRate, 1e-12)
	assert.Equal(t, "adam", spec.Optimizer)
	assert.Equal(t, "categorical_crossentropy", spec.Loss)

	params, err := spec.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 784*64+64+64*64+64+64*10+10, params)
}

func TestBundledNetwork_RepeatedLayersDiffer(t *testing.T) {
	space, _ := loadBundled(t)

	spec := resolveSpec(t, space.Root, tunable.Assignment{
		"layers:item[0]:layers:count":                3,
		"layers:item[0]:layers:repeat[2]:units":      16,
		"layers:item[0]:layers:repeat[2]:activation": "tanh",
		"optimizer": "sgd",
	})

	require.Len(t, spec.Layers, 4)
	assert.Equal(t, Layer{Kind: KindDense, Units: 64, Activation: "relu"}, spec.Layers[1])
	assert.Equal(t, Layer{Kind: KindDense, Units: 16, Activation: "tanh"}, spec.Layers[2])
	assert.Equal(t, "sgd", spec.Optimizer)
}

func TestBundledNetwork_Evaluator(t *testing.T) {
	ctx := context.Background()
	space, _ := loadBundled(t)
	spec := resolveSpec(t, space.Root, nil)

	score, err := space.Evaluator(ctx, spec)
	require.NoError(t, err)

	params := float64(784*64 + 64 + 64*64 + 64 + 64*10 + 10)
	want := 1 - math.Abs(math.Log10(params+1)-math.Log10(TargetParameters))
	assert.InDelta(t, want, score, 1e-9)
}

func TestHandlers_InvalidConfigurations(t *testing.T) {
	testCases := []struct {
		name  string
		fn    tunable.Func
		named map[string]any
	}{
		{name: "dense without units", fn: Dense, named: map[string]any{}},
		{name: "dense unknown activation", fn: Dense, named: map[string]any{"units": 4, "activation": "softsign"}},
		{name: "conv zero kernel", fn: Conv, named: map[string]any{"filters": 4, "kernel_size": 0}},
		{name: "pool unknown type", fn: Pool, named: map[string]any{"pool_type": "median"}},
		{name: "network unknown optimizer", fn: Network, named: map[string]any{"inputs": 4, "optimizer": "adagrad"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fn(tunable.Args{Named: tc.named})
			require.ErrorIs(t, err, experiment.ErrInvalidConfiguration)
		})
	}
}

func TestNetwork_RejectsForeignLayers(t *testing.T) {
	_, err := Network(tunable.Args{Named: map[string]any{"inputs": 4, "layers": []any{"dense"}}})
	require.ErrorContains(t, err, "cannot use string as a layer")
}

func TestSpec_Parameters(t *testing.T) {
	spec := Spec{Inputs: 3, Layers: []Layer{
		{Kind: KindConv, Filters: 8, KernelSize: 3},
		{Kind: KindPool, PoolSize: 2, PoolType: "max"},
		{Kind: KindDense, Units: 2},
	}}
	params, err := spec.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 3*3*3*8+8+8*2+2, params)

	_, err = Spec{Inputs: 1, Layers: []Layer{{Kind: KindPool, PoolSize: 4}}}.Parameters()
	require.ErrorIs(t, err, experiment.ErrInvalidConfiguration)

	_, err = Spec{Inputs: 1, Layers: []Layer{{Kind: "lstm"}}}.Parameters()
	require.ErrorContains(t, err, "unknown kind")
}

func TestParameterBudget_Invalid(t *testing.T) {
	ctx := context.Background()

	_, err := ParameterBudget(ctx, Spec{Inputs: 4})
	require.ErrorIs(t, err, experiment.ErrInvalidConfiguration)

	huge := Spec{Inputs: 10_000, Layers: []Layer{{Kind: KindDense, Units: 1_000}}}
	_, err = ParameterBudget(ctx, &huge)
	require.ErrorIs(t, err, experiment.ErrInvalidConfiguration)

	_, err = ParameterBudget(ctx, 42)
	require.ErrorContains(t, err, "expects a layers.Spec")
}

func TestComposites(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	hidden := NewDenseLayer(tunable.MustInt(32, 4, 128), tunable.MustCategorical("relu", Activations...))
	chain := NewChain(
		tunable.MustRepeat(hidden, tunable.MustInt(1, 0, 3)),
		NewDenseLayer(tunable.MustInt(10, 1, 10), nil),
	)

	// --- Act ---
	params, err := tunable.Parameters(chain)
	require.NoError(t, err)
	value, err := tunable.Resolve(ctx, chain, tunable.Assignment{
		"chain:item[0]:count":                2,
		"chain:item[0]:repeat[1]:units":      8,
		"chain:item[0]:repeat[1]:activation": "sigmoid",
	})
	require.NoError(t, err)

	// --- Assert ---
	assert.Len(t, params, 1+3*2+1)
	want := []Layer{
		{Kind: KindDense, Units: 32, Activation: "relu"},
		{Kind: KindDense, Units: 8, Activation: "sigmoid"},
		{Kind: KindDense, Units: 10, Activation: "linear"},
	}
	if diff := cmp.Diff(want, value); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}
