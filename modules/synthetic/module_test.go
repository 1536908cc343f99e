package synthetic

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tunegrid/internal/builder"
	"github.com/vk/tunegrid/internal/hcl"
	"github.com/vk/tunegrid/internal/registry"
	"github.com/vk/tunegrid/internal/tunable"
)

func TestQuadratic(t *testing.T) {
	testCases := []struct {
		name  string
		named map[string]any
		want  float64
	}{
		{name: "at the optimum", named: map[string]any{"x": 1.0, "y": -2.0}, want: 0},
		{name: "scale defaults to one", named: map[string]any{"x": 0.0, "y": 0.0}, want: 5},
		{name: "scaled", named: map[string]any{"x": 3, "y": -2, "scale": 0.5}, want: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Quadratic(tunable.Args{Named: tc.named})
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestQuadratic_BadArgument(t *testing.T) {
	_, err := Quadratic(tunable.Args{Named: map[string]any{"x": "left"}})
	require.ErrorContains(t, err, "failed to decode argument 'x'")
}

func TestNegatedValue(t *testing.T) {
	ctx := context.Background()

	v, err := NegatedValue(ctx, 2.5)
	require.NoError(t, err)
	assert.Equal(t, -2.5, v)

	v, err = NegatedValue(ctx, int64(3))
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)

	_, err = NegatedValue(ctx, map[string]any{"a": 1})
	require.Error(t, err)

	_, err = NegatedValue(ctx, math.NaN())
	require.ErrorContains(t, err, "NaN")
}

func TestModule_BundledDeclarationsValidate(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	model, err := hcl.NewLoader().Load(ctx, "quadratic.hcl")
	require.NoError(t, err)
	r := registry.New()
	(&Module{}).Register(r)

	// --- Act ---
	require.NoError(t, r.ValidateRegistry(ctx, model))
	space, err := builder.Build(ctx, model, r, "quadratic")
	require.NoError(t, err)

	// --- Assert ---
	value, err := tunable.Resolve(ctx, space.Root, tunable.Assignment{"x": 1.0, "y": -1.0})
	require.NoError(t, err)
	bound, ok := value.(*tunable.Bound)
	require.True(t, ok)
	out, err := bound.Call()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out, 1e-12)

	score, err := space.Evaluator(ctx, out)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, score, 1e-12)
}
