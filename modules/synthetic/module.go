// Package synthetic provides a closed-form objective for exercising the
// experiment loop without training anything.
package synthetic

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/decode"
	"github.com/vk/tunegrid/internal/registry"
	"github.com/vk/tunegrid/internal/tunable"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// QuadraticArgs defines the arguments of the Quadratic handler.
type QuadraticArgs struct {
	X     float64 `tune:"x"`
	Y     float64 `tune:"y"`
	Scale float64 `tune:"scale"`
}

// Optimum is where Quadratic reaches its minimum of zero.
var Optimum = struct{ X, Y float64 }{X: 1, Y: -2}

// Quadratic computes scale*((x-1)^2 + (y+2)^2). Scale defaults to 1.
func Quadratic(args tunable.Args) (any, error) {
	in := QuadraticArgs{Scale: 1}
	if err := args.DecodeStruct(&in); err != nil {
		return nil, err
	}
	dx, dy := in.X-Optimum.X, in.Y-Optimum.Y
	return in.Scale * (dx*dx + dy*dy), nil
}

// NegatedValue scores a numeric value by its negation, so that maximizing
// the score minimizes the value.
func NegatedValue(ctx context.Context, value any) (float64, error) {
	var v float64
	if err := decode.Into(value, &v); err != nil {
		return 0, fmt.Errorf("NegatedValue expects a number, got %T: %w", value, err)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("NegatedValue got NaN")
	}
	ctxlog.FromContext(ctx).Debug("Scoring synthetic value.", "value", v)
	return -v, nil
}

// Register registers the handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction("Quadratic", &registry.RegisteredFunction{
		Fn:   Quadratic,
		Args: QuadraticArgs{},
	})
	r.RegisterEvaluator("NegatedValue", NegatedValue)
}
