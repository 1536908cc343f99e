package layers

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/experiment"
)

// TargetParameters is the network size ParameterBudget rewards most.
const TargetParameters = 100_000

// ParameterBudget scores a Spec by how close its parameter count is to
// TargetParameters on a log scale, with a small penalty for learning rates
// far from 1e-3. The best possible score is 1. Networks without layers or
// more than ten times over the target are invalid configurations.
func ParameterBudget(ctx context.Context, value any) (float64, error) {
	var spec Spec
	switch v := value.(type) {
	case Spec:
		spec = v
	case *Spec:
		if v == nil {
			return 0, fmt.Errorf("ParameterBudget got a nil spec")
		}
		spec = *v
	default:
		return 0, fmt.Errorf("ParameterBudget expects a layers.Spec, got %T", value)
	}

	if len(spec.Layers) == 0 {
		return 0, fmt.Errorf("%w: network has no layers", experiment.ErrInvalidConfiguration)
	}
	params, err := spec.Parameters()
	if err != nil {
		return 0, err
	}
	if params > 10*TargetParameters {
		return 0, fmt.Errorf("%w: %d parameters exceed the limit of %d", experiment.ErrInvalidConfiguration, params, 10*TargetParameters)
	}

	sizeMiss := math.Abs(math.Log10(float64(params)+1) - math.Log10(TargetParameters))
	rateMiss := 0.0
	if spec.LearningRate > 0 {
		rateMiss = math.Abs(math.Log10(spec.LearningRate) + 3)
	}
	score := 1 - sizeMiss - 0.1*rateMiss

	ctxlog.FromContext(ctx).Debug("Scored network.", "layers", len(spec.Layers), "parameters", params, "score", score)
	return score, nil
}
