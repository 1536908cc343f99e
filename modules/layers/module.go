package layers

import (
	"github.com/vk/tunegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction("Dense", &registry.RegisteredFunction{Fn: Dense, Args: DenseArgs{}})
	r.RegisterFunction("Conv", &registry.RegisteredFunction{Fn: Conv, Args: ConvArgs{}})
	r.RegisterFunction("Pool", &registry.RegisteredFunction{Fn: Pool, Args: PoolArgs{}})
	r.RegisterFunction("Sequence", &registry.RegisteredFunction{Fn: Sequence, Args: SequenceArgs{}})
	r.RegisterFunction("Network", &registry.RegisteredFunction{Fn: Network, Args: NetworkArgs{}})
	r.RegisterEvaluator("ParameterBudget", ParameterBudget)
}
