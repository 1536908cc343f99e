package builder

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/dag"
	"github.com/vk/tunegrid/internal/experiment"
	"github.com/vk/tunegrid/internal/registry"
	"github.com/vk/tunegrid/internal/tunable"
)

// Space is a search space ready to be handed to an experiment.
type Space struct {
	Experiment *config.Experiment
	Root       tunable.Tunable
	Evaluator  experiment.Evaluator
}

// Build constructs the search space of the named experiment. An empty name
// selects the only declared experiment.
func Build(ctx context.Context, model *config.Model, r *registry.Registry, experimentName string) (*Space, error) {
	logger := ctxlog.FromContext(ctx)

	exp, err := model.Experiment(experimentName)
	if err != nil {
		return nil, err
	}
	logger = logger.With("experiment", exp.Name)
	logger.Debug("Build: Starting search space construction.")

	nodes, err := BuildFunctions(ctx, model, r)
	if err != nil {
		return nil, err
	}

	root, ok := nodes[exp.Root]
	if !ok {
		return nil, fmt.Errorf("experiment '%s': root function '%s' is not declared", exp.Name, exp.Root)
	}
	if err := tunable.Validate(root); err != nil {
		return nil, fmt.Errorf("experiment '%s': invalid search space: %w", exp.Name, err)
	}

	evaluator, ok := r.Evaluator(exp.Evaluator)
	if !ok {
		return nil, fmt.Errorf("experiment '%s': evaluator '%s' is not registered", exp.Name, exp.Evaluator)
	}

	logger.Info("Build: Search space construction successful.", "root", exp.Root)
	return &Space{Experiment: exp, Root: root, Evaluator: evaluator}, nil
}

// BuildFunctions builds one node per declared function, keyed by function
// name.
func BuildFunctions(ctx context.Context, model *config.Model, r *registry.Registry) (map[string]*tunable.Function, error) {
	logger := ctxlog.FromContext(ctx)

	// First pass: link references.
	graph, err := link(model)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: Function linking complete.", "function_count", len(model.Functions))

	// Second pass: order, rejecting cycles.
	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("error validating function references: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.", "order", order)

	// Third pass: create nodes, dependencies first.
	nodes := make(map[string]*tunable.Function, len(order))
	for _, name := range order {
		def := model.Functions[name]
		fn, err := buildFunction(def, r, nodes)
		if err != nil {
			return nil, err
		}
		nodes[name] = fn
		logger.Debug("Build: Function node created.", "function", name, "handler", def.Handler, "args", len(def.Args))
	}
	return nodes, nil
}

func link(model *config.Model) (*dag.Graph, error) {
	graph := dag.New()
	for _, name := range model.FunctionNames() {
		graph.AddNode(name)
	}

	var errs *multierror.Error
	for _, name := range model.FunctionNames() {
		def := model.Functions[name]
		for _, argName := range def.ArgNames() {
			for _, ref := range def.Args[argName].References() {
				if !graph.HasNode(ref) {
					errs = multierror.Append(errs, fmt.Errorf("function '%s', argument '%s': refers to undeclared function '%s'", name, argName, ref))
					continue
				}
				if err := graph.AddEdge(ref, name); err != nil {
					errs = multierror.Append(errs, fmt.Errorf("function '%s', argument '%s': %w", name, argName, err))
				}
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return graph, nil
}

func buildFunction(def *config.Function, r *registry.Registry, built map[string]*tunable.Function) (*tunable.Function, error) {
	handler, ok := r.Function(def.Handler)
	if !ok {
		return nil, fmt.Errorf("function '%s': handler '%s' is not registered", def.Name, def.Handler)
	}

	args := make(map[string]tunable.Tunable, len(def.Args))
	for _, argName := range def.ArgNames() {
		node, err := buildArg(def.Args[argName], built)
		if err != nil {
			return nil, fmt.Errorf("function '%s', argument '%s': %w", def.Name, argName, err)
		}
		args[argName] = node
	}
	fn, err := tunable.TuneE(handler.Fn, args)
	if err != nil {
		return nil, fmt.Errorf("function '%s': %w", def.Name, err)
	}
	return fn, nil
}
