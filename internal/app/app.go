package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/tunegrid/internal/builder"
	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/registry"
	"github.com/vk/tunegrid/internal/tunable"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model
	metrics  *prometheus.Registry

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Logs go to logW. Load and validation failures are fatal startup errors and
// panic.
func NewApp(logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all declarations into the format-agnostic model first.
	model, err := loader.Load(ctx, cfg.SpacePath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Declarations loaded and translated into unified model.", "functions", len(model.Functions), "experiments", len(model.Experiments))

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Validate the integrity of the registry against the declarations.
	if err := reg.ValidateRegistry(ctx, model); err != nil {
		// This is a programmer error (mismatch between code and declarations), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		model:    model,
		metrics:  prometheus.NewRegistry(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded declarations.
func (a *App) Model() *config.Model {
	return a.model
}

// Space builds the search space of the configured experiment.
func (a *App) Space(ctx context.Context) (*builder.Space, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	return builder.Build(ctx, a.model, a.registry, a.config.ExperimentName)
}

// Parameters returns the flattened search dimensions of the configured
// experiment.
func (a *App) Parameters(ctx context.Context) ([]tunable.Descriptor, error) {
	space, err := a.Space(ctx)
	if err != nil {
		return nil, err
	}
	return tunable.Parameters(space.Root)
}

// Resolve resolves the configured experiment's space under one assignment and
// returns the value tree in rendered form (see Render).
func (a *App) Resolve(ctx context.Context, assignment tunable.Assignment) (any, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	space, err := a.Space(ctx)
	if err != nil {
		return nil, err
	}
	params, err := tunable.Parameters(space.Root)
	if err != nil {
		return nil, err
	}
	if err := tunable.CheckAssignment(params, assignment); err != nil {
		return nil, err
	}
	value, err := tunable.Resolve(ctx, space.Root, assignment)
	if err != nil {
		return nil, err
	}
	return Render(value), nil
}

// Render replaces every bound function in a resolved value tree by its
// resolved arguments, so the tree can be printed without invoking anything.
func Render(v any) any {
	switch tv := v.(type) {
	case *tunable.Bound:
		kwargs := tv.Kwargs()
		for k, arg := range kwargs {
			kwargs[k] = Render(arg)
		}
		return kwargs
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = Render(item)
		}
		return out
	}
	return v
}
