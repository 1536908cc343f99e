package app

import (
	"context"
	"fmt"

	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/experiment"
	"github.com/vk/tunegrid/internal/optimizer"
	"github.com/vk/tunegrid/internal/optimizer/local"
	"github.com/vk/tunegrid/internal/optimizer/rest"
	"golang.org/x/sync/errgroup"
)

// Run executes the configured experiment against the configured optimizer
// until its budget is consumed or ctx is done. When a health check port is
// set, /health and /metrics are served for the duration of the run.
func (a *App) Run(ctx context.Context) (*experiment.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	space, err := a.Space(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build search space: %w", err)
	}

	client, err := a.newOptimizer()
	if err != nil {
		return nil, err
	}

	budget := space.Experiment.Budget
	if a.config.Budget > 0 {
		budget = a.config.Budget
	}
	exp, err := experiment.New(ctx, client, experiment.Options{
		Name:      space.Experiment.Name,
		Budget:    budget,
		Space:     space.Root,
		Evaluator: space.Evaluator,
		Metrics:   experiment.NewMetrics(a.metrics),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create experiment: %w", err)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	if a.config.HealthcheckPort > 0 {
		g.Go(func() error { return a.serveHealth(gctx, a.config.HealthcheckPort) })
	} else {
		a.logger.Debug("Health check server not started: disabled")
	}

	g.Go(func() error {
		// The loop finishing ends the run, including the health server.
		defer stop()
		a.logger.Info("🚀 Starting experiment...", "experiment", space.Experiment.Name, "budget", budget, "optimizer", a.config.Optimizer)
		return exp.Loop(gctx)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("experiment failed: %w", err)
	}

	best, ok := exp.Best()
	if !ok {
		a.logger.Warn("🏁 Experiment finished without a successful round.")
		return nil, nil
	}
	a.logger.Info("🏁 Experiment finished.", "best_value", best.Value, "best_round", best.Round, "best_suggestion", best.SuggestionID)
	return &best, nil
}

func (a *App) newOptimizer() (optimizer.Client, error) {
	switch a.config.Optimizer {
	case OptimizerREST:
		return rest.New(rest.Config{
			BaseURL: a.config.APIURL,
			Token:   a.config.APIToken,
			Logger:  a.logger,
		})
	case OptimizerLocal, "":
		return local.New(a.config.Seed), nil
	}
	return nil, fmt.Errorf("unknown optimizer %q", a.config.Optimizer)
}
