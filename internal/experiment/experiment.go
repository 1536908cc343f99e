// Package experiment drives an optimizer against a search space: each round
// takes a suggestion, resolves the space under it, evaluates the result and
// reports the score back.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/optimizer"
	"github.com/vk/tunegrid/internal/tunable"
)

// ErrInvalidConfiguration marks an evaluation that failed because the
// suggested configuration cannot work (e.g. layer sizes that do not fit).
// Such rounds are reported to the optimizer as failed observations instead
// of aborting the experiment.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Evaluator scores a resolved search space value. Higher is better.
type Evaluator func(ctx context.Context, value any) (float64, error)

// Options configures New.
type Options struct {
	Name      string
	Budget    int
	Space     tunable.Tunable
	Evaluator Evaluator
	Metrics   *Metrics // optional
}

// Result is the outcome of one round.
type Result struct {
	Round        int
	SuggestionID string
	Assignment   tunable.Assignment
	Value        float64
	Failed       bool
	Err          error // the cause of a failed round
}

// Experiment is a registered experiment over one search space. It is not
// safe for concurrent use: rounds run one at a time.
type Experiment struct {
	client    optimizer.Client
	info      *optimizer.Experiment
	params    []tunable.Descriptor
	space     tunable.Tunable
	evaluator Evaluator
	metrics   *Metrics

	rounds tunable.Rounds
	best   *Result
}

// New flattens the space and registers the experiment with client.
func New(ctx context.Context, client optimizer.Client, opts Options) (*Experiment, error) {
	if opts.Space == nil {
		return nil, fmt.Errorf("experiment %q has no search space", opts.Name)
	}
	if opts.Evaluator == nil {
		return nil, fmt.Errorf("experiment %q has no evaluator", opts.Name)
	}
	if opts.Budget <= 0 {
		return nil, fmt.Errorf("experiment %q needs a positive budget, got %d", opts.Name, opts.Budget)
	}

	params, err := tunable.Parameters(opts.Space)
	if err != nil {
		return nil, fmt.Errorf("invalid search space for experiment %q: %w", opts.Name, err)
	}

	info, err := client.CreateExperiment(ctx, opts.Name, opts.Budget, params)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Experiment created.", "id", info.ID, "name", opts.Name, "budget", opts.Budget, "parameters", len(params))

	return &Experiment{
		client:    client,
		info:      info,
		params:    params,
		space:     opts.Space,
		evaluator: opts.Evaluator,
		metrics:   opts.Metrics,
	}, nil
}

// ID returns the optimizer-assigned experiment ID.
func (e *Experiment) ID() string { return e.info.ID }

// Parameters returns the descriptors the experiment was registered with.
func (e *Experiment) Parameters() []tunable.Descriptor { return e.params }

// Budget returns the observation budget.
func (e *Experiment) Budget() int { return e.info.Budget }

// Best returns the best successful round so far.
func (e *Experiment) Best() (Result, bool) {
	if e.best == nil {
		return Result{}, false
	}
	return *e.best, true
}

// RunRound runs one suggestion through resolution and evaluation and reports
// the outcome. A round that fails with ErrInvalidConfiguration or
// tunable.ErrInvalidAssignment is reported as a failed observation and
// returned without error; any other failure is returned and nothing is
// reported.
func (e *Experiment) RunRound(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	s, err := e.client.CreateSuggestion(ctx, e.info.ID)
	if err != nil {
		e.metrics.observeRound(OutcomeError, time.Since(start))
		return nil, err
	}

	if err := tunable.CheckAssignment(e.params, s.Assignment); err != nil {
		logger.Warn("Suggestion carries keys outside the search space, they are ignored.", "suggestion", s.ID, "error", err)
	}
	root := e.rounds.Next(ctx, s.Assignment)
	res := &Result{Round: root.Round(), SuggestionID: s.ID, Assignment: s.Assignment}

	value, err := e.evaluate(ctx, root)
	obs := optimizer.Succeeded(s.ID, value)
	switch {
	case err == nil:
		res.Value = value
	case errors.Is(err, ErrInvalidConfiguration), errors.Is(err, tunable.ErrInvalidAssignment):
		logger.Warn("Suggested configuration is invalid, reporting a failed observation.", "round", res.Round, "suggestion", s.ID, "error", err)
		res.Failed, res.Err = true, err
		obs = optimizer.Failed(s.ID)
	default:
		e.metrics.observeRound(OutcomeError, time.Since(start))
		return nil, fmt.Errorf("round %d: %w", res.Round, err)
	}

	if err := e.client.CreateObservation(ctx, e.info.ID, obs); err != nil {
		e.metrics.observeRound(OutcomeError, time.Since(start))
		return nil, err
	}

	outcome := OutcomeObserved
	if res.Failed {
		outcome = OutcomeFailed
	} else if e.best == nil || res.Value > e.best.Value {
		best := *res
		e.best = &best
		e.metrics.setBest(res.Value)
	}
	e.metrics.observeRound(outcome, time.Since(start))
	logger.Info("Round finished.", "round", res.Round, "outcome", outcome, "value", res.Value)
	return res, nil
}

// evaluate resolves the space under root and scores it. A space resolving
// to a bound function is invoked with no arguments first, so the evaluator
// sees what the function builds.
func (e *Experiment) evaluate(ctx context.Context, root *tunable.Root) (float64, error) {
	c, err := root.NewContext(e.space)
	if err != nil {
		return 0, err
	}
	value, err := c.Value()
	if err != nil {
		return 0, err
	}
	if bound, ok := value.(*tunable.Bound); ok {
		if value, err = bound.Call(); err != nil {
			return 0, err
		}
	}
	return e.evaluator(ctx, value)
}

// Loop runs rounds until the optimizer reports the budget consumed or ctx
// is done. The budget in the fetched progress wins over the one requested at
// creation; a progress without a budget falls back to the requested one.
func (e *Experiment) Loop(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	defer e.rounds.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress, err := e.client.FetchProgress(ctx, e.info.ID)
		if err != nil {
			return err
		}
		budget := progress.Budget
		if budget == 0 {
			budget = e.info.Budget
		}
		if progress.ObservationCount >= budget {
			logger.Info("Experiment budget consumed.", "id", e.info.ID, "observations", progress.ObservationCount, "budget", budget)
			return nil
		}
		if _, err := e.RunRound(ctx); err != nil {
			return err
		}
	}
}
