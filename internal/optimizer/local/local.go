// Package local implements optimizer.Client in process with a seeded random
// search. It needs no network access, which makes it the default for trying
// out a search space and for tests.
package local

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/optimizer"
	"github.com/vk/tunegrid/internal/tunable"
)

// ErrNotFound is returned for unknown experiment or suggestion IDs.
var ErrNotFound = errors.New("not found")

type experiment struct {
	info         optimizer.Experiment
	open         map[string]struct{} // suggestions awaiting an observation
	observed     int
	observations []optimizer.Observation
}

// Client is an in-memory optimizer. It is safe for concurrent use.
type Client struct {
	mu          sync.Mutex
	rng         *rand.Rand
	experiments map[string]*experiment
}

var _ optimizer.Client = (*Client)(nil)

// New returns a client whose suggestions are reproducible for a given seed.
func New(seed uint64) *Client {
	return &Client{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		experiments: make(map[string]*experiment),
	}
}

func (c *Client) CreateExperiment(ctx context.Context, name string, budget int, params []tunable.Descriptor) (*optimizer.Experiment, error) {
	if budget < 0 {
		return nil, fmt.Errorf("budget cannot be negative, got %d", budget)
	}
	for _, p := range params {
		if err := checkDescriptor(p); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	exp := &experiment{
		info: optimizer.Experiment{
			ID:         uuid.NewString(),
			Name:       name,
			Budget:     budget,
			Parameters: slices.Clone(params),
		},
		open: make(map[string]struct{}),
	}
	c.experiments[exp.info.ID] = exp
	ctxlog.FromContext(ctx).Debug("Local experiment created.", "id", exp.info.ID, "name", name, "parameters", len(params))

	info := exp.info
	return &info, nil
}

func (c *Client) CreateSuggestion(ctx context.Context, experimentID string) (*optimizer.Suggestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.experiments[experimentID]
	if !ok {
		return nil, fmt.Errorf("experiment %q: %w", experimentID, ErrNotFound)
	}

	assignment := make(tunable.Assignment, len(exp.info.Parameters))
	for _, p := range exp.info.Parameters {
		assignment[p.Name] = c.sample(p)
	}
	s := &optimizer.Suggestion{ID: uuid.NewString(), Assignment: assignment}
	exp.open[s.ID] = struct{}{}
	ctxlog.FromContext(ctx).Debug("Local suggestion created.", "experiment", experimentID, "suggestion", s.ID)
	return s, nil
}

func (c *Client) CreateObservation(ctx context.Context, experimentID string, obs optimizer.Observation) error {
	if obs.Failed == (obs.Value != nil) {
		return fmt.Errorf("observation for %q must carry either a value or the failed flag", obs.SuggestionID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.experiments[experimentID]
	if !ok {
		return fmt.Errorf("experiment %q: %w", experimentID, ErrNotFound)
	}
	if _, open := exp.open[obs.SuggestionID]; !open {
		return fmt.Errorf("suggestion %q of experiment %q: %w", obs.SuggestionID, experimentID, ErrNotFound)
	}
	delete(exp.open, obs.SuggestionID)
	exp.observed++
	exp.observations = append(exp.observations, obs)
	ctxlog.FromContext(ctx).Debug("Local observation recorded.", "experiment", experimentID, "suggestion", obs.SuggestionID, "failed", obs.Failed)
	return nil
}

func (c *Client) FetchProgress(_ context.Context, experimentID string) (*optimizer.Progress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.experiments[experimentID]
	if !ok {
		return nil, fmt.Errorf("experiment %q: %w", experimentID, ErrNotFound)
	}
	return &optimizer.Progress{ObservationCount: exp.observed, Budget: exp.info.Budget}, nil
}

// Observations returns the observations recorded for an experiment, in order.
func (c *Client) Observations(experimentID string) []optimizer.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.experiments[experimentID]
	if !ok {
		return nil
	}
	return slices.Clone(exp.observations)
}

// sample draws a value uniformly from p's domain. Callers hold c.mu.
func (c *Client) sample(p tunable.Descriptor) any {
	switch p.Type {
	case tunable.TypeInt:
		lo, hi := int64(p.Bounds.Min), int64(p.Bounds.Max)
		return lo + c.rng.Int64N(hi-lo+1)
	case tunable.TypeDouble:
		return p.Bounds.Min + c.rng.Float64()*(p.Bounds.Max-p.Bounds.Min)
	default:
		return p.CategoricalValues[c.rng.IntN(len(p.CategoricalValues))]
	}
}

func checkDescriptor(p tunable.Descriptor) error {
	switch p.Type {
	case tunable.TypeInt, tunable.TypeDouble:
		if p.Bounds == nil || p.Bounds.Min > p.Bounds.Max {
			return fmt.Errorf("parameter %q needs valid bounds", p.Name)
		}
	case tunable.TypeCategorical:
		if len(p.CategoricalValues) == 0 {
			return fmt.Errorf("parameter %q needs categorical values", p.Name)
		}
	default:
		return fmt.Errorf("parameter %q has unknown type %q", p.Name, p.Type)
	}
	return nil
}
