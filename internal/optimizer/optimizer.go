// Package optimizer defines the boundary to an external black-box optimizer:
// register an experiment with its flattened parameters, ask for suggestions,
// report observations.
//
// Two implementations exist: optimizer/rest talks to a hosted optimization
// service over HTTP, optimizer/local runs a seeded random search in process.
package optimizer

import (
	"context"

	"github.com/vk/tunegrid/internal/tunable"
)

// Client is the optimizer service as seen by the experiment loop.
type Client interface {
	// CreateExperiment registers a new experiment over params and returns it
	// with its service-assigned ID.
	CreateExperiment(ctx context.Context, name string, budget int, params []tunable.Descriptor) (*Experiment, error)

	// CreateSuggestion asks for the next assignment to evaluate.
	CreateSuggestion(ctx context.Context, experimentID string) (*Suggestion, error)

	// CreateObservation reports the outcome of evaluating a suggestion.
	CreateObservation(ctx context.Context, experimentID string, obs Observation) error

	// FetchProgress returns how much of the budget has been consumed.
	FetchProgress(ctx context.Context, experimentID string) (*Progress, error)
}

// Experiment is a registered experiment.
type Experiment struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Budget     int                  `json:"observation_budget"`
	Parameters []tunable.Descriptor `json:"parameters"`
}

// Suggestion is one assignment proposed by the optimizer.
type Suggestion struct {
	ID         string             `json:"id"`
	Assignment tunable.Assignment `json:"assignments"`
}

// Observation is the outcome of evaluating one suggestion. A failed
// observation carries no value; it tells the optimizer the region is
// infeasible.
type Observation struct {
	SuggestionID string   `json:"suggestion"`
	Value        *float64 `json:"value,omitempty"`
	Failed       bool     `json:"failed,omitempty"`
}

// Succeeded builds an observation carrying value.
func Succeeded(suggestionID string, value float64) Observation {
	return Observation{SuggestionID: suggestionID, Value: &value}
}

// Failed builds a failed observation.
func Failed(suggestionID string) Observation {
	return Observation{SuggestionID: suggestionID, Failed: true}
}

// Progress summarizes an experiment's consumption of its budget.
type Progress struct {
	ObservationCount int `json:"observation_count"`
	Budget           int `json:"observation_budget"`
}

// Remaining returns how many observations the budget still allows.
func (p *Progress) Remaining() int {
	if r := p.Budget - p.ObservationCount; r > 0 {
		return r
	}
	return 0
}
