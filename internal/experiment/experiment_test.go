package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/optimizer"
	"github.com/vk/tunegrid/internal/optimizer/local"
	"github.com/vk/tunegrid/internal/tunable"
)

// scripted is an optimizer.Client handing out fixed assignments in order.
type scripted struct {
	assignments  []tunable.Assignment
	next         int
	observations []optimizer.Observation
	budget       int
	suggestErr   error
	// reported replaces the budget in fetched progress when non-nil.
	reported *int
}

func (s *scripted) CreateExperiment(_ context.Context, name string, budget int, params []tunable.Descriptor) (*optimizer.Experiment, error) {
	s.budget = budget
	return &optimizer.Experiment{ID: "exp", Name: name, Budget: budget, Parameters: params}, nil
}

func (s *scripted) CreateSuggestion(context.Context, string) (*optimizer.Suggestion, error) {
	if s.suggestErr != nil {
		return nil, s.suggestErr
	}
	a := s.assignments[s.next%len(s.assignments)]
	s.next++
	return &optimizer.Suggestion{ID: fmt.Sprintf("s%d", s.next), Assignment: a}, nil
}

func (s *scripted) CreateObservation(_ context.Context, _ string, obs optimizer.Observation) error {
	s.observations = append(s.observations, obs)
	return nil
}

func (s *scripted) FetchProgress(context.Context, string) (*optimizer.Progress, error) {
	budget := s.budget
	if s.reported != nil {
		budget = *s.reported
	}
	return &optimizer.Progress{ObservationCount: len(s.observations), Budget: budget}, nil
}

// sumSpace resolves to a bound function adding a and b.
func sumSpace() tunable.Tunable {
	return tunable.Tunable(tunable.Tune(func(args tunable.Args) (any, error) {
		var a, b float64
		if err := args.Decode("a", &a); err != nil {
			return nil, err
		}
		if err := args.Decode("b", &b); err != nil {
			return nil, err
		}
		if a+b < 0 {
			return nil, fmt.Errorf("negative sum: %w", ErrInvalidConfiguration)
		}
		return a + b, nil
	}, map[string]tunable.Tunable{
		"a": tunable.MustDouble(1, -10, 10),
		"b": tunable.MustDouble(1, -10, 10),
	}))
}

func identity(_ context.Context, value any) (float64, error) {
	return value.(float64), nil
}

func TestExperiment_LoopReportsEveryRound(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	client := &scripted{assignments: []tunable.Assignment{
		{"a": 1.0, "b": 2.0},
		{"a": -5.0, "b": 1.0},
		{"a": 4.0, "b": 4.0},
		{"a": 0.0, "b": 0.5},
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	exp, err := New(ctx, client, Options{Name: "sum", Budget: 4, Space: sumSpace(), Evaluator: identity, Metrics: metrics})
	require.NoError(t, err)
	require.Len(t, exp.Parameters(), 2)

	// --- Act ---
	require.NoError(t, exp.Loop(ctx))

	// --- Assert ---
	require.Len(t, client.observations, 4)
	assert.Equal(t, 3.0, *client.observations[0].Value)
	assert.True(t, client.observations[1].Failed, "an invalid configuration is a failed observation")
	assert.Nil(t, client.observations[1].Value)
	assert.Equal(t, 8.0, *client.observations[2].Value)

	best, ok := exp.Best()
	require.True(t, ok)
	assert.Equal(t, 8.0, best.Value)
	assert.Equal(t, 3, best.Round)
	assert.Equal(t, "s3", best.SuggestionID)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.rounds.WithLabelValues(OutcomeObserved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rounds.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.best))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
}

func TestExperiment_LoopFollowsFetchedBudget(t *testing.T) {
	testCases := []struct {
		name     string
		reported int
		want     int
	}{
		{name: "smaller budget on the optimizer", reported: 2, want: 2},
		{name: "larger budget on the optimizer", reported: 7, want: 7},
		{name: "no budget in progress", reported: 0, want: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx := context.Background()
			reported := tc.reported
			client := &scripted{assignments: []tunable.Assignment{{"a": 1.0}}, reported: &reported}
			exp, err := New(ctx, client, Options{Name: "sum", Budget: 5, Space: sumSpace(), Evaluator: identity})
			require.NoError(t, err)

			// --- Act ---
			require.NoError(t, exp.Loop(ctx))

			// --- Assert ---
			assert.Len(t, client.observations, tc.want)
		})
	}
}

func TestExperiment_InvalidAssignmentIsAFailedObservation(t *testing.T) {
	ctx := context.Background()
	space := tunable.List(tunable.MustRepeat(tunable.Constant(1.0), tunable.MustInt(1, 0, 2)))
	client := &scripted{assignments: []tunable.Assignment{{"item[0]:count": 9}}}

	exp, err := New(ctx, client, Options{Name: "repeat", Budget: 1, Space: space, Evaluator: func(context.Context, any) (float64, error) {
		t.Fatal("evaluator must not run when resolution fails")
		return 0, nil
	}})
	require.NoError(t, err)

	res, err := exp.RunRound(ctx)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	require.ErrorIs(t, res.Err, tunable.ErrInvalidAssignment)
	require.Len(t, client.observations, 1)
	assert.True(t, client.observations[0].Failed)

	_, ok := exp.Best()
	assert.False(t, ok)
}

func TestExperiment_WarnsOnUnknownSuggestionKeys(t *testing.T) {
	// --- Arrange ---
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
	client := &scripted{assignments: []tunable.Assignment{{"a": 2.0, "c": 9.0}}}

	exp, err := New(ctx, client, Options{Name: "sum", Budget: 1, Space: sumSpace(), Evaluator: identity})
	require.NoError(t, err)

	// --- Act ---
	res, err := exp.RunRound(ctx)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Value, "unknown keys are ignored")
	assert.Contains(t, logs.String(), "Suggestion carries keys outside the search space")
	assert.Contains(t, logs.String(), `\"c\" is not a parameter`)
}

func TestExperiment_OtherErrorsAbort(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("evaluator crashed")
	client := &scripted{assignments: []tunable.Assignment{{}}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	exp, err := New(ctx, client, Options{Name: "boom", Budget: 3, Space: sumSpace(), Metrics: metrics, Evaluator: func(context.Context, any) (float64, error) {
		return 0, boom
	}})
	require.NoError(t, err)

	err = exp.Loop(ctx)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, client.observations, "nothing is reported for an aborted round")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rounds.WithLabelValues(OutcomeError)))
}

func TestExperiment_SuggestionErrorAborts(t *testing.T) {
	ctx := context.Background()
	client := &scripted{suggestErr: errors.New("service down")}

	exp, err := New(ctx, client, Options{Name: "down", Budget: 1, Space: sumSpace(), Evaluator: identity})
	require.NoError(t, err)

	_, err = exp.RunRound(ctx)
	require.ErrorContains(t, err, "service down")
}

func TestExperiment_RoundsDoNotLeakValues(t *testing.T) {
	ctx := context.Background()
	var seen []any
	client := &scripted{assignments: []tunable.Assignment{{"a": 2.0}, {}}}

	exp, err := New(ctx, client, Options{Name: "leak", Budget: 2, Space: sumSpace(), Evaluator: func(_ context.Context, v any) (float64, error) {
		seen = append(seen, v)
		return v.(float64), nil
	}})
	require.NoError(t, err)
	require.NoError(t, exp.Loop(ctx))

	assert.Equal(t, []any{3.0, 2.0}, seen, "the second round falls back to defaults")
}

func TestExperiment_LoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scripted{assignments: []tunable.Assignment{{}}}

	exp, err := New(ctx, client, Options{Name: "cancel", Budget: 100, Space: sumSpace(), Evaluator: func(context.Context, any) (float64, error) {
		cancel()
		return 1, nil
	}})
	require.NoError(t, err)

	err = exp.Loop(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, client.observations, 1)
}

func TestExperiment_WithLocalOptimizer(t *testing.T) {
	ctx := context.Background()
	client := local.New(11)

	exp, err := New(ctx, client, Options{Name: "local", Budget: 15, Space: sumSpace(), Evaluator: identity})
	require.NoError(t, err)
	require.NoError(t, exp.Loop(ctx))

	progress, err := client.FetchProgress(ctx, exp.ID())
	require.NoError(t, err)
	assert.Equal(t, 15, progress.ObservationCount)

	best, ok := exp.Best()
	if ok {
		assert.GreaterOrEqual(t, best.Value, 0.0)
	}
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	client := &scripted{}

	_, err := New(ctx, client, Options{Name: "x", Budget: 1, Evaluator: identity})
	require.ErrorContains(t, err, "no search space")

	_, err = New(ctx, client, Options{Name: "x", Budget: 1, Space: sumSpace()})
	require.ErrorContains(t, err, "no evaluator")

	_, err = New(ctx, client, Options{Name: "x", Space: sumSpace(), Evaluator: identity})
	require.ErrorContains(t, err, "positive budget")

	_, err = New(ctx, client, Options{Name: "x", Budget: 1, Space: tunable.MustInt(1, 0, 2), Evaluator: identity})
	require.ErrorIs(t, err, tunable.ErrDeclaration)
}
