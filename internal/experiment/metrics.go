package experiment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Round outcomes as reported in the rounds_total metric.
const (
	OutcomeObserved = "observed"
	OutcomeFailed   = "failed"
	OutcomeError    = "error"
)

// Metrics records experiment progress. A nil *Metrics records nothing.
type Metrics struct {
	rounds   *prometheus.CounterVec
	duration prometheus.Histogram
	best     prometheus.Gauge
}

// NewMetrics registers the experiment metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tunegrid_rounds_total",
			Help: "Rounds completed, by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tunegrid_round_duration_seconds",
			Help:    "Wall time of one round: suggestion, resolution, evaluation and report.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
		}),
		best: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tunegrid_best_score",
			Help: "Best value observed so far.",
		}),
	}
}

func (m *Metrics) observeRound(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) setBest(v float64) {
	if m == nil {
		return
	}
	m.best.Set(v)
}
