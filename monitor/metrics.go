package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the monitor's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Evaluations      *prometheus.CounterVec
	EvaluationErrors prometheus.Counter
	TicksSkipped     prometheus.Counter
	Logouts          prometheus.Counter
}

// NewMetrics creates and registers the monitor metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Evaluations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ironlock",
				Name:      "evaluations_total",
				Help:      "Lock evaluations by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
		EvaluationErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "ironlock",
				Name:      "evaluation_errors_total",
				Help:      "Lock evaluations that failed because a collaborator returned an error",
			},
		),
		TicksSkipped: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "ironlock",
				Name:      "ticks_skipped_total",
				Help:      "Scheduled evaluations skipped because one was already running",
			},
		),
		Logouts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "ironlock",
				Name:      "logouts_total",
				Help:      "Logout callbacks invoked by the monitor",
			},
		),
	}
}

func (m *Metrics) recordDecision(d Decision) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(d.Outcome.String(), string(d.Reason)).Inc()
}

func (m *Metrics) recordError() {
	if m == nil {
		return
	}
	m.EvaluationErrors.Inc()
}

func (m *Metrics) recordSkip() {
	if m == nil {
		return
	}
	m.TicksSkipped.Inc()
}

func (m *Metrics) recordLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}
