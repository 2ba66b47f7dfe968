// Package metrics records sync client activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

const namespace = "wadash"

// Recorder owns a dedicated registry so several recorders can coexist in one
// process and tests.
type Recorder struct {
	registry *prometheus.Registry

	events       *prometheus.CounterVec
	polls        *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	connected    *prometheus.GaugeVec
}

var _ ports.SyncMetrics = (*Recorder)(nil)

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_events_total",
				Help:      "Realtime events handled by the sync client, by outcome",
			},
			[]string{"kind", "outcome"},
		),
		polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_polls_total",
				Help:      "Periodic refetches, by result",
			},
			[]string{"kind", "result"},
		),
		pollDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_poll_duration_seconds",
				Help:      "Duration of periodic refetches",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "realtime_state_transitions_total",
				Help:      "Realtime channel state changes, by new status",
			},
			[]string{"kind", "status"},
		),
		connected: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "realtime_connected",
				Help:      "1 while the realtime channel is connected",
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) ObserveEvent(kind domain.EntityKind, outcome domain.ApplyOutcome) {
	r.events.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (r *Recorder) ObservePoll(kind domain.EntityKind, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.polls.WithLabelValues(string(kind), result).Inc()
	r.pollDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveConnState(kind domain.EntityKind, state domain.ConnState) {
	r.transitions.WithLabelValues(string(kind), state.String()).Inc()
	value := 0.0
	if state.Live() {
		value = 1
	}
	r.connected.WithLabelValues(string(kind)).Set(value)
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
