// Package metrics provides Prometheus metrics for the aggregation engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Event outcome labels.
const (
	EventAccepted  = "accepted"
	EventDropped   = "dropped"
	EventDiscarded = "discarded"
)

// Metrics holds all engine counters on a private registry. A nil *Metrics is
// valid and records nothing, so library packages can take it optionally.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec
	FlushesTotal     prometheus.Counter
	RecordsPersisted prometheus.Counter
	ReplayBatches    prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keybeat_events_total",
				Help: "Editor events by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		FlushesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keybeat_flushes_total",
				Help: "Flush cycles executed.",
			},
		),
		RecordsPersisted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keybeat_records_persisted_total",
				Help: "Activity records written to the offline store.",
			},
		),
		ReplayBatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keybeat_replay_batches_total",
				Help: "Offline batches submitted to the collector.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.EventsTotal)
	reg.MustRegister(m.FlushesTotal)
	reg.MustRegister(m.RecordsPersisted)
	reg.MustRegister(m.ReplayBatches)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvent increments the event counter.
func (m *Metrics) RecordEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordFlush increments the flush counter.
func (m *Metrics) RecordFlush() {
	if m == nil {
		return
	}
	m.FlushesTotal.Inc()
}

// RecordPersisted increments the persisted-records counter.
func (m *Metrics) RecordPersisted() {
	if m == nil {
		return
	}
	m.RecordsPersisted.Inc()
}

// RecordReplayBatch increments the replay batch counter.
func (m *Metrics) RecordReplayBatch() {
	if m == nil {
		return
	}
	m.ReplayBatches.Inc()
}
