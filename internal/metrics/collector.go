// Package zinometrics provides Prometheus instrumentation for the gozino
// event manager.
package zinometrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "gozino"
	subsystem = "manager"
)

// Label names for manager metrics.
const (
	labelVariant  = "variant"
	labelFromKind = "from_state"
	labelToKind   = "to_state"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Event Manager Metrics
// -------------------------------------------------------------------------

// Collector holds all gozino Prometheus metrics.
//
// Metrics are designed for long-lived TUI/dashboard processes:
//   - Events tracks currently live events per variant.
//   - RemovedTotal counts evictions (scavenged, autoremove, explicit).
//   - UpdatesTotal counts applied notification updates per update kind.
//   - ReconnectsTotal counts full reconnects of the session.
//   - ProtocolErrorsTotal and AuthFailuresTotal flag server/transport trouble.
type Collector struct {
	// Events tracks the number of currently live events, labeled by variant.
	Events *prometheus.GaugeVec

	// RemovedTotal counts events evicted from the live map, labeled by variant.
	RemovedTotal *prometheus.CounterVec

	// UpdatesTotal counts notification updates applied, labeled by update kind
	// ("state", "attr", "history", "log", "scavenged", "unknown").
	UpdatesTotal *prometheus.CounterVec

	// StateTransitionsTotal counts admin-state transitions, labeled by
	// from/to state: those observed via "state" notifications, and those
	// the client requests itself (recorded with an empty from state).
	StateTransitionsTotal *prometheus.CounterVec

	// ReconnectsTotal counts full session reconnects.
	ReconnectsTotal prometheus.Counter

	// ProtocolErrorsTotal counts non-2xx/non-3xx server responses translated
	// to ErrProtocol.
	ProtocolErrorsTotal prometheus.Counter

	// AuthFailuresTotal counts failed authentication attempts.
	AuthFailuresTotal prometheus.Counter
}

// NewCollector creates a Collector with all metrics registered against the
// provided prometheus.Registerer. If reg is nil, prometheus.DefaultRegisterer
// is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Events,
		c.RemovedTotal,
		c.UpdatesTotal,
		c.StateTransitionsTotal,
		c.ReconnectsTotal,
		c.ProtocolErrorsTotal,
		c.AuthFailuresTotal,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		Events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events",
			Help:      "Number of currently live events, by variant.",
		}, []string{labelVariant}),

		RemovedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "removed_total",
			Help:      "Total events evicted from the live event map, by variant.",
		}, []string{labelVariant}),

		UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "updates_total",
			Help:      "Total notification updates applied, by update kind.",
		}, []string{"kind"}),

		StateTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_transitions_total",
			Help:      "Total admin-state transitions, from notifications and client-issued state changes.",
		}, []string{labelFromKind, labelToKind}),

		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconnects_total",
			Help:      "Total full session reconnects.",
		}),

		ProtocolErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "protocol_errors_total",
			Help:      "Total server responses translated to a protocol error.",
		}),

		AuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "auth_failures_total",
			Help:      "Total failed authentication attempts.",
		}),
	}
}

// -------------------------------------------------------------------------
// Event Lifecycle
// -------------------------------------------------------------------------

// RegisterEvent increments the live-events gauge for the given variant.
func (c *Collector) RegisterEvent(variant string) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(variant).Inc()
}

// UnregisterEvent decrements the live-events gauge and increments the
// removed counter for the given variant.
func (c *Collector) UnregisterEvent(variant string) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(variant).Dec()
	c.RemovedTotal.WithLabelValues(variant).Inc()
}

// -------------------------------------------------------------------------
// Updates
// -------------------------------------------------------------------------

// IncUpdate increments the updates counter for the given update kind.
func (c *Collector) IncUpdate(kind string) {
	if c == nil {
		return
	}
	c.UpdatesTotal.WithLabelValues(kind).Inc()
}

// RecordStateTransition increments the state-transition counter.
func (c *Collector) RecordStateTransition(from, to string) {
	if c == nil {
		return
	}
	c.StateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// -------------------------------------------------------------------------
// Session
// -------------------------------------------------------------------------

// IncReconnect increments the reconnects counter.
func (c *Collector) IncReconnect() {
	if c == nil {
		return
	}
	c.ReconnectsTotal.Inc()
}

// IncProtocolError increments the protocol-errors counter.
func (c *Collector) IncProtocolError() {
	if c == nil {
		return
	}
	c.ProtocolErrorsTotal.Inc()
}

// IncAuthFailure increments the auth-failures counter.
func (c *Collector) IncAuthFailure() {
	if c == nil {
		return
	}
	c.AuthFailuresTotal.Inc()
}
