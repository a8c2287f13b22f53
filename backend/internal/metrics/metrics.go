// Package metrics exposes Prometheus instruments for exploration sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"newsgraph/backend/internal/explorer"
)

// Metrics holds the collectors registered for the explorer.
type Metrics struct {
	fetches        *prometheus.CounterVec
	merges         prometheus.Counter
	nodesAdded     prometheus.Counter
	edgesAdded     prometheus.Counter
	activeSessions prometheus.Gauge
	activations    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsgraph",
			Name:      "fetches_total",
			Help:      "Article fetches resolved, by request kind and result.",
		}, []string{"kind", "result"}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newsgraph",
			Name:      "merges_total",
			Help:      "Candidate graphs merged into session graphs.",
		}),
		nodesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newsgraph",
			Name:      "nodes_added_total",
			Help:      "Nodes added to session graphs.",
		}),
		edgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newsgraph",
			Name:      "edges_added_total",
			Help:      "Edges appended to session graphs.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "newsgraph",
			Name:      "active_sessions",
			Help:      "Exploration sessions currently alive.",
		}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsgraph",
			Name:      "activations_total",
			Help:      "Node activations, by resulting action.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.fetches, m.merges, m.nodesAdded, m.edgesAdded, m.activeSessions, m.activations)
	return m
}

// Resolved implements explorer.Observer.
func (m *Metrics) Resolved(req explorer.Request, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(req.Kind.String(), result).Inc()
}

// Merged implements explorer.Observer.
func (m *Metrics) Merged(req explorer.Request, nodesAdded, edgesAdded int) {
	m.merges.Inc()
	m.nodesAdded.Add(float64(nodesAdded))
	m.edgesAdded.Add(float64(edgesAdded))
}

func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

func (m *Metrics) Activated(action explorer.Action) {
	m.activations.WithLabelValues(string(action)).Inc()
}
