// Package metrics exposes the Prometheus collectors shared by the primary
// and secondary roles. Every gauge/counter here is wired to a concrete event
// in internal/primary or internal/secondary — nothing is registered unused.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles all collectors for one process (primary or secondary).
type Metrics struct {
	registry *prometheus.Registry

	AppendLatency    prometheus.Histogram
	AppendsTotal     *prometheus.CounterVec // label: status (committed|partial)
	ReplicationTotal *prometheus.CounterVec // labels: peer, outcome (ok|fail)
	PeerHealth       *prometheus.GaugeVec   // label: peer; value 0=Healthy 1=Suspected 2=Unhealthy
	QuorumLost       prometheus.Gauge
	AppliedLogSize   prometheus.Gauge // secondary only
	BufferedEntries  prometheus.Gauge // secondary only
}

// New creates and registers a fresh collector set in its own registry, so
// primary and secondary instances in the same test process never collide.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AppendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "append_latency_seconds",
			Help:      "Time from Append() call to the response being ready.",
			Buckets:   prometheus.DefBuckets,
		}),
		AppendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appends_total",
			Help:      "Append calls by outcome.",
		}, []string{"status"}),
		ReplicationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_attempts_total",
			Help:      "Replicate RPC attempts per peer by outcome.",
		}, []string{"peer", "outcome"}),
		PeerHealth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peer_health",
			Help:      "Current health classification per peer (0=Healthy,1=Suspected,2=Unhealthy).",
		}, []string{"peer"}),
		QuorumLost: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quorum_lost",
			Help:      "1 when the primary is in read-only mode due to lost quorum.",
		}),
		AppliedLogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "applied_log_size",
			Help:      "Number of contiguous entries applied on a secondary.",
		}),
		BufferedEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_entries",
			Help:      "Number of out-of-order entries currently buffered on a secondary.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this collector set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
