// Package metrics exposes Prometheus measurements for analyses and remote
// backend calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"certcheck/internal/certcheck"
	"certcheck/internal/remote"
)

// Metrics implements certcheck.Observer and remote.CallObserver.
// A nil *Metrics discards every observation.
type Metrics struct {
	// Verdicts by status and evaluation path
	Verdicts *prometheus.CounterVec

	// Full Analyze latency
	AnalyzeLatency prometheus.Histogram

	// Remote backend call latency by operation and outcome
	RemoteLatency *prometheus.HistogramVec

	// Remote pipelines abandoned in favour of the registry
	Fallbacks prometheus.Counter
}

var (
	_ certcheck.Observer  = (*Metrics)(nil)
	_ remote.CallObserver = (*Metrics)(nil)
)

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certcheck_verdicts_total",
			Help: "Total verdicts by status and evaluation path",
		}, []string{"status", "path"}),

		AnalyzeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certcheck_analyze_duration_seconds",
			Help:    "Duration of a full artifact analysis including remote calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),

		RemoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certcheck_remote_call_duration_seconds",
			Help:    "Duration of remote backend calls by operation and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"op", "outcome"}), // outcome: "ok", "error", "timeout"

		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "certcheck_remote_fallbacks_total",
			Help: "Total analyses that fell back from the remote backend to the local registry",
		}),
	}
}

// ObserveVerdict records one verdict and how long it took.
func (m *Metrics) ObserveVerdict(status certcheck.Status, path certcheck.Path, seconds float64) {
	if m != nil {
		m.Verdicts.WithLabelValues(string(status), string(path)).Inc()
		m.AnalyzeLatency.Observe(seconds)
	}
}

// ObserveFallback records an abandoned remote pipeline.
func (m *Metrics) ObserveFallback() {
	if m != nil {
		m.Fallbacks.Inc()
	}
}

// ObserveRemoteCall records the duration of a single remote call.
func (m *Metrics) ObserveRemoteCall(op, outcome string, seconds float64) {
	if m != nil {
		m.RemoteLatency.WithLabelValues(op, outcome).Observe(seconds)
	}
}
