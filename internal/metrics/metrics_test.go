package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certcheck/internal/certcheck"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveVerdict(certcheck.StatusValid, certcheck.PathLocal, 0.01)
	m.ObserveVerdict(certcheck.StatusValid, certcheck.PathLocal, 0.02)
	m.ObserveVerdict(certcheck.StatusSuspect, certcheck.PathRemote, 0.5)
	m.ObserveFallback()
	m.ObserveRemoteCall("upload", "timeout", 15)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.Verdicts.WithLabelValues("valid", "local")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Verdicts.WithLabelValues("suspect", "remote")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Fallbacks))
	assert.Equal(t, 1, promtest.CollectAndCount(m.RemoteLatency))
	assert.Equal(t, 1, promtest.CollectAndCount(m.AnalyzeLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"certcheck_verdicts_total",
		"certcheck_analyze_duration_seconds",
		"certcheck_remote_call_duration_seconds",
		"certcheck_remote_fallbacks_total",
	}, names)
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveVerdict(certcheck.StatusInvalid, certcheck.PathNone, 0)
		m.ObserveFallback()
		m.ObserveRemoteCall("verify", "error", 1)
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
