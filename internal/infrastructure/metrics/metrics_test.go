package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/infrastructure/metrics"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				if l.GetName() == "service" || l.GetName() == "env" {
					continue
				}
				key += "," + l.GetName() + "=" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetrics_Reconciliaciones(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, metrics.Config{Environment: "test"})

	m.Reconciliation(reconcile.SourceMessage, reconcile.OutcomeApplied)
	m.Reconciliation(reconcile.SourceMessage, reconcile.OutcomeApplied)
	m.Reconciliation(reconcile.SourceRedirect, reconcile.OutcomeIgnored)
	m.ProviderRequest("payment", "ok", 2*time.Second)

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["slipstream_reconciliations_total,outcome=applied,source=message"])
	assert.Equal(t, 1.0, got["slipstream_reconciliations_total,outcome=ignored,source=redirect"])
	assert.Equal(t, 1.0, got["slipstream_provider_requests_total,operation=payment,result=ok"])
	assert.Equal(t, 1.0, got["slipstream_provider_request_duration_seconds,operation=payment"])
}

func TestMetrics_SesionesAbiertas(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, metrics.Config{})
	n := 3
	m.RegisterOpenSessions(func() int { return n })

	assert.Equal(t, 3.0, gather(t, reg)["slipstream_sessions_open"])
	n = 1
	assert.Equal(t, 1.0, gather(t, reg)["slipstream_sessions_open"])
}

func TestMetrics_ReceptorNil(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Reconciliation(reconcile.SourceMessage, reconcile.OutcomeApplied)
		m.ProviderRequest("health", "error", time.Millisecond)
		m.RegisterOpenSessions(func() int { return 0 })
	})
}
