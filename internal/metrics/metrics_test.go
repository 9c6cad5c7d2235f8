package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveRequest(OutcomeOK)
	m.ObserveRequest(OutcomeOK)
	m.ObserveRequest(OutcomeUpstreamError)
	m.ObserveUpstream(ResultSuccess, 0.8)
	m.ObserveUpstreamStatus("429")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues(OutcomeUpstreamError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.upstreamStatus.WithLabelValues("429")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.upstreamLatency))
}

func TestChatMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewChatMetrics(reg)
	assert.Panics(t, func() { NewChatMetrics(reg) })
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveRequest(OutcomeOK)
	m.ObserveUpstream(ResultTransport, 0.1)
	m.ObserveUpstreamStatus("500")
}
