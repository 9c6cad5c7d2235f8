package metrics

import "github.com/prometheus/client_golang/prometheus"

// Request outcomes recorded by the chat endpoint
const (
	OutcomeOK               = "ok"
	OutcomePreflight        = "preflight"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeInvalidRequest   = "invalid_request"
	OutcomeNotConfigured    = "not_configured"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeInternalError    = "internal_error"
)

// Upstream call results
const (
	ResultSuccess   = "success"
	ResultStatus    = "status_error"
	ResultTransport = "transport_error"
	ResultMalformed = "malformed"
)

// ChatMetrics exposes counters/histograms for the chat proxy.
type ChatMetrics struct {
	requestsTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	upstreamStatus  *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatproxy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Chat endpoint requests by outcome",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatproxy",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of chat-completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"result"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatproxy",
			Subsystem: "upstream",
			Name:      "error_status_total",
			Help:      "Non-success HTTP statuses reported by the upstream API",
		}, []string{"code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.upstreamLatency, m.upstreamStatus)
	return m
}

func (m *ChatMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveUpstream(result string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(result).Observe(seconds)
}

func (m *ChatMetrics) ObserveUpstreamStatus(code string) {
	if m == nil {
		return
	}
	m.upstreamStatus.WithLabelValues(code).Inc()
}
