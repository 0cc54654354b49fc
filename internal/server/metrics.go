package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"httpwire/internal/response"
)

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	activeConns     prometheus.Gauge
	acceptErrors    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpwire",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Requests served, by response status code.",
		}, []string{"code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "httpwire",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Time from request read to response written.",
			Buckets:   prometheus.DefBuckets,
		}),
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "httpwire",
			Subsystem: "server",
			Name:      "active_connections",
			Help:      "Connections currently being served.",
		}),
		acceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpwire",
			Subsystem: "server",
			Name:      "accept_errors_total",
			Help:      "Accept failures that did not stop the listener.",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.activeConns, m.acceptErrors)
	return m
}

func (m *metrics) observeRequest(code response.StatusCode, seconds float64) {
	m.requestsTotal.WithLabelValues(strconv.Itoa(int(code))).Inc()
	m.requestDuration.Observe(seconds)
}
