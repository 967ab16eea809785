package backend

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamhub",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Logical backend calls by method, route and final status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamhub",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of logical backend calls, including any refresh and retry.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamhub",
			Subsystem: "backend",
			Name:      "credential_refreshes_total",
			Help:      "Access credential refresh exchanges by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.refreshes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering backend metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}
