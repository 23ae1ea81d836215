package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts remote calls by route and outcome. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Remote API requests by method, route and outcome.",
		}, []string{"method", "route", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopfront",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Remote API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(method, route string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, outcome(err)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// outcome is "ok", the status code of a rejected call, or "error" for transport failures.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code)
	}
	return "error"
}
