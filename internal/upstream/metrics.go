package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cockpit",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests sent to the backends by outcome.",
	}, []string{"backend", "method", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cockpit",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "method"})
)

// outcome labels
const (
	outcomeOK = "ok"
)

func outcomeOf(err error) string {
	if err == nil {
		return outcomeOK
	}
	return Kind(err).String()
}
