package sink

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest outcomes, used as the "outcome" label.
const (
	outcomeAccepted            = "accepted"
	outcomeNotSubscribed       = "not_subscribed"
	outcomeUnknownSubscription = "unknown_subscription"
	outcomeTooLarge            = "too_large"
	outcomeInvalidBody         = "invalid_body"
	outcomeSignatureMissing    = "signature_missing"
	outcomeSignatureInvalid    = "signature_invalid"
	outcomeError               = "error"
)

type metrics struct {
	registry *prometheus.Registry
	ingested *prometheus.CounterVec
	duration prometheus.Histogram
	bytes    prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hookctl",
			Subsystem: "sink",
			Name:      "ingest_requests_total",
			Help:      "Ingestion requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hookctl",
			Subsystem: "sink",
			Name:      "ingest_duration_seconds",
			Help:      "Time to verify and record an ingestion request.",
			Buckets:   prometheus.DefBuckets,
		}),
		bytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hookctl",
			Subsystem: "sink",
			Name:      "ingest_body_bytes",
			Help:      "Size of accepted request bodies.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
	m.registry.MustRegister(m.ingested, m.duration, m.bytes)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
