// Package prometheus provides metrics decorators for rangegrab services.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors shared by the decorators.
type Metrics struct {
	// Attempts counts fetch attempts by exit class.
	Attempts *prometheus.CounterVec

	// FetchLatency observes fetch durations in seconds.
	FetchLatency prometheus.Histogram

	// Batches counts batches reported to the tracker by outcome.
	Batches *prometheus.CounterVec

	// Bytes counts archive bytes reported done.
	Bytes prometheus.Counter

	// Uploads counts upload calls by result.
	Uploads *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangegrab_fetch_attempts_total",
				Help: "Total number of fetch attempts",
			},
			[]string{"class"},
		),
		FetchLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rangegrab_fetch_duration_seconds",
				Help:    "Fetch duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		Batches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangegrab_batches_total",
				Help: "Total number of batches reported to the tracker",
			},
			[]string{"outcome"},
		),
		Bytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rangegrab_archive_bytes_total",
				Help: "Total archive bytes in completed batches",
			},
		),
		Uploads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangegrab_uploads_total",
				Help: "Total number of batch uploads",
			},
			[]string{"result"},
		),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
