// Package metrics holds the Prometheus collectors exported by shelfmark.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup and backend metrics.
var (
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfmark",
			Name:      "lookups_total",
			Help:      "Total number of title lookups by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "written" / "not_found" / "unavailable" / "error"
	)

	SearchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfmark",
			Name:      "search_attempts_total",
			Help:      "Search attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfmark",
			Name:      "backend_requests_total",
			Help:      "Total requests sent to metadata and translation backends",
		},
		[]string{"backend", "endpoint", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shelfmark",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "endpoint"},
	)

	TranslationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfmark",
			Name:      "translations_total",
			Help:      "Translation requests by backend and status",
		},
		[]string{"backend", "status"},
	)
)

var registerOnce sync.Once

// Register registers the lookup collectors with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(LookupsTotal)
		prometheus.MustRegister(SearchAttemptsTotal)
		prometheus.MustRegister(BackendRequestsTotal)
		prometheus.MustRegister(BackendRequestDuration)
		prometheus.MustRegister(TranslationsTotal)
	})
}
