package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "funls_parse_seconds",
		Help:    "Time spent extracting symbols from a source file.",
		Buckets: prometheus.DefBuckets,
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "funls_scan_seconds",
		Help:    "Time spent on a full workspace scan.",
		Buckets: prometheus.DefBuckets,
	})

	IndexedModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "funls_index_modules",
		Help: "Number of modules currently held in the workspace index.",
	})

	CompletionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funls_completion_requests_total",
		Help: "Total number of completion requests by resolved context.",
	}, []string{"context"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funls_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RequestsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funls_requests_dropped_total",
		Help: "Total number of protocol requests rejected by the rate limiter.",
	})
)
