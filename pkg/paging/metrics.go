package paging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unsplash_paging_loads_total",
		Help: "Page loads by source and result (page, end, or error class)",
	}, []string{"source", "result"})

	telemetryReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unsplash_paging_telemetry_reports_total",
		Help: "Load failures handed to the telemetry recorder by source",
	}, []string{"source"})

	batchPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unsplash_paging_batch_pages_total",
		Help: "Pages fetched by the batch fetcher by result",
	}, []string{"result"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unsplash_paging_batch_duration_seconds",
		Help:    "Duration of batch fetches in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
