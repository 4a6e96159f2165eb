package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minuted",
		Subsystem: "ingest",
		Name:      "render_attempts_total",
		Help:      "Render backend attempts by backend and outcome.",
	}, []string{"backend", "outcome"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "minuted",
		Subsystem: "ingest",
		Name:      "fetch_duration_seconds",
		Help:      "Wall time of a full conversation fetch including fallbacks.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	extractionHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minuted",
		Subsystem: "ingest",
		Name:      "extraction_strategy_hits_total",
		Help:      "Successful extractions by winning strategy.",
	}, []string{"strategy"})

	manualFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minuted",
		Subsystem: "ingest",
		Name:      "manual_fallbacks_total",
		Help:      "Fetches that exhausted every backend and asked for a pasted transcript.",
	})
)

const (
	outcomeOK           = "ok"
	outcomeError        = "error"
	outcomeInconclusive = "inconclusive"
)
