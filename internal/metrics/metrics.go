package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricsEndpoint = "0.0.0.0:9090"
)

var (
	RefreshCounter        *prometheus.CounterVec
	RefreshRunTimeSummary *prometheus.SummaryVec
	RefreshTruncatedCount *prometheus.CounterVec

	QueryCounter        *prometheus.CounterVec
	QueryRunTimeSummary *prometheus.SummaryVec

	BuildCounter  *prometheus.CounterVec
	ModifyCounter *prometheus.CounterVec

	SubmissionErrorCount *prometheus.CounterVec
)

func init() {
	RefreshCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicer_cache_refresh_count",
			Help: "A counter metric to measure the total count of cache refresh cycles, successful and failed",
		},
		[]string{"kind", "state"}, // state is published/failed
	)

	RefreshRunTimeSummary = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "slicer_cache_refresh_duration_seconds",
			Help: "A summary metric to measure the total time spent in each cache refresh cycle",
		},
		[]string{"kind"},
	)

	RefreshTruncatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicer_cache_refresh_truncated_count",
			Help: "A counter metric to measure how often a fetch exceeded the per-cycle ceiling and was truncated",
		},
		[]string{"kind"},
	)

	QueryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicer_query_count",
			Help: "A counter metric to measure the total count of inventory queries served",
		},
		[]string{"kind", "state"}, // state is ok/invalid
	)

	QueryRunTimeSummary = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "slicer_query_duration_seconds",
			Help: "A summary metric to measure the time spent evaluating each inventory query",
		},
		[]string{"kind"},
	)

	BuildCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicer_build_count",
			Help: "A counter metric to measure the total count of topology build requests, resolved and failed",
		},
		[]string{"state"},
	)

	ModifyCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicer_modify_count",
			Help: "A counter metric to measure the total count of topology modify reconciliations, resolved and failed",
		},
		[]string{"state"},
	)

	SubmissionErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slicer_submission_error_count",
			Help: "A counter metric to measure the total count of orchestrator submission errors.",
		},
		[]string{"endpoint"},
	)
}

// ListenAndServe exposes prometheus metrics as /metrics
func ListenAndServe() {
	go func() {
		http.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              MetricsEndpoint,
			ReadHeaderTimeout: 2 * time.Second,
		}

		if err := server.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()
}
