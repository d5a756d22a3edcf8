package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type pipelineMetrics struct {
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	filesSkipped *prometheus.CounterVec
}

var getPipelineMetrics = sync.OnceValue(func() *pipelineMetrics {
	return &pipelineMetrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "runs_total",
			Help:      "Pipeline runs by report, mode and outcome.",
		}, []string{"report", "mode", "status"}),
		runDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "etl",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"report", "mode"}),
		filesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "files_skipped_total",
			Help:      "Input files that exhausted every parse strategy.",
		}, []string{"report"}),
	}
})
