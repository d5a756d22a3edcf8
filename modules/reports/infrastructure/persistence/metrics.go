package persistence

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsLoaded    *prometheus.CounterVec
	rowsDeleted   *prometheus.CounterVec
	chunkFailures *prometheus.CounterVec
	loadRetries   *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsLoaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "rows_loaded_total",
			Help:      "Total number of rows inserted into destination tables.",
		}, []string{"table", "mode"}),
		rowsDeleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "rows_deleted_total",
			Help:      "Total number of rows removed during pre-insert cleanup.",
		}, []string{"table", "mode"}),
		chunkFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "chunk_failures_total",
			Help:      "Total number of chunks rejected by the destination schema.",
		}, []string{"table"}),
		loadRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "etl",
			Name:      "load_retries_total",
			Help:      "Total number of insert-phase retries after transient store errors.",
		}, []string{"table"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
