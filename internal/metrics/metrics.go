package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InteractionsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discordui_interactions_received_total",
		Help: "The total number of interactions received, by kind",
	}, []string{"kind"})

	InteractionsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discordui_interactions_dropped_total",
		Help: "The total number of interactions dropped without reaching a handler",
	}, []string{"kind", "reason"})

	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discordui_handler_errors_total",
		Help: "The total number of errors returned by user callbacks",
	}, []string{"kind", "name"})

	SyncAPICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discordui_sync_api_calls_total",
		Help: "Total number of command API calls issued by the synchronizer",
	}, []string{"op", "status"})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "discordui_sync_duration_seconds",
		Help:    "Duration of full command synchronization runs",
		Buckets: prometheus.DefBuckets,
	})
)
