package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncCycles tracks completed drain cycles
	SyncCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draftsync_sync_cycles_total",
			Help: "Total number of completed drain cycles",
		},
	)

	// SyncResults tracks per-entry outcomes of drain cycles
	SyncResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftsync_sync_results_total",
			Help: "Pending write outcomes per drain cycle",
		},
		[]string{"status"},
	)

	// SyncCycleDuration tracks how long a drain cycle takes
	SyncCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "draftsync_sync_cycle_duration_seconds",
			Help:    "Drain cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QueueDepth tracks pending writes in the queue
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "draftsync_queue_depth",
			Help: "Pending writes currently in the queue, exhausted entries included",
		},
	)

	// RecoveryAttempts tracks failed synchronous attempts by error kind
	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftsync_recovery_attempts_total",
			Help: "Failed synchronous create attempts by classified kind",
		},
		[]string{"kind"},
	)

	// DraftsSaved tracks drafts written after a failed submission
	DraftsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draftsync_drafts_saved_total",
			Help: "Drafts saved after a failed submission",
		},
	)

	// PresetCache tracks preset loads by result (hit, refresh, verified, stale, miss)
	PresetCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftsync_preset_cache_total",
			Help: "Preset cache lookups by result",
		},
		[]string{"result"},
	)

	// Online is 1 while the network monitor reports connectivity
	Online = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "draftsync_network_online",
			Help: "1 when the network monitor reports online, 0 otherwise",
		},
	)

	// DBConnectionPoolUsage tracks SQL pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "draftsync_db_connection_pool_usage_percent",
			Help: "Open connections as a percentage of the pool limit",
		},
	)
)
