package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meilisync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meilisync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meilisync_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Search engine connection metrics
var (
	SearchConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meilisync_search_connected",
			Help: "Whether a search engine session is established (1 = connected, 0 = disconnected)",
		},
	)

	SearchConfigApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meilisync_search_config_applied_total",
			Help: "Total number of configuration applications by outcome",
		},
		[]string{"result"}, // "connected", "missing_url", "error"
	)

	SearchReconnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meilisync_search_reconnect_attempts_total",
			Help: "Total number of reconnect sequences by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: "background", "retry"; result: "success", "failure", "skipped"
	)

	SearchOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meilisync_search_operations_total",
			Help: "Total number of search engine operations by result",
		},
		[]string{"result"}, // "success", "error", "unavailable", "retried"
	)

	SearchOperationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meilisync_search_operation_duration_seconds",
			Help:    "Duration of a single search engine operation attempt in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meilisync_indexer_runs_total",
			Help: "Total number of indexing passes by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meilisync_indexer_last_run_timestamp",
			Help: "Timestamp of the last completed indexing pass",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meilisync_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexing pass in seconds",
		},
	)

	IndexerItemsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meilisync_indexer_items_read_total",
			Help: "Total number of raw items read from the item source",
		},
	)

	IndexerItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meilisync_indexer_items_skipped_total",
			Help: "Total number of malformed rows skipped by the item source",
		},
	)

	IndexerDocumentsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meilisync_indexer_documents_submitted_total",
			Help: "Total number of documents accepted by the search engine",
		},
	)

	IndexerBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meilisync_indexer_batch_duration_seconds",
			Help:    "Duration of a document batch submission in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meilisync_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meilisync_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)
)

// Item source metrics
var (
	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meilisync_source_query_duration_seconds",
			Help:    "Item source query duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"}, // "sql", "tables"
	)

	SourceOpenRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meilisync_source_open_retries_total",
			Help: "Total number of retried attempts to open a busy library database",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meilisync_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
