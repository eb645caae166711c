// Package metrics provides Prometheus instrumentation for meilisync.
//
// All metrics are prefixed with "meilisync_" and registered on the default
// registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Search Engine Connection
//   - SearchConnected: 1 while a session is established
//   - SearchConfigApplied: configuration applications by outcome
//   - SearchReconnectAttempts: reconnect sequences by trigger and result
//   - SearchOperationsTotal: operations by result, including retried ones
//   - SearchOperationDuration: latency of single attempts
//
// ## Indexer
//   - IndexerRunsTotal, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerItemsRead, IndexerItemsSkipped, IndexerDocumentsSubmitted
//   - IndexerBatchDuration, IndexerErrors, IndexerIsRunning
//
// ## Item Source
//   - SourceQueryDuration, SourceOpenRetries
//
// The Collector refreshes SearchConnected on an interval so the gauge stays
// correct even when no operation runs.
package metrics
