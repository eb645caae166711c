// Package indexer synchronizes the media library into the search index.
//
// A pass reads every item from the configured source, derives each item's
// library from its ancestors, maps the items to documents and submits them
// in batches through the search connection manager. Batches are submitted
// concurrently; the first failing batch fails the pass, and batches that
// were already accepted are left in the index.
//
// The indexer operates in several modes:
//   - Initial index: full pass on application startup
//   - Periodic index: one pass per configured interval
//   - Manual trigger: on-demand passes via the API or CLI
//
// Only one pass runs at a time. Progress and the outcome of the last pass
// are published through a Status map and HealthStatus.
package indexer
