// Package handlers provides the HTTP handlers of the synchronization service.
//
// It includes handlers for:
//   - Health, liveness and readiness probes
//   - Triggering a re-index and reporting pass status
//   - Querying the search index
//   - Version information and Prometheus metrics
package handlers
