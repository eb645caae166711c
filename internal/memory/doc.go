// Package memory configures GOMEMLIMIT for containerized deployments.
//
// An indexing pass holds every library item in memory at once, so a large
// library can push the heap close to the container limit. Unlike GOMAXPROCS,
// GOMEMLIMIT is not derived from cgroup limits automatically; call
// [ConfigureFromEnv] early in main:
//
//   - GOMEMLIMIT: standard Go variable, takes precedence when set
//   - MEMORY_LIMIT: container memory limit in bytes (Kubernetes Downward API)
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85)
package memory
