package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "SUBMIT_WORKERS"

// Count returns the number of workers for a task with the given per-CPU
// multiplier, capped at limit (0 means no cap). CPUs are counted through
// GOMAXPROCS so container limits are respected. A positive SUBMIT_WORKERS
// value replaces the computed count but is still capped.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForIO returns the worker count for network-bound work (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
