package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, result := range []string{"connected", "missing_url", "error"} {
		SearchConfigApplied.WithLabelValues(result)
	}

	for _, trigger := range []string{"background", "retry"} {
		for _, result := range []string{"success", "failure", "skipped"} {
			SearchReconnectAttempts.WithLabelValues(trigger, result)
		}
	}

	for _, result := range []string{"success", "error", "unavailable", "retried"} {
		SearchOperationsTotal.WithLabelValues(result)
	}

	for _, result := range []string{"success", "failure"} {
		IndexerRunsTotal.WithLabelValues(result)
	}

	for _, source := range []string{"sql", "tables"} {
		SourceQueryDuration.WithLabelValues(source)
	}
}
