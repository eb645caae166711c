// Package startup handles process configuration and startup/shutdown logging.
//
// # Configuration
//
// Process settings are loaded from environment variables via [LoadConfig]:
//
//   - CONFIG_FILE: Search engine configuration file (default: /config/meilisync.yaml)
//   - DATABASE_PATH: Media server library database (default: /config/data/jellyfin.db)
//   - DB_DRIVER: sqlite3 (cgo, default) or sqlite (pure Go)
//   - SOURCE_MODE: sql (single query, default) or tables (bulk table loads)
//   - APP_NAME: Application name used as the fallback index name (default: Jellyfin Server)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - INDEX_INTERVAL: Full re-index interval as Go duration (default: 24h)
//   - BATCH_SIZE: Documents per submission (default: 1000)
//   - RECONNECT_INTERVAL: Minimum spacing of background reconnects (default: 5s)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// The search engine URL, key and index name are not process settings; they
// live in the configuration file (see package config).
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	cfg, err := startup.LoadConfig()
//	if err != nil {
//	    return fmt.Errorf("configuration: %w", err)
//	}
//
//	startup.LogIndexerInit(cfg.IndexInterval, cfg.BatchSize)
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            cfg.Port,
//	    MetricsPort:     cfg.MetricsPort,
//	    MetricsEnabled:  cfg.MetricsEnabled,
//	    Index:           manager.IndexName(),
//	    SearchStatus:    manager.Status(),
//	    StartupDuration: time.Since(startTime),
//	})
package startup
