package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"meilisync/internal/config"
	"meilisync/internal/handlers"
	"meilisync/internal/indexer"
	"meilisync/internal/logging"
	"meilisync/internal/memory"
	"meilisync/internal/metrics"
	"meilisync/internal/middleware"
	"meilisync/internal/search"
	"meilisync/internal/source"
	"meilisync/internal/startup"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = 15 * time.Second
	serverReadHeaderTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the synchronization service",
		Long: `Run the synchronization service: connect to Meilisearch, index the
library on start and every INDEX_INTERVAL, reload the configuration file
when it changes, and serve the HTTP API and Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	startTime := time.Now()
	memory.ConfigureFromEnv()

	cfg, err := startup.LoadConfig()
	if err != nil {
		return err
	}

	applyStart := time.Now()
	manager, err := connect(ctx, cfg, search.Dial)
	if err != nil {
		return err
	}
	startup.LogSearchInit(manager.Status(), time.Since(applyStart))

	src, err := source.New(cfg.SourceMode, source.Options{
		Driver: cfg.DBDriver,
		Path:   cfg.DatabasePath,
		Retry:  source.DefaultRetryConfig(),
	})
	if err != nil {
		return err
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	collector := metrics.NewCollector(manager, metricsCollectInterval)
	collector.Start()

	var background sync.WaitGroup
	watchCtx, stopWatching := context.WithCancel(ctx)
	defer stopWatching()

	watcher, err := config.NewWatcher(cfg.ConfigFile, config.DefaultDebounce, func(c config.Search) {
		applyLogLevel(c)
		manager.Apply(watchCtx, c)
	})
	if err != nil {
		logging.Warn("Configuration changes will not be picked up: %v", err)
	} else {
		background.Add(1)
		go func() {
			defer background.Done()
			if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("Config watcher stopped: %v", err)
			}
		}()
	}

	startup.LogIndexerInit(cfg.IndexInterval, cfg.BatchSize)
	idx := indexer.New(src, manager, indexer.Options{
		BatchSize:     cfg.BatchSize,
		IndexInterval: cfg.IndexInterval,
	})
	var firstPass sync.Once
	idx.SetOnIndexComplete(func() {
		firstPass.Do(func() {
			logging.Info("[OK] Initial index complete, %s", manager.Status())
		})
	})
	if err := idx.Start(); err != nil {
		return err
	}
	startup.LogIndexerStarted()

	h := handlers.New(manager, idx)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.Logger(loggingConfig)(router),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsSrv = &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           setupMetricsRouter(h),
			ReadHeaderTimeout: serverReadHeaderTimeout,
		}
	}

	serveErr := make(chan error, 2)
	go func() { serveErr <- listen(srv) }()
	if metricsSrv != nil {
		go func() { serveErr <- listen(metricsSrv) }()
	}

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		Index:           manager.IndexName(),
		SearchStatus:    manager.Status(),
		StartupDuration: time.Since(startTime),
	})

	var runErr error
	select {
	case <-ctx.Done():
		startup.LogShutdownInitiated("signal")
	case runErr = <-serveErr:
		startup.LogShutdownInitiated("server error")
	}

	shutdown(srv, metricsSrv, idx, manager, collector, stopWatching, &background)
	return runErr
}

// listen serves until the server is shut down.
func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/reindex", h.TriggerReindex).Methods(http.MethodPost)
	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/search", h.Search).Methods(http.MethodGet)

	return r
}

func setupMetricsRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	return r
}

func shutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, manager *search.Manager,
	collector *metrics.Collector, stopWatching context.CancelFunc, background *sync.WaitGroup,
) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.ShutdownStep("HTTP server stopped", func() error { return srv.Shutdown(ctx) })
	if metricsSrv != nil {
		startup.ShutdownStep("Metrics server stopped", func() error { return metricsSrv.Shutdown(ctx) })
	}
	startup.ShutdownStep("Config watcher stopped", func() error {
		stopWatching()
		background.Wait()
		return nil
	})
	startup.ShutdownStep("Indexer stopped", func() error {
		idx.Stop()
		collector.Stop()
		return nil
	})
	startup.ShutdownStep("Search connection closed", func() error {
		manager.Close()
		return nil
	})

	startup.LogShutdownComplete()
}
