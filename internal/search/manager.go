package search

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"meilisync/internal/config"
	"meilisync/internal/logging"
	"meilisync/internal/metrics"
)

// Status strings reported while no session is established.
const (
	StatusNotConfigured = "not configured"
	StatusMissingURL    = "missing endpoint URL"
	StatusDisconnected  = "disconnected"
)

const (
	healthPrefix      = "Server: "
	healthErrorPrefix = "Error: "

	defaultOperationTimeout = 30 * time.Second
)

// Operation is a unit of work against a connected session and its index.
type Operation func(ctx context.Context, session Session, index Index) error

// handles is the published session state. It is replaced, never mutated.
type handles struct {
	session Session
	index   Index
}

// Manager keeps a session to the search engine and reconnects it on demand.
// All methods are safe for concurrent use.
type Manager struct {
	appName string
	dial    Dialer
	getenv  func(string) string

	conn       atomic.Pointer[handles]
	status     atomic.Pointer[string]
	lastConfig atomic.Pointer[config.Search]

	// reconnect guard; held for the whole apply sequence
	guard   *semaphore.Weighted
	limiter *rate.Limiter

	background sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithGetenv replaces the environment lookup used for MEILI_URL and
// MEILI_MASTER_KEY.
func WithGetenv(getenv func(string) string) Option {
	return func(m *Manager) {
		m.getenv = getenv
	}
}

// WithReconnectInterval throttles background reconnects to one per interval.
// Zero disables throttling.
func WithReconnectInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval <= 0 {
			m.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		m.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewManager creates a disconnected manager. appName supplies the index
// name when the configuration leaves it empty.
func NewManager(appName string, dial Dialer, opts ...Option) *Manager {
	m := &Manager{
		appName: appName,
		dial:    dial,
		getenv:  os.Getenv,
		guard:   semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setStatus(StatusNotConfigured)
	return m
}

// Status returns the human-readable connection status.
func (m *Manager) Status() string {
	if s := m.status.Load(); s != nil {
		return *s
	}
	return StatusNotConfigured
}

// Connected reports whether a session is currently published.
func (m *Manager) Connected() bool {
	return m.conn.Load() != nil
}

// LastConfiguration returns a copy of the most recently applied
// configuration, or the defaults when none has been applied.
func (m *Manager) LastConfiguration() config.Search {
	if cfg := m.lastConfig.Load(); cfg != nil {
		return cfg.Clone()
	}
	return config.Default()
}

// IndexName returns the index the current or next session targets.
func (m *Manager) IndexName() string {
	return IndexName(m.LastConfiguration().IndexName, m.appName)
}

// Apply installs cfg and (re)establishes the session from it. Failures are
// reported through Status and the log; Apply never returns an error.
func (m *Manager) Apply(ctx context.Context, cfg config.Search) {
	cfg = cfg.Clone()
	m.lastConfig.Store(&cfg)

	if err := m.guard.Acquire(ctx, 1); err != nil {
		logging.Warn("Configuration not applied: %v", err)
		return
	}
	defer m.guard.Release(1)

	m.apply(ctx, cfg)
}

// apply runs the connect sequence. The caller holds the guard.
func (m *Manager) apply(ctx context.Context, cfg config.Search) {
	url := config.Resolve(m.getenv, config.EnvURL, cfg.URL)
	if url == "" {
		logging.Warn("Meilisearch URL is not configured")
		m.publish(nil, StatusMissingURL)
		metrics.SearchConfigApplied.WithLabelValues("missing_url").Inc()
		return
	}
	apiKey := config.Resolve(m.getenv, config.EnvAPIKey, cfg.APIKey)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultOperationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := m.dial(url, apiKey)
	if err != nil {
		m.fail(url, err)
		return
	}

	name := IndexName(cfg.IndexName, m.appName)
	index, err := InitializeSchema(ctx, session, name)
	if err != nil {
		m.fail(url, err)
		return
	}

	status := healthPrefix
	health, err := session.Health(ctx)
	if err != nil {
		logging.Warn("Meilisearch health check failed: %v", err)
		status = healthErrorPrefix + err.Error()
	} else {
		status += health
	}

	m.publish(&handles{session: session, index: index}, status)
	metrics.SearchConfigApplied.WithLabelValues("connected").Inc()
	logging.Info("Connected to Meilisearch at %s (index %q, %s)", url, name, status)
}

func (m *Manager) fail(url string, err error) {
	logging.Error("Failed to connect to Meilisearch at %s: %v", url, err)
	m.publish(nil, err.Error())
	metrics.SearchConfigApplied.WithLabelValues("error").Inc()
}

// Disconnect drops the session. It is idempotent.
func (m *Manager) Disconnect() {
	m.publish(nil, StatusDisconnected)
}

// Close waits for scheduled background reconnects and disconnects.
func (m *Manager) Close() {
	m.background.Wait()
	m.Disconnect()
}

func (m *Manager) publish(h *handles, status string) {
	m.conn.Store(h)
	m.setStatus(status)
	if h != nil {
		metrics.SearchConnected.Set(1)
	} else {
		metrics.SearchConnected.Set(0)
	}
}

// drop clears h if it is still the published session.
func (m *Manager) drop(h *handles) {
	if m.conn.CompareAndSwap(h, nil) {
		m.setStatus(StatusDisconnected)
		metrics.SearchConnected.Set(0)
	}
}

func (m *Manager) setStatus(s string) {
	m.status.Store(&s)
}

// reconnect runs a guarded reconnect, waiting for one already in progress.
func (m *Manager) reconnect(ctx context.Context, reason string) {
	if m.lastConfig.Load() == nil {
		logging.Debug("Reconnect skipped (%s): no configuration applied", reason)
		metrics.SearchReconnectAttempts.WithLabelValues("retry", "skipped").Inc()
		return
	}
	if err := m.guard.Acquire(ctx, 1); err != nil {
		metrics.SearchReconnectAttempts.WithLabelValues("retry", "skipped").Inc()
		return
	}
	defer m.guard.Release(1)

	m.reconnectLocked(ctx, "retry", reason)
}

// reconnectInBackground schedules a reconnect unless one is already running.
func (m *Manager) reconnectInBackground(reason string) {
	if m.lastConfig.Load() == nil {
		return
	}
	if !m.guard.TryAcquire(1) {
		metrics.SearchReconnectAttempts.WithLabelValues("background", "skipped").Inc()
		return
	}
	if !m.limiter.Allow() {
		m.guard.Release(1)
		metrics.SearchReconnectAttempts.WithLabelValues("background", "skipped").Inc()
		return
	}

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		defer m.guard.Release(1)
		m.reconnectLocked(context.Background(), "background", reason)
	}()
}

func (m *Manager) reconnectLocked(ctx context.Context, trigger, reason string) {
	// Another caller may have reconnected while we waited for the guard.
	if m.Connected() {
		metrics.SearchReconnectAttempts.WithLabelValues(trigger, "skipped").Inc()
		return
	}

	cfg := m.lastConfig.Load()
	if cfg == nil {
		metrics.SearchReconnectAttempts.WithLabelValues(trigger, "skipped").Inc()
		return
	}

	logging.Info("Reconnecting to Meilisearch (%s)", reason)
	m.apply(ctx, *cfg)

	if m.Connected() {
		metrics.SearchReconnectAttempts.WithLabelValues(trigger, "success").Inc()
	} else {
		metrics.SearchReconnectAttempts.WithLabelValues(trigger, "failure").Inc()
	}
}

func (m *Manager) operationTimeout() time.Duration {
	if cfg := m.lastConfig.Load(); cfg != nil && cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return defaultOperationTimeout
}

// Do runs op against the current session. See Execute.
func (m *Manager) Do(ctx context.Context, op Operation) error {
	_, err := Execute(ctx, m, func(ctx context.Context, s Session, idx Index) (struct{}, error) {
		return struct{}{}, op(ctx, s, idx)
	})
	return err
}

// Execute runs op against the current session and returns its result.
//
// Without a session it schedules a background reconnect and returns
// ErrUnavailable. When op fails with a reconnectable error the session is
// dropped, a reconnect is attempted synchronously, and op runs exactly once
// more on the new session. If the reconnect fails the first error is returned.
func Execute[T any](ctx context.Context, m *Manager, op func(ctx context.Context, s Session, idx Index) (T, error)) (T, error) {
	var zero T

	h := m.conn.Load()
	if h == nil {
		m.reconnectInBackground("operation requested while disconnected")
		metrics.SearchOperationsTotal.WithLabelValues("unavailable").Inc()
		return zero, ErrUnavailable
	}

	result, err := attempt(ctx, m, h, op)
	if err == nil {
		metrics.SearchOperationsTotal.WithLabelValues("success").Inc()
		return result, nil
	}

	// The caller gave up; a new session would not help.
	if ctx.Err() != nil || !IsReconnectable(err) {
		metrics.SearchOperationsTotal.WithLabelValues("error").Inc()
		return zero, err
	}

	logging.Warn("Meilisearch request failed, reconnecting: %v", err)
	m.drop(h)
	m.reconnect(ctx, "request failed")

	h = m.conn.Load()
	if h == nil {
		metrics.SearchOperationsTotal.WithLabelValues("error").Inc()
		return zero, err
	}

	metrics.SearchOperationsTotal.WithLabelValues("retried").Inc()
	result, err = attempt(ctx, m, h, op)
	if err != nil {
		metrics.SearchOperationsTotal.WithLabelValues("error").Inc()
		return zero, err
	}
	metrics.SearchOperationsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func attempt[T any](ctx context.Context, m *Manager, h *handles, op func(ctx context.Context, s Session, idx Index) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, m.operationTimeout())
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.SearchOperationDuration.Observe(time.Since(start).Seconds())
	}()

	return op(ctx, h.session, h.index)
}
