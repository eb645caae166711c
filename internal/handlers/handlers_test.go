package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"meilisync/internal/config"
	"meilisync/internal/indexer"
	"meilisync/internal/items"
	"meilisync/internal/search"
	"meilisync/internal/source"
	"meilisync/internal/startup"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeIndex struct {
	mu        sync.Mutex
	name      string
	docs      []items.Document
	lastQuery string
	lastOpts  search.QueryOptions
	result    *search.QueryResult
	searchErr error
}

func (f *fakeIndex) Name() string { return f.name }

func (f *fakeIndex) UpdateFilterableAttributes(context.Context, []string) error { return nil }
func (f *fakeIndex) UpdateSortableAttributes(context.Context, []string) error   { return nil }
func (f *fakeIndex) UpdateSearchableAttributes(context.Context, []string) error { return nil }
func (f *fakeIndex) UpdateDisplayedAttributes(context.Context, []string) error  { return nil }
func (f *fakeIndex) UpdateRankingRules(context.Context, []string) error         { return nil }

func (f *fakeIndex) AddDocuments(_ context.Context, docs []items.Document) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, docs...)
	return int64(len(f.docs)), nil
}

func (f *fakeIndex) Search(_ context.Context, query string, opts search.QueryOptions) (*search.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	f.lastOpts = opts
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &search.QueryResult{}, nil
}

func (f *fakeIndex) documentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

type fakeSession struct {
	index *fakeIndex
}

func (s *fakeSession) Health(context.Context) (string, error) { return "available", nil }

func (s *fakeSession) Index(name string) search.Index {
	s.index.name = name
	return s.index
}

type fakeSource struct {
	raw     []items.RawItem
	release chan struct{}
}

func (s *fakeSource) Items(ctx context.Context, status source.StatusReporter) ([]items.RawItem, error) {
	status.Report(source.StatusReportKey, "/data/library.db")
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.raw, nil
}

func strPtr(s string) *string { return &s }

type fixture struct {
	handlers *Handlers
	manager  *search.Manager
	indexer  *indexer.Indexer
	index    *fakeIndex
	source   *fakeSource
}

func newFixture(t *testing.T, connect bool) *fixture {
	t.Helper()

	index := &fakeIndex{}
	dial := func(url, apiKey string) (search.Session, error) {
		return &fakeSession{index: index}, nil
	}
	manager := search.NewManager("Test Server", dial, search.WithGetenv(func(string) string { return "" }))
	t.Cleanup(manager.Close)

	if connect {
		cfg := config.Default()
		cfg.URL = "http://meili:7700"
		cfg.APIKey = "secret-key"
		manager.Apply(context.Background(), cfg)
	}

	src := &fakeSource{raw: []items.RawItem{
		{ID: "L", Type: strPtr("CollectionFolder"), Name: strPtr("Movies")},
		{ID: "M", Type: strPtr("Movie"), Name: strPtr("Alien"), AncestorIDs: []string{"L"}},
		{ID: "N", Type: strPtr("Movie"), Name: strPtr("Aliens"), AncestorIDs: []string{"L"}},
	}}
	idx := indexer.New(src, manager, indexer.Options{BatchSize: 2, Workers: 1})
	t.Cleanup(idx.Stop)

	return &fixture{
		handlers: New(manager, idx),
		manager:  manager,
		indexer:  idx,
		index:    index,
		source:   src,
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// =============================================================================
// Probe Tests
// =============================================================================

func TestLivenessCheck(t *testing.T) {
	f := newFixture(t, false)

	w := httptest.NewRecorder()
	f.handlers.LivenessCheck(w, httptest.NewRequest(http.MethodGet, "/livez", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", w.Code)
	}
	if got := decode[map[string]string](t, w)["status"]; got != "alive" {
		t.Errorf("status = %q", got)
	}

	w = httptest.NewRecorder()
	f.handlers.LivenessCheck(w, httptest.NewRequest(http.MethodHead, "/livez", http.NoBody))
	if w.Body.Len() != 0 {
		t.Errorf("HEAD returned a body: %q", w.Body.String())
	}
}

func TestReadinessCheckFollowsConnection(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
		want    int
		status  string
	}{
		{name: "not configured", connect: false, want: http.StatusServiceUnavailable, status: "not_ready"},
		{name: "connected", connect: true, want: http.StatusOK, status: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.connect)

			w := httptest.NewRecorder()
			f.handlers.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
			if w.Code != tt.want {
				t.Errorf("status code = %d, want %d", w.Code, tt.want)
			}
			if got := decode[map[string]string](t, w)["status"]; got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
		})
	}
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheckBeforeFirstPass(t *testing.T) {
	f := newFixture(t, true)

	w := httptest.NewRecorder()
	f.handlers.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != statusStarting || resp.Ready {
		t.Errorf("status = %q ready = %v", resp.Status, resp.Ready)
	}
	if resp.Version != startup.Version {
		t.Errorf("version = %q", resp.Version)
	}
	if !resp.Connected || resp.SearchStatus != "Server: available" {
		t.Errorf("connected = %v searchStatus = %q", resp.Connected, resp.SearchStatus)
	}
	if resp.Index != "Test-Server" {
		t.Errorf("index = %q", resp.Index)
	}
}

func TestHealthCheckAfterPass(t *testing.T) {
	f := newFixture(t, true)
	if err := f.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	w := httptest.NewRecorder()
	f.handlers.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != statusHealthy {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.LastIndexed == "" {
		t.Error("lastIndexed not set")
	}
	if resp.DocumentsSubmitted != 3 {
		t.Errorf("documentsSubmitted = %d, want 3", resp.DocumentsSubmitted)
	}
	if resp.Pass[indexer.StatusState] != indexer.StateCompleted {
		t.Errorf("pass state = %q", resp.Pass[indexer.StatusState])
	}
	if resp.Pass[indexer.StatusDatabase] != "/data/library.db" {
		t.Errorf("pass database = %q", resp.Pass[indexer.StatusDatabase])
	}
}

func TestHealthCheckDegradedWhenDisconnected(t *testing.T) {
	f := newFixture(t, true)
	if err := f.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	f.manager.Disconnect()

	w := httptest.NewRecorder()
	f.handlers.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	resp := decode[HealthResponse](t, w)
	if resp.Status != statusDegraded {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.SearchStatus != search.StatusDisconnected {
		t.Errorf("searchStatus = %q", resp.SearchStatus)
	}
}

func TestHealthCheckDegradedWhenPassFails(t *testing.T) {
	f := newFixture(t, false)
	if err := f.indexer.Index(context.Background()); err == nil {
		t.Fatal("expected pass to fail without a session")
	}

	w := httptest.NewRecorder()
	f.handlers.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != statusDegraded {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.LastError == "" {
		t.Error("lastError not reported")
	}
	if resp.Pass[indexer.StatusState] != indexer.StateFailed {
		t.Errorf("pass state = %q", resp.Pass[indexer.StatusState])
	}
}

// =============================================================================
// Reindex and Status Tests
// =============================================================================

func TestTriggerReindex(t *testing.T) {
	f := newFixture(t, true)

	w := httptest.NewRecorder()
	f.handlers.TriggerReindex(w, httptest.NewRequest(http.MethodPost, "/api/reindex", http.NoBody))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status code = %d, want 202", w.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.index.documentCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("documents submitted = %d, want 3", f.index.documentCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTriggerReindexConflict(t *testing.T) {
	f := newFixture(t, true)
	f.source.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.indexer.Index(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !f.indexer.IsIndexing() {
		if time.Now().After(deadline) {
			t.Fatal("pass did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w := httptest.NewRecorder()
	f.handlers.TriggerReindex(w, httptest.NewRequest(http.MethodPost, "/api/reindex", http.NoBody))
	if w.Code != http.StatusConflict {
		t.Errorf("status code = %d, want 409", w.Code)
	}

	close(f.source.release)
	if err := <-done; err != nil {
		t.Errorf("Index() error = %v", err)
	}
}

func TestGetStatusHidesAPIKey(t *testing.T) {
	f := newFixture(t, true)

	w := httptest.NewRecorder()
	f.handlers.GetStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "secret-key") {
		t.Errorf("status response leaks the API key: %s", body)
	}

	resp := decode[StatusResponse](t, w)
	if resp.Search.Config.URL != "http://meili:7700" {
		t.Errorf("config url = %q", resp.Search.Config.URL)
	}
	if !resp.Search.Connected || resp.Search.Index != "Test-Server" {
		t.Errorf("search = %+v", resp.Search)
	}
}

func TestGetStatusReportsPassProgress(t *testing.T) {
	f := newFixture(t, true)
	if err := f.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	w := httptest.NewRecorder()
	f.handlers.GetStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody))

	resp := decode[StatusResponse](t, w)
	if resp.Progress.IsIndexing {
		t.Error("progress reports a running pass after Index returned")
	}
	if resp.Progress.DocumentsSubmitted != 3 || resp.Progress.BatchesDone != 2 || resp.Progress.BatchesTotal != 2 {
		t.Errorf("progress = %+v, want 3 documents in 2 batches", resp.Progress)
	}
	if resp.Pass[indexer.StatusSubmitted] != "3" {
		t.Errorf("pass[%s] = %q, want 3", indexer.StatusSubmitted, resp.Pass[indexer.StatusSubmitted])
	}
}

// =============================================================================
// Search Tests
// =============================================================================

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture(t, true)

	w := httptest.NewRecorder()
	f.handlers.Search(w, httptest.NewRequest(http.MethodGet, "/api/search", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"hits":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if f.index.lastQuery != "" || f.index.lastOpts.Limit != 0 {
		t.Error("empty query reached the engine")
	}
}

func TestSearchPassesOptions(t *testing.T) {
	f := newFixture(t, true)
	f.index.result = &search.QueryResult{
		Hits:               []items.Document{{GUID: "abc", Name: strPtr("Alien")}},
		EstimatedTotalHits: 1,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=alien&limit=5&offset=10&sort=communityRating:desc,&filter=type%3DMovie", http.NoBody)
	w := httptest.NewRecorder()
	f.handlers.Search(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[search.QueryResult](t, w)
	if len(resp.Hits) != 1 || resp.Hits[0].GUID != "abc" {
		t.Errorf("hits = %+v", resp.Hits)
	}

	opts := f.index.lastOpts
	if f.index.lastQuery != "alien" || opts.Limit != 5 || opts.Offset != 10 {
		t.Errorf("query %q opts %+v", f.index.lastQuery, opts)
	}
	if len(opts.Sort) != 1 || opts.Sort[0] != "communityRating:desc" {
		t.Errorf("sort = %v", opts.Sort)
	}
	if opts.Filter != "type=Movie" {
		t.Errorf("filter = %q", opts.Filter)
	}
	if len(opts.AttributesToSearchOn) != len(items.SearchableFields) {
		t.Errorf("attributesToSearchOn = %v", opts.AttributesToSearchOn)
	}
}

func TestSearchCapsLimit(t *testing.T) {
	f := newFixture(t, true)

	w := httptest.NewRecorder()
	f.handlers.Search(w, httptest.NewRequest(http.MethodGet, "/api/search?q=a&limit=100000", http.NoBody))

	if f.index.lastOpts.Limit != maxSearchLimit {
		t.Errorf("limit = %d, want %d", f.index.lastOpts.Limit, maxSearchLimit)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name      string
		connect   bool
		url       string
		searchErr error
		want      int
	}{
		{name: "unavailable", connect: false, url: "/api/search?q=alien", want: http.StatusServiceUnavailable},
		{name: "invalid sort", connect: true, url: "/api/search?q=alien&sort=name:asc", want: http.StatusBadRequest},
		{name: "engine error", connect: true, url: "/api/search?q=alien", searchErr: errors.New("invalid filter"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.connect)
			f.index.searchErr = tt.searchErr

			w := httptest.NewRecorder()
			f.handlers.Search(w, httptest.NewRequest(http.MethodGet, tt.url, http.NoBody))

			if w.Code != tt.want {
				t.Errorf("status code = %d, want %d", w.Code, tt.want)
			}
			if decode[map[string]string](t, w)["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

// =============================================================================
// Version and Metrics Tests
// =============================================================================

func TestGetVersion(t *testing.T) {
	h := &Handlers{}

	w := httptest.NewRecorder()
	h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}
	info := decode[startup.BuildInfo](t, w)
	if info.Version != startup.Version || info.GoVersion == "" {
		t.Errorf("build info = %+v", info)
	}
}

func TestMetricsHandler(t *testing.T) {
	h := &Handlers{}

	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "meilisync_search_connected") {
		t.Error("Expected meilisync metrics in the exposition")
	}
}
