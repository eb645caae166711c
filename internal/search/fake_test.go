package search

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"meilisync/internal/items"
)

// errTransport stands in for a refused connection.
var errTransport = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

type fakeEngine struct {
	mu        sync.Mutex
	dialErr   error
	schemaErr error
	healthErr error
	dialDelay time.Duration

	dials      atomic.Int32
	activeDial atomic.Int32
	maxActive  atomic.Int32
	lastURL    string
	lastKey    string

	sessions []*fakeSession
}

func (e *fakeEngine) dial(url, apiKey string) (Session, error) {
	active := e.activeDial.Add(1)
	defer e.activeDial.Add(-1)
	for {
		peak := e.maxActive.Load()
		if active <= peak || e.maxActive.CompareAndSwap(peak, active) {
			break
		}
	}
	e.dials.Add(1)

	e.mu.Lock()
	delay := e.dialDelay
	dialErr := e.dialErr
	e.lastURL, e.lastKey = url, apiKey
	e.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if dialErr != nil {
		return nil, dialErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := &fakeSession{engine: e, gen: len(e.sessions) + 1}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *fakeEngine) set(fn func(e *fakeEngine)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

func (e *fakeEngine) session(gen int) *fakeSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen < 1 || gen > len(e.sessions) {
		return nil
	}
	return e.sessions[gen-1]
}

type fakeSession struct {
	engine *fakeEngine
	gen    int
	index  *fakeIndex
}

func (s *fakeSession) Health(ctx context.Context) (string, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if s.engine.healthErr != nil {
		return "", s.engine.healthErr
	}
	return "available", nil
}

func (s *fakeSession) Index(name string) Index {
	s.index = &fakeIndex{engine: s.engine, name: name, settings: map[string][]string{}}
	return s.index
}

type fakeIndex struct {
	engine *fakeEngine
	name   string

	mu        sync.Mutex
	settings  map[string][]string
	docs      []items.Document
	lastQuery QueryOptions
	addErr    error
}

func (i *fakeIndex) Name() string { return i.name }

func (i *fakeIndex) update(key string, values []string) error {
	i.engine.mu.Lock()
	err := i.engine.schemaErr
	i.engine.mu.Unlock()
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.settings[key] = slices.Clone(values)
	return nil
}

func (i *fakeIndex) UpdateFilterableAttributes(_ context.Context, attrs []string) error {
	return i.update("filterable", attrs)
}

func (i *fakeIndex) UpdateSortableAttributes(_ context.Context, attrs []string) error {
	return i.update("sortable", attrs)
}

func (i *fakeIndex) UpdateSearchableAttributes(_ context.Context, attrs []string) error {
	return i.update("searchable", attrs)
}

func (i *fakeIndex) UpdateDisplayedAttributes(_ context.Context, attrs []string) error {
	return i.update("displayed", attrs)
}

func (i *fakeIndex) UpdateRankingRules(_ context.Context, rules []string) error {
	return i.update("ranking", rules)
}

func (i *fakeIndex) failAdds(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.addErr = err
}

func (i *fakeIndex) documents() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.docs)
}

func (i *fakeIndex) AddDocuments(_ context.Context, docs []items.Document) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.addErr != nil {
		return 0, i.addErr
	}
	i.docs = append(i.docs, docs...)
	return int64(len(i.docs)), nil
}

func (i *fakeIndex) Search(_ context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastQuery = opts
	var hits []items.Document
	for _, d := range i.docs {
		if d.Name != nil && *d.Name == query {
			hits = append(hits, d)
		}
	}
	return &QueryResult{Hits: hits, EstimatedTotalHits: int64(len(hits))}, nil
}
