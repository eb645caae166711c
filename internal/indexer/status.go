package indexer

import (
	"maps"
	"sync"
)

// Status map keys.
const (
	StatusDatabase  = "Database"
	StatusState     = "State"
	StatusItems     = "Items"
	StatusDocuments = "Documents"
	StatusSubmitted = "Submitted"
	StatusBatches   = "Batches"
	StatusLastError = "LastError"
	StatusLastRun   = "LastRun"
	StatusDuration  = "Duration"
)

// Pass states stored under StatusState.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Status is a concurrent string map describing the current or last pass.
// Item sources write into it through Report.
type Status struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewStatus returns a status map in the idle state.
func NewStatus() *Status {
	return &Status{entries: map[string]string{StatusState: StateIdle}}
}

// Report sets key to value.
func (s *Status) Report(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Delete removes key.
func (s *Status) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Get returns the value stored under key.
func (s *Status) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Snapshot returns a copy of all entries.
func (s *Status) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}
