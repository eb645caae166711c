package handlers

import (
	"meilisync/internal/indexer"
	"meilisync/internal/search"
)

// Handlers serves the HTTP API over the search connection manager and the
// indexer.
type Handlers struct {
	manager *search.Manager
	indexer *indexer.Indexer
}

// New creates the handlers.
func New(manager *search.Manager, idx *indexer.Indexer) *Handlers {
	return &Handlers{
		manager: manager,
		indexer: idx,
	}
}
