package search

import (
	"context"
	"time"

	"meilisync/internal/items"
)

// Session is a client bound to one engine endpoint.
type Session interface {
	// Health returns the engine's self-reported health, e.g. "available".
	Health(ctx context.Context) (string, error)
	// Index returns a handle for the named index. No request is made.
	Index(name string) Index
}

// Index is a handle to a single index on the engine.
type Index interface {
	Name() string

	UpdateFilterableAttributes(ctx context.Context, attrs []string) error
	UpdateSortableAttributes(ctx context.Context, attrs []string) error
	UpdateSearchableAttributes(ctx context.Context, attrs []string) error
	UpdateDisplayedAttributes(ctx context.Context, attrs []string) error
	UpdateRankingRules(ctx context.Context, rules []string) error

	// AddDocuments enqueues docs for insertion keyed by items.PrimaryKey and
	// returns the engine task id.
	AddDocuments(ctx context.Context, docs []items.Document) (int64, error)

	Search(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error)
}

// Dialer creates a session for an endpoint. It must not block on the network.
type Dialer func(url, apiKey string) (Session, error)

// QueryOptions narrows a search request.
type QueryOptions struct {
	Limit                int64
	Offset               int64
	Filter               string
	Sort                 []string
	AttributesToSearchOn []string
}

// QueryResult is one page of hits.
type QueryResult struct {
	Hits               []items.Document `json:"hits"`
	EstimatedTotalHits int64            `json:"estimatedTotalHits"`
	ProcessingTime     time.Duration    `json:"processingTime"`
}
