package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"meilisync/internal/items"
)

type meiliSession struct {
	client meilisearch.ServiceManager
}

// Dial returns a Session backed by the Meilisearch HTTP API.
func Dial(url, apiKey string) (Session, error) {
	if url == "" {
		return nil, errors.New("meilisearch url is empty")
	}
	opts := []meilisearch.Option{}
	if apiKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(apiKey))
	}
	return &meiliSession{client: meilisearch.New(url, opts...)}, nil
}

func (s *meiliSession) Health(ctx context.Context) (string, error) {
	h, err := s.client.HealthWithContext(ctx)
	if err != nil {
		return "", err
	}
	return h.Status, nil
}

func (s *meiliSession) Index(name string) Index {
	return &meiliIndex{name: name, index: s.client.Index(name)}
}

type meiliIndex struct {
	name  string
	index meilisearch.IndexManager
}

func (i *meiliIndex) Name() string { return i.name }

func (i *meiliIndex) UpdateFilterableAttributes(ctx context.Context, attrs []string) error {
	_, err := i.index.UpdateFilterableAttributesWithContext(ctx, &attrs)
	return err
}

func (i *meiliIndex) UpdateSortableAttributes(ctx context.Context, attrs []string) error {
	_, err := i.index.UpdateSortableAttributesWithContext(ctx, &attrs)
	return err
}

func (i *meiliIndex) UpdateSearchableAttributes(ctx context.Context, attrs []string) error {
	_, err := i.index.UpdateSearchableAttributesWithContext(ctx, &attrs)
	return err
}

func (i *meiliIndex) UpdateDisplayedAttributes(ctx context.Context, attrs []string) error {
	_, err := i.index.UpdateDisplayedAttributesWithContext(ctx, &attrs)
	return err
}

func (i *meiliIndex) UpdateRankingRules(ctx context.Context, rules []string) error {
	_, err := i.index.UpdateRankingRulesWithContext(ctx, &rules)
	return err
}

func (i *meiliIndex) AddDocuments(ctx context.Context, docs []items.Document) (int64, error) {
	task, err := i.index.AddDocumentsWithContext(ctx, docs, items.PrimaryKey)
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

func (i *meiliIndex) Search(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	req := &meilisearch.SearchRequest{
		Limit:                opts.Limit,
		Offset:               opts.Offset,
		Sort:                 opts.Sort,
		AttributesToSearchOn: opts.AttributesToSearchOn,
	}
	if opts.Filter != "" {
		req.Filter = opts.Filter
	}

	resp, err := i.index.SearchWithContext(ctx, query, req)
	if err != nil {
		return nil, err
	}

	// Hits come back untyped; re-decode them into documents.
	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, fmt.Errorf("encode hits: %w", err)
	}
	var hits []items.Document
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode hits: %w", err)
	}

	return &QueryResult{
		Hits:               hits,
		EstimatedTotalHits: resp.EstimatedTotalHits,
		ProcessingTime:     time.Duration(resp.ProcessingTimeMs) * time.Millisecond,
	}, nil
}

// isMeiliTransportError reports whether err is a client-side communication
// or timeout failure raised by the Meilisearch client.
func isMeiliTransportError(err error) bool {
	var merr *meilisearch.Error
	if !errors.As(err, &merr) {
		return false
	}
	return merr.ErrCode == meilisearch.MeilisearchCommunicationError ||
		merr.ErrCode == meilisearch.MeilisearchTimeoutError
}
