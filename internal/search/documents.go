package search

import (
	"context"

	"meilisync/internal/items"
)

// AddDocuments submits docs to the configured index through Do, so a
// transient failure is retried once after a reconnect.
func (m *Manager) AddDocuments(ctx context.Context, docs []items.Document) error {
	return m.Do(ctx, func(ctx context.Context, _ Session, idx Index) error {
		_, err := idx.AddDocuments(ctx, docs)
		return err
	})
}
