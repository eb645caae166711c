package search

import (
	"context"
	"fmt"
	"strings"

	"meilisync/internal/items"
	"meilisync/internal/logging"
)

// RankingRules puts the built-in relevance rules ahead of the rating
// tie-breakers.
var RankingRules = []string{
	"words",
	"typo",
	"proximity",
	"attribute",
	"sort",
	"exactness",
	"communityRating:desc",
	"criticRating:desc",
}

// IndexName returns configured when it is non-empty, otherwise appName with
// spaces replaced by hyphens.
func IndexName(configured, appName string) string {
	if configured != "" {
		return configured
	}
	return strings.ReplaceAll(appName, " ", "-")
}

// InitializeSchema resolves the named index and applies the document schema
// to it. Each step is idempotent on the engine side.
func InitializeSchema(ctx context.Context, session Session, name string) (Index, error) {
	idx := session.Index(name)

	steps := []struct {
		what   string
		values []string
		apply  func(context.Context, []string) error
	}{
		{"filterable attributes", items.FilterableFields, idx.UpdateFilterableAttributes},
		{"sortable attributes", items.SortableFields, idx.UpdateSortableAttributes},
		{"searchable attributes", items.SearchableFields, idx.UpdateSearchableAttributes},
		{"displayed attributes", items.DisplayedFields(), idx.UpdateDisplayedAttributes},
		{"ranking rules", RankingRules, idx.UpdateRankingRules},
	}

	for _, step := range steps {
		if err := step.apply(ctx, step.values); err != nil {
			return nil, fmt.Errorf("update %s of index %q: %w", step.what, name, err)
		}
	}

	logging.Debug("Schema applied to index %q", name)
	return idx, nil
}
