package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const defaultQueryLimit = 20

// Search queries the configured index. Unset attribute restrictions fall
// back to the configured attributesToSearchOn; sort expressions must name a
// configured sort attribute.
func Search(ctx context.Context, m *Manager, query string, opts QueryOptions) (*QueryResult, error) {
	cfg := m.LastConfiguration()

	if len(opts.AttributesToSearchOn) == 0 {
		opts.AttributesToSearchOn = cfg.AttributesToSearchOn
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultQueryLimit
	}
	for _, expr := range opts.Sort {
		field, _, _ := strings.Cut(expr, ":")
		if !slices.Contains(cfg.SortAttributes, field) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSort, field)
		}
	}

	return Execute(ctx, m, func(ctx context.Context, _ Session, idx Index) (*QueryResult, error) {
		return idx.Search(ctx, query, opts)
	})
}
