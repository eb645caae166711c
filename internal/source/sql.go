package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meilisync/internal/items"
	"meilisync/internal/logging"
	"meilisync/internal/metrics"
)

const sqlItemsQuery = `SELECT ` + itemColumns + `,
	(SELECT group_concat(a.AncestorIdText, ',') FROM AncestorIds a WHERE a.ItemId = bi.Id) AS Ancestors
FROM BaseItems bi`

// SQLSource reads all items with one query.
type SQLSource struct {
	opts Options
}

// NewSQLSource returns a single-query source over the database at path.
func NewSQLSource(opts Options) *SQLSource {
	return &SQLSource{opts: opts}
}

// Items implements ItemSource.
func (s *SQLSource) Items(ctx context.Context, status StatusReporter) ([]items.RawItem, error) {
	report(status, StatusReportKey, s.opts.Path)
	logging.Info("Reading items from database %s", s.opts.Path)

	db, err := Open(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
	}()

	start := time.Now()
	defer func() {
		metrics.SourceQueryDuration.WithLabelValues(ModeSQL).Observe(time.Since(start).Seconds())
	}()

	rows, err := db.QueryContext(ctx, sqlItemsQuery)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var result []items.RawItem
	for rows.Next() {
		var row itemRow
		var ancestors sql.NullString
		if err := rows.Scan(append(row.targets(), &ancestors)...); err != nil {
			logging.Warn("Skipping malformed item row: %v", err)
			metrics.IndexerItemsSkipped.Inc()
			continue
		}
		if !row.id.Valid {
			logging.Warn("Skipping item row without id")
			metrics.IndexerItemsSkipped.Inc()
			continue
		}

		item := row.rawItem()
		item.AncestorIDs = splitAncestors(ancestors)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	logging.Debug("Read %d items from %s", len(result), s.opts.Path)
	return result, nil
}
