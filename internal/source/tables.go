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

const (
	tableItemsQuery     = `SELECT ` + itemColumns + ` FROM BaseItems bi`
	tableAncestorsQuery = `SELECT ItemId, ParentItemId FROM AncestorIds`
)

// TableSource loads BaseItems and AncestorIds separately and attaches the
// ancestors to each item in memory.
type TableSource struct {
	opts Options
}

// NewTableSource returns a two-query source over the database at path.
func NewTableSource(opts Options) *TableSource {
	return &TableSource{opts: opts}
}

// Items implements ItemSource.
func (s *TableSource) Items(ctx context.Context, status StatusReporter) ([]items.RawItem, error) {
	report(status, StatusReportKey, s.opts.Path)
	logging.Info("Loading item tables from database %s", s.opts.Path)

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
		metrics.SourceQueryDuration.WithLabelValues(ModeTables).Observe(time.Since(start).Seconds())
	}()

	ancestors, err := loadAncestors(ctx, db)
	if err != nil {
		return nil, err
	}

	result, err := loadItems(ctx, db)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].AncestorIDs = ancestors[items.NormalizeID(result[i].ID)]
	}

	logging.Debug("Loaded %d items and %d ancestor sets from %s", len(result), len(ancestors), s.opts.Path)
	return result, nil
}

// loadAncestors maps each normalized item id to its ancestor ids.
func loadAncestors(ctx context.Context, db *sql.DB) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, tableAncestorsQuery)
	if err != nil {
		return nil, fmt.Errorf("query ancestors: %w", err)
	}
	defer rows.Close()

	ancestors := make(map[string][]string)
	for rows.Next() {
		var itemID, parentID idColumn
		if err := rows.Scan(&itemID, &parentID); err != nil {
			logging.Warn("Skipping malformed ancestor row: %v", err)
			continue
		}
		if !itemID.Valid || !parentID.Valid {
			continue
		}
		key := items.NormalizeID(itemID.String)
		ancestors[key] = append(ancestors[key], parentID.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestors: %w", err)
	}
	return ancestors, nil
}

func loadItems(ctx context.Context, db *sql.DB) ([]items.RawItem, error) {
	rows, err := db.QueryContext(ctx, tableItemsQuery)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var result []items.RawItem
	for rows.Next() {
		var row itemRow
		if err := rows.Scan(row.targets()...); err != nil {
			logging.Warn("Skipping malformed item row: %v", err)
			metrics.IndexerItemsSkipped.Inc()
			continue
		}
		if !row.id.Valid {
			logging.Warn("Skipping item row without id")
			metrics.IndexerItemsSkipped.Inc()
			continue
		}
		result = append(result, row.rawItem())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return result, nil
}
