package source

import (
	"context"
	"errors"
	"fmt"

	"meilisync/internal/items"
)

// Source modes accepted by New.
const (
	ModeSQL    = "sql"
	ModeTables = "tables"
)

// StatusReportKey is the status entry a source fills with its database
// location.
const StatusReportKey = "Database"

var (
	// ErrUnknownDriver is returned for a database driver name that is not
	// registered by this package.
	ErrUnknownDriver = errors.New("unknown database driver")

	// ErrUnknownMode is returned by New for an unsupported source mode.
	ErrUnknownMode = errors.New("unknown source mode")
)

// StatusReporter receives diagnostic entries during a read.
type StatusReporter interface {
	Report(key, value string)
}

// ItemSource produces the full set of library items for one indexing pass.
type ItemSource interface {
	Items(ctx context.Context, status StatusReporter) ([]items.RawItem, error)
}

// Options locate the library database.
type Options struct {
	Driver string
	Path   string
	Retry  RetryConfig
}

// New returns the source for mode.
func New(mode string, opts Options) (ItemSource, error) {
	if _, err := dsn(opts.Driver, opts.Path); err != nil {
		return nil, err
	}
	switch mode {
	case ModeSQL, "":
		return NewSQLSource(opts), nil
	case ModeTables:
		return NewTableSource(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func report(status StatusReporter, key, value string) {
	if status != nil {
		status.Report(key, value)
	}
}
