package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"meilisync/internal/indexer"
	"meilisync/internal/memory"
	"meilisync/internal/search"
	"meilisync/internal/source"
	"meilisync/internal/startup"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Run one indexing pass and exit",
		Long: `Run one full indexing pass: read every library item, map it to a search
document and submit the documents in batches. The exit code is non-zero
when the pass fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd.OutOrStdout(), search.Dial)
		},
	}
}

func runIndex(ctx context.Context, out io.Writer, dial search.Dialer) error {
	memory.ConfigureFromEnv()

	cfg, err := startup.LoadConfigQuiet()
	if err != nil {
		return err
	}

	manager, err := connect(ctx, cfg, dial)
	if err != nil {
		return err
	}
	defer manager.Close()

	if !manager.Connected() {
		return fmt.Errorf("%w: %s", search.ErrUnavailable, manager.Status())
	}

	src, err := source.New(cfg.SourceMode, source.Options{
		Driver: cfg.DBDriver,
		Path:   cfg.DatabasePath,
		Retry:  source.DefaultRetryConfig(),
	})
	if err != nil {
		return err
	}

	idx := indexer.New(src, manager, indexer.Options{BatchSize: cfg.BatchSize})
	defer idx.Stop()

	indexErr := idx.Index(ctx)
	printStatusMap(out, idx.Status().Snapshot())
	return indexErr
}

func printStatusMap(out io.Writer, status map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(status)) {
		fmt.Fprintf(out, "%-10s %s\n", key+":", status[key])
	}
}
