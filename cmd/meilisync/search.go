package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"meilisync/internal/search"
	"meilisync/internal/startup"
)

type searchOptions struct {
	limit  int64
	offset int64
	sort   []string
	filter string
	json   bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the library index",
		Long: `Query the library index, restricted to the configured searchable
attributes.

Examples:
  meilisync search alien
  meilisync search "star wars" --sort communityRating:desc --limit 5
  meilisync search alien --filter 'type = "MediaBrowser.Controller.Entities.Movies.Movie"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd.OutOrStdout(), search.Dial, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().Int64VarP(&opts.limit, "limit", "n", 20, "Maximum number of hits")
	cmd.Flags().Int64Var(&opts.offset, "offset", 0, "Number of hits to skip")
	cmd.Flags().StringSliceVar(&opts.sort, "sort", nil, "Sort expression field:asc|desc (repeatable)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Meilisearch filter expression")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output hits as JSON")

	return cmd
}

func runSearch(ctx context.Context, out io.Writer, dial search.Dialer, query string, opts searchOptions) error {
	cfg, err := startup.LoadConfigQuiet()
	if err != nil {
		return err
	}

	manager, err := connect(ctx, cfg, dial)
	if err != nil {
		return err
	}
	defer manager.Close()

	result, err := search.Search(ctx, manager, query, search.QueryOptions{
		Limit:  opts.limit,
		Offset: opts.offset,
		Sort:   opts.sort,
		Filter: opts.filter,
	})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "%d hits (estimated %d) in %v\n", len(result.Hits), result.EstimatedTotalHits, result.ProcessingTime)
	for _, hit := range result.Hits {
		name := "(untitled)"
		if hit.Name != nil {
			name = *hit.Name
		}
		kind := ""
		if hit.Type != nil {
			kind = shortType(*hit.Type)
		}
		fmt.Fprintf(out, "  %s  %-40s %s\n", hit.GUID, name, kind)
	}
	return nil
}

// shortType strips the namespace from a fully qualified item type.
func shortType(t string) string {
	if i := strings.LastIndex(t, "."); i >= 0 {
		return t[i+1:]
	}
	return t
}
