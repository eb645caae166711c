package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"meilisync/internal/search"
	"meilisync/internal/startup"
)

type statusOutput struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	URL       string `json:"url,omitempty"`
	Index     string `json:"index"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Connect to Meilisearch and print the connection status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), search.Dial, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func runStatus(ctx context.Context, out io.Writer, dial search.Dialer, jsonOutput bool) error {
	cfg, err := startup.LoadConfigQuiet()
	if err != nil {
		return err
	}

	manager, err := connect(ctx, cfg, dial)
	if err != nil {
		return err
	}
	defer manager.Close()

	result := statusOutput{
		Status:    manager.Status(),
		Connected: manager.Connected(),
		URL:       manager.LastConfiguration().URL,
		Index:     manager.IndexName(),
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Status:    %s\n", result.Status)
	fmt.Fprintf(out, "Connected: %v\n", result.Connected)
	if result.URL != "" {
		fmt.Fprintf(out, "URL:       %s\n", result.URL)
	}
	fmt.Fprintf(out, "Index:     %s\n", result.Index)
	return nil
}
