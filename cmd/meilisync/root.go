package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"meilisync/internal/config"
	"meilisync/internal/logging"
	"meilisync/internal/search"
	"meilisync/internal/startup"
)

var debugMode bool

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meilisync",
		Short: "Synchronize a media library into Meilisearch",
		Long: `meilisync reads the library database of a Jellyfin server and keeps a
Meilisearch index of its items up to date.

Run 'meilisync serve' to start the service, or 'meilisync index' for a
single pass.`,
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debugMode {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	cmd.SetVersionTemplate("meilisync version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process receives
// SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadSearchConfig reads the engine configuration and applies its log level
// override.
func loadSearchConfig(path string) (config.Search, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Search{}, err
	}
	applyLogLevel(cfg)
	return cfg, nil
}

func applyLogLevel(cfg config.Search) {
	if cfg.LogLevel == "" || debugMode {
		return
	}
	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		logging.Warn("Invalid log_level %q in configuration, keeping %s", cfg.LogLevel, logging.GetLevel())
		return
	}
	logging.SetLevel(level)
}

// connect builds a connection manager for the process settings and applies
// the engine configuration once.
func connect(ctx context.Context, cfg *startup.Config, dial search.Dialer) (*search.Manager, error) {
	engineCfg, err := loadSearchConfig(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}

	manager := search.NewManager(cfg.AppName, dial, search.WithReconnectInterval(cfg.ReconnectInterval))
	manager.Apply(ctx, engineCfg)
	return manager, nil
}
