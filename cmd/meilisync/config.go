package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"meilisync/internal/config"
	"meilisync/internal/startup"
)

var errEmptyKey = errors.New("API key must not be empty")

func newConfigCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the Meilisearch configuration file",
	}

	defaultPath := os.Getenv("CONFIG_FILE")
	if defaultPath == "" {
		defaultPath = startup.DefaultConfigFile
	}
	cmd.PersistentFlags().StringVar(&path, "file", defaultPath, "Configuration file")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration (the API key is never shown)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "apiKey set: %v\n", cfg.APIKey != "")
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-url <url>",
		Short: "Set the Meilisearch URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(path, func(cfg *config.Search) error {
				cfg.URL = strings.TrimSpace(args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key",
		Short: "Prompt for the Meilisearch API key and store it",
		Long: `Prompt for the Meilisearch API key without echoing it and store it in the
configuration file. When stdin is not a terminal the key is read from the
first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := readKey(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := updateConfig(path, func(cfg *config.Search) error {
				cfg.APIKey = key
				return nil
			}); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", path)
			return err
		},
	})

	return cmd
}

// updateConfig loads the file at path, applies change and writes it back.
func updateConfig(path string, change func(*config.Search) error) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := change(&cfg); err != nil {
		return err
	}
	return config.Save(path, cfg)
}

// readKey prompts on a terminal without echo, otherwise reads one line.
func readKey(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Meilisearch API key: ")
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return validKey(string(key))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return validKey(line)
}

func validKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errEmptyKey
	}
	return key, nil
}
