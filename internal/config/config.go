package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"meilisync/internal/items"
)

// Environment overrides. When set and non-empty they take precedence over
// the values stored in the configuration file.
const (
	EnvURL    = "MEILI_URL"
	EnvAPIKey = "MEILI_MASTER_KEY"
)

const defaultRequestTimeout = 30 * time.Second

// Search is the search engine configuration. A value is never modified after
// it has been handed to the connection manager; apply a new one instead.
type Search struct {
	URL       string `yaml:"url" json:"url"`
	APIKey    string `yaml:"api_key" json:"-"`
	IndexName string `yaml:"index_name" json:"indexName"`

	AttributesToSearchOn []string `yaml:"attributes_to_search_on" json:"attributesToSearchOn"`
	SortAttributes       []string `yaml:"sort_attributes" json:"sortAttributes"`
	FilterAttributes     []string `yaml:"filter_attributes" json:"filterAttributes"`

	// RequestTimeout bounds a single call against the engine.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"requestTimeout"`

	// LogLevel optionally overrides LOG_LEVEL.
	LogLevel string `yaml:"log_level" json:"logLevel,omitempty"`
}

// Default returns a configuration with every optional list populated.
func Default() Search {
	return Search{
		AttributesToSearchOn: slices.Clone(items.SearchableFields),
		SortAttributes:       slices.Clone(items.SortableFields),
		FilterAttributes:     slices.Clone(items.FilterableFields),
		RequestTimeout:       defaultRequestTimeout,
	}
}

// Clone returns a deep copy so callers cannot alias the attribute lists.
func (s Search) Clone() Search {
	s.AttributesToSearchOn = slices.Clone(s.AttributesToSearchOn)
	s.SortAttributes = slices.Clone(s.SortAttributes)
	s.FilterAttributes = slices.Clone(s.FilterAttributes)
	return s
}

// withDefaults fills unset fields from Default.
func (s Search) withDefaults() Search {
	d := Default()
	if len(s.AttributesToSearchOn) == 0 {
		s.AttributesToSearchOn = d.AttributesToSearchOn
	}
	if len(s.SortAttributes) == 0 {
		s.SortAttributes = d.SortAttributes
	}
	if len(s.FilterAttributes) == 0 {
		s.FilterAttributes = d.FilterAttributes
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = d.RequestTimeout
	}
	return s
}

// Resolve returns the value of the environment variable env when it is
// non-empty, otherwise configured.
func Resolve(getenv func(string) string, env, configured string) string {
	if getenv != nil {
		if v := getenv(env); v != "" {
			return v
		}
	}
	return configured
}

// Load reads the configuration file at path. A missing file is not an
// error: the defaults are returned so the service can start unconfigured.
func Load(path string) (Search, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Search{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (Search, error) {
	var cfg Search
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Search{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// Save writes the configuration to path, replacing any existing file
// atomically.
func Save(path string, cfg Search) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".meilisync-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
