package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"meilisync/internal/logging"
	"meilisync/internal/source"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

var errNotPositive = errors.New("must be positive")

// Defaults for the process settings.
const (
	DefaultConfigFile        = "/config/meilisync.yaml"
	DefaultDatabasePath      = "/config/data/jellyfin.db"
	DefaultAppName           = "Jellyfin Server"
	DefaultPort              = "8080"
	DefaultMetricsPort       = "9090"
	DefaultIndexInterval     = 24 * time.Hour
	DefaultBatchSize         = 1000
	DefaultReconnectInterval = 5 * time.Second
)

// Config holds the process settings. The search engine itself is configured
// through the file at ConfigFile.
type Config struct {
	ConfigFile   string
	DatabasePath string
	DBDriver     string
	SourceMode   string
	AppName      string

	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	IndexInterval     time.Duration
	BatchSize         int
	ReconnectInterval time.Duration
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	return loadConfig(os.Getenv)
}

// LoadConfigQuiet reads the same settings as LoadConfig without the banner.
// Used by the one-shot CLI commands.
func LoadConfigQuiet() (*Config, error) {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) (*Config, error) {
	section("CONFIGURATION")

	cfg := &Config{
		ConfigFile:        getEnv(getenv, "CONFIG_FILE", DefaultConfigFile),
		DatabasePath:      getEnv(getenv, "DATABASE_PATH", DefaultDatabasePath),
		DBDriver:          getEnv(getenv, "DB_DRIVER", source.DriverCgo),
		SourceMode:        getEnv(getenv, "SOURCE_MODE", source.ModeSQL),
		AppName:           getEnv(getenv, "APP_NAME", DefaultAppName),
		Port:              getEnv(getenv, "PORT", DefaultPort),
		MetricsPort:       getEnv(getenv, "METRICS_PORT", DefaultMetricsPort),
		MetricsEnabled:    getEnvBool(getenv, "METRICS_ENABLED", true),
		LogHealthChecks:   getEnvBool(getenv, "LOG_HEALTH_CHECKS", true),
		IndexInterval:     getEnvDuration(getenv, "INDEX_INTERVAL", DefaultIndexInterval),
		BatchSize:         getEnvInt(getenv, "BATCH_SIZE", DefaultBatchSize),
		ReconnectInterval: getEnvDuration(getenv, "RECONNECT_INTERVAL", DefaultReconnectInterval),
	}

	logSettings([]setting{
		{"CONFIG_FILE", cfg.ConfigFile},
		{"DATABASE_PATH", cfg.DatabasePath},
		{"DB_DRIVER", cfg.DBDriver},
		{"SOURCE_MODE", cfg.SourceMode},
		{"APP_NAME", cfg.AppName},
		{"PORT", cfg.Port},
		{"METRICS_PORT", cfg.MetricsPort},
		{"METRICS_ENABLED", cfg.MetricsEnabled},
		{"INDEX_INTERVAL", cfg.IndexInterval},
		{"BATCH_SIZE", cfg.BatchSize},
		{"RECONNECT_INTERVAL", cfg.ReconnectInterval},
		{"LOG_HEALTH_CHECKS", cfg.LogHealthChecks},
		{"LOG_LEVEL", logging.GetLevel()},
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	section("FILE CHECKS")

	// The library database is written by the media server; it may appear
	// after we start, so a missing file is only a warning.
	if err := checkFile(cfg.DatabasePath, "library database"); err != nil {
		logging.Warn("  Library database issue: %v", err)
	}
	if err := checkFile(cfg.ConfigFile, "configuration"); err != nil {
		logging.Info("  No configuration file yet, search engine starts unconfigured")
	}

	return cfg, nil
}

// validate rejects unknown source settings and makes paths absolute.
func (c *Config) validate() error {
	if c.DBDriver != source.DriverCgo && c.DBDriver != source.DriverPureGo {
		return fmt.Errorf("%w: DB_DRIVER=%q", source.ErrUnknownDriver, c.DBDriver)
	}
	if c.SourceMode != source.ModeSQL && c.SourceMode != source.ModeTables {
		return fmt.Errorf("%w: SOURCE_MODE=%q", source.ErrUnknownMode, c.SourceMode)
	}

	for _, p := range []*string{&c.ConfigFile, &c.DatabasePath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

func checkFile(path, name string) error {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return err
	case info.IsDir():
		return fmt.Errorf("%s is a directory", path)
	}

	logging.Info("  [OK] %s: %s (%s)", name, path, humanize.IBytes(uint64(info.Size())))
	return nil
}

// setting is one line of a startup settings table.
type setting struct {
	key   string
	value any
}

func logSettings(settings []setting) {
	for _, s := range settings {
		logging.Info("  %-20s %v", s.key+":", s.value)
	}
}

const rule = "------------------------------------------------------------"

// section starts a titled block in the startup log.
func section(format string, args ...any) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(format, args...)
	logging.Info(rule)
}

// LogSearchInit logs the outcome of the first configuration application.
func LogSearchInit(status string, duration time.Duration) {
	section("SEARCH ENGINE")
	logging.Info("  Status: %s (%v)", status, duration)
}

// LogIndexerInit logs the indexer schedule before it starts.
func LogIndexerInit(interval time.Duration, batchSize int) {
	section("INDEXER")
	logSettings([]setting{
		{"Interval", interval},
		{"Batch size", batchSize},
	})
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started, initial pass running in background")
}

// GetRoutes lists every method and path template registered on router.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		// Subrouter prefixes carry no methods and are not routes of their own
		if route.GetHandler() == nil {
			return nil
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs request logging settings and, at debug level, the
// registered routes grouped by path prefix.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER")

	health := "ON"
	if !logHealthChecks {
		health = "OFF (set LOG_HEALTH_CHECKS=true to enable)"
	}
	logging.Info("  Health check logging: %s", health)

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return getRouteGroup(routes[i].Path) < getRouteGroup(routes[j].Path)
	})

	logging.Debug("  Routes (%d):", len(routes))
	current := "\x00"
	for _, r := range routes {
		if g := getRouteGroup(r.Path); g != current {
			current = g
			if g == "" {
				g = "root"
			}
			logging.Debug("  [%s]", g)
		}
		logging.Debug("    %-6s %s", r.Method, r.Path)
	}
}

// getRouteGroup returns the first path segment, or the first two for /api.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first != "api" || rest == "" {
		return first
	}
	sub, _, _ := strings.Cut(rest, "/")
	return "api/" + sub
}

// ServerConfig holds what the server startup log reports.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	Index           string
	SearchStatus    string
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints and the search engine state.
func LogServerStarted(config ServerConfig) {
	metricsURL := "DISABLED"
	if config.MetricsEnabled {
		metricsURL = fmt.Sprintf("http://0.0.0.0:%s/metrics", config.MetricsPort)
	}

	index := config.Index
	if index == "" {
		index = "(not connected)"
	}

	section("READY in %v", config.StartupDuration)
	logSettings([]setting{
		{"API", fmt.Sprintf("http://0.0.0.0:%s/api", config.Port)},
		{"Metrics", metricsURL},
		{"Index", index},
		{"Search engine", config.SearchStatus},
	})
	logging.Info(rule)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	section("SHUTTING DOWN (%s)", reason)
}

// ShutdownStep runs one shutdown step and logs its outcome. A failing step is
// logged and does not stop the remaining steps.
func ShutdownStep(name string, step func() error) {
	logging.Debug("  %s...", name)
	if err := step(); err != nil {
		logging.Warn("  [FAIL] %s: %v", name, err)
		return
	}
	logging.Info("  [OK] %s", name)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	fmt.Println(rule + `
                _ ___
   ____ ___  __(_) (_)______  ______  _____
  / __ '__ \/ _ \/ / / ___/ / / / __ \/ ___/
 / / / / / /  __/ / (__  ) /_/ / / / / /__
/_/ /_/ /_/\___/_/_/____/\__, /_/ /_/\___/
                        /____/
` + rule)
	logSettings([]setting{
		{"Version", Version},
		{"Commit", Commit},
		{"Build time", BuildTime},
		{"Started", time.Now().Format(time.RFC1123)},
	})
}

func logSystemInfo() {
	section("SYSTEM")
	logSettings([]setting{
		{"Go", runtime.Version()},
		{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
		{"CPUs", runtime.NumCPU()},
		{"GOMAXPROCS", runtime.GOMAXPROCS(0)},
	})
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  %-20s %s", "Hostname:", hostname)
	}
}

func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseEnv parses key with parse, falling back to defaultValue (with a
// warning) when the value is malformed.
func parseEnv[T any](getenv func(string) string, key string, defaultValue T, parse func(string) (T, error)) T {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		logging.Warn("Invalid value for %s: %q (%v), using default: %v", key, value, err, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(getenv func(string) string, key string, defaultValue bool) bool {
	return parseEnv(getenv, key, defaultValue, strconv.ParseBool)
}

func getEnvInt(getenv func(string) string, key string, defaultValue int) int {
	return parseEnv(getenv, key, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && n <= 0 {
			err = errNotPositive
		}
		return n, err
	})
}

func getEnvDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	return parseEnv(getenv, key, defaultValue, func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err == nil && d <= 0 {
			err = errNotPositive
		}
		return d, err
	})
}
