package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/dustin/go-humanize"

	"meilisync/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest covers the SQLite page cache, goroutine stacks and
// encoding buffers.
const DefaultMemoryRatio = 0.85

// Configuration sources reported in ConfigResult.Source.
const (
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets GOMEMLIMIT from the process environment.
func ConfigureFromEnv() ConfigResult {
	return Configure(os.Getenv, debug.SetMemoryLimit)
}

// Configure sets the Go memory limit through setLimit using the variables
// read by getenv. setLimit follows the contract of debug.SetMemoryLimit.
func Configure(getenv func(string) string, setLimit func(int64) int64) ConfigResult {
	if value := getenv("GOMEMLIMIT"); value != "" {
		result := ConfigResult{Source: SourceGoMemLimit}
		// The runtime already parsed GOMEMLIMIT; a negative input only reads it.
		if limit := setLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", value)
		return result
	}

	value := getenv("MEMORY_LIMIT")
	if value == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return ConfigResult{Source: SourceNone}
	}

	containerLimit, err := strconv.ParseInt(value, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Invalid MEMORY_LIMIT %q, GOMEMLIMIT not configured", value)
		return ConfigResult{Source: SourceNone}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(containerLimit) * ratio)
	setLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		humanize.IBytes(uint64(goMemLimit)), ratio*100, humanize.IBytes(uint64(containerLimit)))

	return ConfigResult{
		Configured:     true,
		Source:         SourceMemoryLimit,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(value string) float64 {
	if value == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(value, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using default %.2f", value, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}
