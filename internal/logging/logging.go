package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel represents the severity of a log message
type LogLevel int32

// Levels in increasing severity.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var (
	currentLevel atomic.Int32
	levelOnce    sync.Once
)

// initLevel reads DEBUG and LOG_LEVEL once. A truthy DEBUG wins.
func initLevel() {
	levelOnce.Do(func() {
		switch strings.ToLower(os.Getenv("DEBUG")) {
		case "1", "true", "yes", "on":
			currentLevel.Store(int32(LevelDebug))
			return
		}

		level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
		currentLevel.Store(int32(level))
	})
}

// ParseLevel converts a level name to a LogLevel. Unknown or empty names
// return LevelInfo and false.
func ParseLevel(name string) (LogLevel, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	for level, n := range levelNames {
		if n == name {
			return LogLevel(level), true
		}
	}
	return LevelInfo, false
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("unknown(%d)", l)
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return LogLevel(currentLevel.Load())
}

// SetLevel overrides the level derived from the environment. It is used by
// the --debug flag and the log_level configuration key.
func SetLevel(level LogLevel) {
	initLevel()
	currentLevel.Store(int32(level))
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logf(level LogLevel, format string, args []any) {
	if GetLevel() <= level {
		log.Printf("["+strings.ToUpper(level.String())+"] "+format, args...)
	}
}

// Debug logs at debug level (DEBUG=true or LOG_LEVEL=debug).
func Debug(format string, args ...any) { logf(LevelDebug, format, args) }

// Info logs at info level.
func Info(format string, args ...any) { logf(LevelInfo, format, args) }

// Warn logs at warn level.
func Warn(format string, args ...any) { logf(LevelWarn, format, args) }

// Error logs at error level.
func Error(format string, args ...any) { logf(LevelError, format, args) }

// Printf writes unconditionally, without a level prefix. Request logs use it.
func Printf(format string, args ...any) {
	log.Printf(format, args...)
}
