package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
		wantOK   bool
	}{
		{name: "debug", input: "debug", expected: LevelDebug, wantOK: true},
		{name: "info", input: "info", expected: LevelInfo, wantOK: true},
		{name: "warn", input: "warn", expected: LevelWarn, wantOK: true},
		{name: "warning alias", input: "warning", expected: LevelWarn, wantOK: true},
		{name: "error", input: "error", expected: LevelError, wantOK: true},
		{name: "case insensitive", input: "DEBUG", expected: LevelDebug, wantOK: true},
		{name: "surrounding spaces", input: "  error ", expected: LevelError, wantOK: true},
		{name: "empty", input: "", expected: LevelInfo, wantOK: false},
		{name: "unknown", input: "verbose", expected: LevelInfo, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.wantOK)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("Log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	previous := GetLevel()
	defer func() {
		log.SetOutput(os.Stderr)
		SetLevel(previous)
	}()

	SetLevel(LevelWarn)
	Debug("debug line")
	Info("info line")
	Warn("warn line %d", 1)
	Error("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("messages below warn were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn line 1") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] error line") {
		t.Errorf("missing error line in %q", out)
	}

	buf.Reset()
	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Fatal("IsDebugEnabled() = false after SetLevel(LevelDebug)")
	}
	Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Errorf("debug output missing: %q", buf.String())
	}
}

func TestPrintfAlwaysWrites(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	previous := GetLevel()
	defer func() {
		log.SetOutput(os.Stderr)
		SetLevel(previous)
	}()

	SetLevel(LevelError)
	Printf("banner %s", "line")
	if !strings.Contains(buf.String(), "banner line") {
		t.Errorf("Printf output missing: %q", buf.String())
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}
