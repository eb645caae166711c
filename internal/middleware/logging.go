package middleware

import (
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"meilisync/internal/logging"
)

// responseWriter records the status and size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// LoggingConfig controls which requests are logged.
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged.
	SkipPaths []string
	// HealthPaths are probe endpoints, logged only when LogHealthChecks is set.
	HealthPaths     []string
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything except the metrics endpoint.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		HealthPaths:     []string{"/health", "/healthz", "/livez", "/readyz"},
		LogHealthChecks: true,
	}
}

func (c LoggingConfig) skip(path string) bool {
	for _, prefix := range c.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return !c.LogHealthChecks && slices.Contains(c.HealthPaths, path)
}

// Logger returns middleware that writes one W3C extended log line per request:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(User-Agent)
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			logging.Printf("%s", w3cLine(r, wrapped, time.Since(start)))
		})
	}
}

func w3cLine(r *http.Request, rw *responseWriter, took time.Duration) string {
	now := time.Now().UTC()
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitizeLogField(getClientIP(r))),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(quoteW3C(sanitizeLogField(r.UserAgent()))),
	}
	return strings.Join(fields, " ")
}

// sanitizeLogField drops control characters so request data cannot forge
// log lines. Line breaks become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// quoteW3C quotes values containing whitespace or quotes.
func quoteW3C(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
