// Package logger provides structured logging with automatic credential
// redaction.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - provider leg logging (requests, responses, errors)
//   - redaction of provider tokens, API keys and session cookies
//   - contextual logging with voice, provider and request tracing
//   - level-based verbosity control
//
// All exported functions use the global DefaultLogger which can be configured
// for different output formats and log levels.
package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	// DefaultLogger is the global structured logger instance.
	// It is safe for concurrent use and initialized with slog.LevelInfo by default.
	DefaultLogger *slog.Logger

	// logOutput is where handlers built by this package write.
	logOutput io.Writer = os.Stderr
)

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = ParseLevel(envLevel)
	}
	initLogger(level, nil, false)
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func initLogger(level slog.Level, commonFields []slog.Attr, useJSON bool) {
	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if useJSON {
		base = slog.NewJSONHandler(logOutput, opts)
	} else {
		base = slog.NewTextHandler(logOutput, opts)
	}
	DefaultLogger = slog.New(NewContextHandler(base, commonFields...))
}

// SetLevel changes the logging level for all subsequent log operations.
// This replaces the entire logger instance.
func SetLevel(level slog.Level) {
	initLogger(level, nil, false)
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
// This is a convenience wrapper around SetLevel for command-line verbose flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context fields.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message with context fields.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Warn logs a warning message with structured attributes.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message with context fields.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message with context fields.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

var (
	// secretPatterns match provider credentials in URLs and form bodies.
	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(token|apikey|api_key|key)=([^&\s"]+)`),
		regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]+`),
	}

	// sensitiveHeaders are dropped wholesale from logged headers.
	sensitiveHeaders = map[string]bool{
		"Cookie":        true,
		"Set-Cookie":    true,
		"Authorization": true,
	}
)

// RedactSensitiveData masks credentials in s. Query and form values named
// token, apikey, api_key or key keep their first four characters.
func RedactSensitiveData(s string) string {
	result := secretPatterns[0].ReplaceAllStringFunc(s, func(match string) string {
		name, value, _ := strings.Cut(match, "=")
		if len(value) > 8 {
			return name + "=" + value[:4] + "...[REDACTED]"
		}
		return name + "=[REDACTED]"
	})
	return secretPatterns[1].ReplaceAllString(result, "Bearer [REDACTED]")
}

// RedactHeaders flattens h for logging with credentials removed.
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, values := range h {
		if sensitiveHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = RedactSensitiveData(strings.Join(values, ", "))
	}
	return out
}

// APIRequest logs an outbound provider leg at debug level. It is a no-op when
// debug logging is disabled.
func APIRequest(ctx context.Context, provider, leg, method, url string, headers http.Header) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{
		"provider", provider,
		"leg", leg,
		"method", method,
		"url", RedactSensitiveData(url),
	}
	if len(headers) > 0 {
		attrs = append(attrs, "headers", RedactHeaders(headers))
	}
	DefaultLogger.DebugContext(ctx, "provider request", attrs...)
}

// APIResponse logs the outcome of a provider leg. Failures are logged at
// debug level too; the dispatcher reports the final error once.
func APIResponse(ctx context.Context, provider, leg string, statusCode int, err error) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{
		"provider", provider,
		"leg", leg,
		"status_code", statusCode,
	}
	if err != nil {
		attrs = append(attrs, "error", RedactSensitiveData(err.Error()))
		DefaultLogger.DebugContext(ctx, "provider response error", attrs...)
		return
	}
	DefaultLogger.DebugContext(ctx, "provider response", attrs...)
}
