package logger

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Log format constants
const (
	FormatJSON = "json"
	FormatText = "text"
)

// LoggingConfigSpec configures the global logger. It mirrors
// config.LoggingConfig to avoid an import cycle.
type LoggingConfigSpec struct {
	Level        string
	Format       string // "json" or "text"
	CommonFields map[string]string
}

// Configure rebuilds the global logger from cfg.
func Configure(cfg *LoggingConfigSpec) error {
	if cfg == nil {
		return nil
	}
	switch cfg.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	keys := make([]string, 0, len(cfg.CommonFields))
	for k := range cfg.CommonFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	commonFields := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		commonFields = append(commonFields, slog.String(k, cfg.CommonFields[k]))
	}

	initLogger(ParseLevel(cfg.Level), commonFields, cfg.Format == FormatJSON)
	slog.SetDefault(DefaultLogger)
	return nil
}

// SetOutput redirects loggers built after the call to w.
func SetOutput(w io.Writer) {
	logOutput = w
}
