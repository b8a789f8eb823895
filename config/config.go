// Package config loads gateway settings from a YAML file, TTSGATE_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
)

// EnvPrefix is prepended to every environment variable, so leg_timeout is
// read from TTSGATE_LEG_TIMEOUT.
const EnvPrefix = "TTSGATE"

// Keys shared with flag bindings.
const (
	KeyLegTimeout    = "leg_timeout"
	KeyMaxTextLength = "max_text_length"
	KeyCatalogPath   = "catalog_path"
	KeyFFmpegPath    = "ffmpeg_path"
	KeyListenAddr    = "listen_addr"
	KeyMetricsAddr   = "metrics_addr"
	KeyOTLPEndpoint  = "otlp_endpoint"
	KeyXMLHeader     = "xml_header"
	KeyLogLevel      = "logging.level"
	KeyLogFormat     = "logging.format"
)

// DefaultXMLHeader prefixes the voice listing.
const DefaultXMLHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// SecretProviders are the providers whose credential can be supplied as
// secrets.<provider> or TTSGATE_SECRETS_<PROVIDER>.
var SecretProviders = []string{"acapela", "neospeechold", "onecoretwo", "svox"}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string            `mapstructure:"level"`
	Format string            `mapstructure:"format"`
	Fields map[string]string `mapstructure:"fields"`
}

// Config is the resolved gateway configuration.
type Config struct {
	LegTimeout    time.Duration     `mapstructure:"leg_timeout"`
	MaxTextLength int               `mapstructure:"max_text_length"`
	CatalogPath   string            `mapstructure:"catalog_path"`
	FFmpegPath    string            `mapstructure:"ffmpeg_path"`
	ListenAddr    string            `mapstructure:"listen_addr"`
	MetricsAddr   string            `mapstructure:"metrics_addr"`
	OTLPEndpoint  string            `mapstructure:"otlp_endpoint"`
	XMLHeader     string            `mapstructure:"xml_header"`
	Logging       LoggingConfig     `mapstructure:"logging"`
	Secrets       map[string]string `mapstructure:"secrets"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLegTimeout, 30*time.Second)
	v.SetDefault(KeyMaxTextLength, 320)
	v.SetDefault(KeyCatalogPath, "")
	v.SetDefault(KeyFFmpegPath, "ffmpeg")
	v.SetDefault(KeyListenAddr, ":4664")
	v.SetDefault(KeyMetricsAddr, ":9464")
	v.SetDefault(KeyOTLPEndpoint, "")
	v.SetDefault(KeyXMLHeader, DefaultXMLHeader)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logger.FormatText)
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, p := range SecretProviders {
		_ = v.BindEnv("secrets." + p)
	}
	return v
}

// Load reads path (if non-empty) into v, then decodes and validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no file, flags or environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	if c.LegTimeout < 0 {
		problems = append(problems, "leg_timeout must not be negative")
	}
	if c.MaxTextLength <= 0 {
		problems = append(problems, "max_text_length must be positive")
	}
	if c.FFmpegPath == "" {
		problems = append(problems, "ffmpeg_path is required")
	}
	switch c.Logging.Format {
	case logger.FormatText, logger.FormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LoggingSpec converts the logging section for logger.Configure.
func (c *Config) LoggingSpec() *logger.LoggingConfigSpec {
	return &logger.LoggingConfigSpec{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		CommonFields: c.Logging.Fields,
	}
}
