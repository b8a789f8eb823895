package main

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/GTAManRCRX/wrapper-offline-fixed/catalog"
	"github.com/GTAManRCRX/wrapper-offline-fixed/config"
	"github.com/GTAManRCRX/wrapper-offline-fixed/convert"
	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
	"github.com/GTAManRCRX/wrapper-offline-fixed/telemetry"
	"github.com/GTAManRCRX/wrapper-offline-fixed/tts"
)

// loadConfig resolves configuration for cmd. flags maps config keys to the
// command's own flag names.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	v := config.New()
	for key, name := range flags {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, err
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logger.Configure(cfg.LoggingSpec()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.LoadFile(cfg.CatalogPath)
	}
	return catalog.Default()
}

// newDispatcher wires the dispatcher from cfg. tp and obs may be nil.
func newDispatcher(cfg *config.Config, cat *catalog.Catalog, tp trace.TracerProvider, obs tts.Observer) *tts.Dispatcher {
	opts := []tts.Option{
		tts.WithHTTPClient(telemetry.NewHTTPClient(tp)),
		tts.WithConverter(convert.NewFFmpeg(convert.WithBinary(cfg.FFmpegPath))),
		tts.WithLegTimeout(cfg.LegTimeout),
		tts.WithSecrets(cfg.Secrets),
	}
	if tp != nil {
		opts = append(opts, tts.WithTracerProvider(tp))
	}
	if obs != nil {
		opts = append(opts, tts.WithObserver(obs))
	}
	return tts.NewDispatcher(cat, opts...)
}
