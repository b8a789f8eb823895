package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/GTAManRCRX/wrapper-offline-fixed/api"
	"github.com/GTAManRCRX/wrapper-offline-fixed/config"
	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
	metricsprom "github.com/GTAManRCRX/wrapper-offline-fixed/metrics/prometheus"
	"github.com/GTAManRCRX/wrapper-offline-fixed/telemetry"
	"github.com/GTAManRCRX/wrapper-offline-fixed/tts"
	"github.com/GTAManRCRX/wrapper-offline-fixed/version"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve synthesis over HTTP",
	Long: `Serve POST /synthesize and GET /voices, plus Prometheus metrics on a
separate address. Stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (default from listen_addr)")
	serveCmd.Flags().String("metrics-addr", "", `Metrics listen address, "" to disable`)
	serveCmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP traces endpoint")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		config.KeyListenAddr:   "listen",
		config.KeyMetricsAddr:  "metrics-addr",
		config.KeyOTLPEndpoint: "otlp-endpoint",
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tp trace.TracerProvider
	if cfg.OTLPEndpoint != "" {
		sdkTP, err := telemetry.NewTracerProvider(ctx, cfg.OTLPEndpoint, "ttsgate")
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = sdkTP.Shutdown(shutdownCtx)
		}()
		telemetry.SetupPropagation()
		tp = sdkTP
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	var (
		exporter *metricsprom.Exporter
		obs      tts.Observer
	)
	if cfg.MetricsAddr != "" {
		exporter = metricsprom.NewExporter(cfg.MetricsAddr)
		obs = metricsprom.NewObserver()
	}
	d := newDispatcher(cfg, cat, tp, obs)

	srv := api.NewServer(d, cat,
		api.WithAddr(cfg.ListenAddr),
		api.WithMaxTextLength(cfg.MaxTextLength),
		api.WithXMLHeader(cfg.XMLHeader),
	)

	logger.Info("ttsgate starting",
		append(version.GetBuildInfo(),
			"listen", cfg.ListenAddr,
			"metrics", cfg.MetricsAddr,
			"voices", cat.Len(),
			"providers", len(d.Providers()))...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreClosed(srv.ListenAndServe())
	})
	if exporter != nil {
		g.Go(func() error {
			return ignoreClosed(exporter.Start())
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if exporter != nil {
			err = errors.Join(err, exporter.Shutdown(shutdownCtx))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
