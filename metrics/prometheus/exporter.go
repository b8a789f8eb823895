package prometheus

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultReadHeaderTimeout = 10 * time.Second

// Exporter serves the metrics registry at /metrics with a /health probe.
type Exporter struct {
	addr     string
	registry *prometheus.Registry

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewExporter creates an exporter with the gateway collectors and the Go
// runtime collectors registered.
func NewExporter(addr string) *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(allMetrics...)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Exporter{addr: addr, registry: reg}
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the metrics and health routes.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed
// after a graceful shutdown and nil if already started.
func (e *Exporter) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return http.ErrServerClosed
	}
	if e.server != nil {
		e.mu.Unlock()
		return nil
	}
	e.server = &http.Server{
		Addr:              e.addr,
		Handler:           e.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	srv := e.server
	e.mu.Unlock()

	return srv.ListenAndServe()
}

// Shutdown gracefully stops the exporter. Start fails after Shutdown.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	srv := e.server
	e.closed = true
	e.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
