package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTracer(t *testing.T) {
	assert.NotNil(t, Tracer(nil))
	assert.NotNil(t, Tracer(noop.NewTracerProvider()))
}

func TestSetupPropagation(t *testing.T) {
	orig := otel.GetTextMapPropagator()
	defer otel.SetTextMapPropagator(orig)

	SetupPropagation()

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "X-Amzn-Trace-Id")
}

func TestNewTracerProvider(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "http://localhost:0/v1/traces", "ttsgate-test")
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewHTTPClient_RecordsSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	resp, err := NewHTTPClient(tp).Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Len(t, recorder.Ended(), 1)
}

func TestNewHTTPClient_DoesNotPropagate(t *testing.T) {
	orig := otel.GetTextMapPropagator()
	defer otel.SetTextMapPropagator(orig)
	SetupPropagation()

	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := NewHTTPClient(tp).Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	got := <-headers
	assert.Empty(t, got.Get("traceparent"))
	assert.Empty(t, got.Get("tracestate"))
	assert.Empty(t, got.Get("baggage"))
	assert.Empty(t, got.Get("X-Amzn-Trace-Id"))
	assert.Len(t, recorder.Ended(), 1)
}

func TestWrapHandler(t *testing.T) {
	h := WrapHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), "test")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
