package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
)

// Content types sent by the adapters.
const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// maxLegBody bounds how much of an intermediate response is read.
const maxLegBody = 8 << 20

// Leg is one HTTP exchange in a provider chain. Legs run strictly in order;
// each non-final leg is read to completion before the next one starts.
type Leg struct {
	// Name identifies the leg in errors, logs and metrics.
	Name string

	// Method defaults to GET.
	Method string

	// URL builds the absolute request URL.
	URL func(s *Session) string

	// Header holds fixed request headers. A "Host" entry overrides the
	// request host.
	Header map[string]string

	// Body builds the request body and its content type.
	Body func(s *Session) (contentType string, body []byte, err error)

	// SendCookie attaches the session cookie.
	SendCookie bool

	// RequireCookie fails the leg when the response sets no cookie.
	RequireCookie bool

	// Brotli decompresses the response body before Extract sees it.
	Brotli bool

	// Extract reads a completed body and stores what the next leg needs in
	// the session. It is ignored on the final leg.
	Extract func(body []byte, s *Session) error

	// StatusText formats the non-200 message; it receives the status code.
	StatusText string
}

func (l *Leg) method() string {
	if l.Method == "" {
		return http.MethodGet
	}
	return l.Method
}

// chainRunner executes provider definitions. It holds only immutable
// collaborators, so one runner serves concurrent calls.
type chainRunner struct {
	client     *http.Client
	converter  Converter
	legTimeout time.Duration
	observer   Observer
	tracer     trace.Tracer
}

// run drives def's legs for one session and returns the final audio.
func (r *chainRunner) run(ctx context.Context, def *Definition, s *Session) (*AudioResult, error) {
	for i := range def.Legs {
		leg := &def.Legs[i]
		if i < len(def.Legs)-1 {
			if err := r.intermediate(ctx, def, leg, s); err != nil {
				return nil, err
			}
			continue
		}
		return r.final(ctx, def, leg, s)
	}
	return nil, NewSynthesisError(ErrNotImplemented, def.Provider, "Not implemented", nil)
}

func (r *chainRunner) intermediate(ctx context.Context, def *Definition, leg *Leg, s *Session) error {
	legCtx, cancel := r.legContext(ctx)
	defer cancel()

	resp, err := r.send(legCtx, def, leg, s)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLegBody))
	if err != nil {
		return r.fail(def, leg, &SynthesisError{Kind: ErrTransport, Message: "Network error: " + err.Error(), Cause: err})
	}

	if s.Cookie == "" {
		s.captureCookie(resp.Header)
	}
	if leg.RequireCookie && s.Cookie == "" {
		return r.fail(def, leg, malformedf("%s error: Could not retrieve session cookie.", def.Label))
	}

	if leg.Brotli {
		body, err = io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return r.fail(def, leg, &SynthesisError{
				Kind:    ErrMalformedResponse,
				Message: fmt.Sprintf("%s decompression error: %v", def.Label, err),
				Cause:   err,
			})
		}
	}

	if leg.Extract != nil {
		if err := leg.Extract(body, s); err != nil {
			return r.fail(def, leg, err)
		}
	}
	return nil
}

// final runs the audio leg. The leg timeout bounds the wait for response
// headers and each read that waits on the provider, never the time the caller
// takes to consume the stream.
func (r *chainRunner) final(ctx context.Context, def *Definition, leg *Leg, s *Session) (*AudioResult, error) {
	legCtx, cancel := context.WithCancel(ctx)
	body := &streamBody{timeout: r.legTimeout, cancel: cancel}
	if r.legTimeout > 0 {
		body.timer = time.AfterFunc(r.legTimeout, cancel)
	}

	resp, err := r.send(legCtx, def, leg, s)
	body.stop()
	if err != nil {
		cancel()
		return nil, err
	}
	body.ReadCloser = resp.Body

	if def.Native != FormatWAV {
		return &AudioResult{Stream: body, Format: FormatMP3}, nil
	}

	defer body.Close()
	convCtx, convCancel := r.legContext(legCtx)
	defer convCancel()
	data, err := r.converter.ConvertToMP3(convCtx, body, FormatWAV)
	if err != nil {
		return nil, r.fail(def, leg, &SynthesisError{
			Kind:    ErrConversionFailed,
			Message: fmt.Sprintf("%s conversion error: %v", def.Label, err),
			Cause:   err,
		})
	}
	return &AudioResult{Data: data, Format: FormatMP3}, nil
}

// send issues one request and checks its status. The returned body is open.
func (r *chainRunner) send(ctx context.Context, def *Definition, leg *Leg, s *Session) (*http.Response, error) {
	ctx = logger.WithLeg(ctx, leg.Name)
	ctx, span := r.tracer.Start(ctx, "tts.leg",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tts.provider", def.Provider),
			attribute.String("tts.leg", leg.Name),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := r.roundTrip(ctx, def, leg, s)
	status := 0
	if resp != nil {
		status = resp.StatusCode
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if r.observer != nil {
		r.observer.LegCompleted(def.Provider, leg.Name, status, time.Since(start), err)
	}
	logger.APIResponse(ctx, def.Provider, leg.Name, status, err)
	return resp, err
}

func (r *chainRunner) roundTrip(ctx context.Context, def *Definition, leg *Leg, s *Session) (*http.Response, error) {
	target := leg.URL(s)

	var (
		body        io.Reader
		contentType string
	)
	if leg.Body != nil {
		ct, data, err := leg.Body(s)
		if err != nil {
			return nil, r.fail(def, leg, NewSynthesisError(ErrInternal, "", "failed to build request body", err))
		}
		contentType, body = ct, bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, leg.method(), target, body)
	if err != nil {
		return nil, r.fail(def, leg, NewSynthesisError(ErrInternal, "", "failed to create request", err))
	}
	for k, v := range leg.Header {
		if http.CanonicalHeaderKey(k) == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if leg.SendCookie && s.Cookie != "" {
		req.Header.Set("Cookie", s.Cookie)
	}

	logger.APIRequest(ctx, def.Provider, leg.Name, req.Method, target, req.Header)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.fail(def, leg, &SynthesisError{Kind: ErrTransport, Message: "Network error: " + err.Error(), Cause: err})
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLegBody))
		resp.Body.Close()
		text := leg.StatusText
		if text == "" {
			text = def.Label + " error: %d"
		}
		se := &SynthesisError{
			Kind:       ErrHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf(text, resp.StatusCode),
		}
		return resp, r.fail(def, leg, se)
	}
	return resp, nil
}

// fail stamps the provider and leg onto err.
func (r *chainRunner) fail(def *Definition, leg *Leg, err error) error {
	var se *SynthesisError
	if !errors.As(err, &se) {
		se = &SynthesisError{Kind: ErrInternal, Message: err.Error(), Cause: err}
	}
	if se.Provider == "" {
		se.Provider = def.Provider
	}
	if se.Leg == "" {
		se.Leg = leg.Name
	}
	return se
}

func (r *chainRunner) legContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.legTimeout > 0 {
		return context.WithTimeout(ctx, r.legTimeout)
	}
	return context.WithCancel(ctx)
}

// streamBody is the final leg's response body. While a Read waits on the
// provider the leg timeout runs; between reads it is stopped. Close releases
// the leg's context.
type streamBody struct {
	io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
}

func (b *streamBody) Read(p []byte) (int, error) {
	if b.timer != nil {
		b.timer.Reset(b.timeout)
	}
	n, err := b.ReadCloser.Read(p)
	b.stop()
	return n, err
}

func (b *streamBody) stop() {
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *streamBody) Close() error {
	b.stop()
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// jsonBody marshals v without HTML escaping, matching what browsers send.
func jsonBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
