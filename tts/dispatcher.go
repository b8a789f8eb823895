package tts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GTAManRCRX/wrapper-offline-fixed/catalog"
	"github.com/GTAManRCRX/wrapper-offline-fixed/convert"
	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
	"github.com/GTAManRCRX/wrapper-offline-fixed/telemetry"
)

// Delimiter separates discarded editor content from the text to speak.
const Delimiter = "#%"

// DefaultLegTimeout bounds each protocol leg.
const DefaultLegTimeout = 30 * time.Second

// VoiceLookup resolves voice ids. *catalog.Catalog satisfies it.
type VoiceLookup interface {
	Lookup(id string) (catalog.Voice, bool)
}

// CleanText returns the part of text after the last Delimiter, or text
// unchanged when it has none.
func CleanText(text string) string {
	if i := strings.LastIndex(text, Delimiter); i >= 0 {
		return text[i+len(Delimiter):]
	}
	return text
}

// Dispatcher routes a voice to its provider adapter and normalizes every
// failure into a *SynthesisError.
type Dispatcher struct {
	voices   VoiceLookup
	registry *Registry
	observer Observer
	tracer   trace.Tracer
}

type dispatcherConfig struct {
	client         *http.Client
	converter      Converter
	legTimeout     time.Duration
	secrets        map[string]string
	observer       Observer
	tracerProvider trace.TracerProvider
	definitions    []Definition
	adapters       []Adapter
}

// Option configures a Dispatcher.
type Option func(*dispatcherConfig)

// WithHTTPClient sets the client used for every leg.
func WithHTTPClient(client *http.Client) Option {
	return func(c *dispatcherConfig) {
		c.client = client
	}
}

// WithConverter sets the WAV to MP3 converter.
func WithConverter(conv Converter) Option {
	return func(c *dispatcherConfig) {
		c.converter = conv
	}
}

// WithLegTimeout bounds each leg. Zero disables the bound; the caller's
// context still applies.
func WithLegTimeout(d time.Duration) Option {
	return func(c *dispatcherConfig) {
		c.legTimeout = d
	}
}

// WithSecrets overrides built-in provider credentials, keyed by provider tag.
func WithSecrets(secrets map[string]string) Option {
	return func(c *dispatcherConfig) {
		for k, v := range secrets {
			c.secrets[k] = v
		}
	}
}

// WithObserver sets the metrics hook.
func WithObserver(o Observer) Option {
	return func(c *dispatcherConfig) {
		c.observer = o
	}
}

// WithTracerProvider sets the OpenTelemetry provider for dispatch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *dispatcherConfig) {
		c.tracerProvider = tp
	}
}

// WithDefinitions adds or replaces provider definitions.
func WithDefinitions(defs ...Definition) Option {
	return func(c *dispatcherConfig) {
		c.definitions = append(c.definitions, defs...)
	}
}

// WithAdapter registers a custom adapter, replacing any definition for the
// same provider.
func WithAdapter(a Adapter) Option {
	return func(c *dispatcherConfig) {
		c.adapters = append(c.adapters, a)
	}
}

// NewDispatcher creates a dispatcher over voices serving the built-in
// provider definitions.
func NewDispatcher(voices VoiceLookup, opts ...Option) *Dispatcher {
	cfg := &dispatcherConfig{
		client:      &http.Client{},
		legTimeout:  DefaultLegTimeout,
		secrets:     map[string]string{},
		definitions: Definitions(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.converter == nil {
		cfg.converter = convert.NewFFmpeg()
	}

	runner := &chainRunner{
		client:     cfg.client,
		converter:  cfg.converter,
		legTimeout: cfg.legTimeout,
		observer:   cfg.observer,
		tracer:     telemetry.Tracer(cfg.tracerProvider),
	}

	registry := NewRegistry()
	for _, def := range cfg.definitions {
		secret := def.Secret
		if s := cfg.secrets[def.Provider]; s != "" {
			secret = s
		}
		registry.Register(&chainAdapter{def: def, secret: secret, runner: runner})
	}
	for _, a := range cfg.adapters {
		registry.Register(a)
	}

	return &Dispatcher{
		voices:   voices,
		registry: registry,
		observer: cfg.observer,
		tracer:   runner.tracer,
	}
}

// Providers returns the provider tags the dispatcher can serve.
func (d *Dispatcher) Providers() []string {
	return d.registry.Providers()
}

// ProcessVoice synthesizes text with the voice voiceID. Only the text after
// the last Delimiter is sent. Exactly one adapter runs and nothing is
// retried. The caller must close the result.
func (d *Dispatcher) ProcessVoice(ctx context.Context, voiceID, text string) (result *AudioResult, err error) {
	start := time.Now()
	provider := ""
	ctx = logger.WithVoice(ctx, voiceID)
	ctx, span := d.tracer.Start(ctx, "tts.ProcessVoice",
		trace.WithAttributes(attribute.String("tts.voice", voiceID)),
	)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = NewSynthesisError(ErrInternal, provider, fmt.Sprint(r), nil)
		}
		elapsed := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "synthesis failed", "kind", KindName(err), "error", err)
		} else if result != nil {
			logger.DebugContext(ctx, "synthesis ready", "buffered", result.Buffered(), "duration", elapsed)
		}
		span.End()
		if d.observer != nil {
			d.observer.SynthesisCompleted(provider, elapsed, err)
		}
	}()

	voice, ok := d.voices.Lookup(voiceID)
	if !ok {
		return nil, NewSynthesisError(ErrUnsupportedVoice, "", "Requested voice is not supported", nil)
	}
	provider = voice.Provider
	span.SetAttributes(attribute.String("tts.provider", provider))
	ctx = logger.WithProvider(ctx, provider)

	adapter, ok := d.registry.Get(provider)
	if !ok {
		return nil, NewSynthesisError(ErrNotImplemented, provider, "Not implemented", nil)
	}

	result, err = adapter.Synthesize(ctx, Request{
		Text:   CleanText(text),
		Locale: voice.Locale(),
		Args:   voice.Arg,
	})
	if err != nil && KindOf(err) == nil {
		err = NewSynthesisError(ErrInternal, provider, "adapter failed", err)
	}
	if err == nil && result == nil {
		err = NewSynthesisError(ErrInternal, provider, "adapter returned no audio", nil)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
