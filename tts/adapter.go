package tts

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
	"github.com/GTAManRCRX/wrapper-offline-fixed/phoneme"
)

// Adapter implements one provider's protocol.
type Adapter interface {
	// Provider returns the catalog tag this adapter serves.
	Provider() string

	// Synthesize turns req into MP3-compatible audio.
	Synthesize(ctx context.Context, req Request) (*AudioResult, error)
}

// Converter re-encodes audio to MP3.
type Converter interface {
	ConvertToMP3(ctx context.Context, r io.Reader, format string) ([]byte, error)
}

// Observer receives timing for every leg and every synthesis.
type Observer interface {
	LegCompleted(provider, leg string, status int, d time.Duration, err error)
	SynthesisCompleted(provider string, d time.Duration, err error)
}

// chainAdapter runs a Definition.
type chainAdapter struct {
	def    Definition
	secret string
	runner *chainRunner
}

func (a *chainAdapter) Provider() string {
	return a.def.Provider
}

func (a *chainAdapter) Synthesize(ctx context.Context, req Request) (*AudioResult, error) {
	if len(req.Args) < a.def.argCount() {
		return nil, NewSynthesisError(ErrUnsupportedVoice, a.def.Provider, "Requested voice is not supported", nil)
	}
	if a.def.Rewrite {
		req.Text = phoneme.Rewrite(req.Text, phoneme.ProfileFromArg(req.Args[0]))
	}
	s, err := newSession(req, a.secret)
	if err != nil {
		return nil, NewSynthesisError(ErrInternal, a.def.Provider, "failed to create session", err)
	}
	ctx = logger.WithCorrelationID(ctx, s.CorrelationID)
	return a.runner.run(ctx, &a.def, s)
}

// Registry maps provider tags to adapters.
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: map[string]Adapter{},
	}
}

// Register adds or replaces the adapter for its provider tag.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[a.Provider()] = a
}

// Get returns the adapter for provider.
func (r *Registry) Get(provider string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[provider]
	return a, ok
}

// Providers returns the registered tags in sorted order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
