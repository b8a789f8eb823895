package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields. Values stored under these keys
// are added to every record logged with that context.
const (
	// ContextKeyVoice identifies the requested catalog voice.
	ContextKeyVoice contextKey = "voice"

	// ContextKeyProvider identifies the provider serving the voice.
	ContextKeyProvider contextKey = "provider"

	// ContextKeyLeg identifies the protocol leg in flight.
	ContextKeyLeg contextKey = "leg"

	// ContextKeyRequestID identifies the inbound request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyCorrelationID ties together the legs of one provider session.
	ContextKeyCorrelationID contextKey = "correlation_id"
)

// allContextKeys lists the keys the handler extracts, in output order.
var allContextKeys = []contextKey{
	ContextKeyRequestID,
	ContextKeyVoice,
	ContextKeyProvider,
	ContextKeyLeg,
	ContextKeyCorrelationID,
}

// WithVoice returns a new context with the voice id set.
func WithVoice(ctx context.Context, voice string) context.Context {
	return context.WithValue(ctx, ContextKeyVoice, voice)
}

// WithProvider returns a new context with the provider tag set.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ContextKeyProvider, provider)
}

// WithLeg returns a new context with the leg name set.
func WithLeg(ctx context.Context, leg string) context.Context {
	return context.WithValue(ctx, ContextKeyLeg, leg)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithCorrelationID returns a new context with the correlation ID set.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// LoggingFields holds all standard logging context fields.
type LoggingFields struct {
	Voice         string
	Provider      string
	Leg           string
	RequestID     string
	CorrelationID string
}

// ExtractLoggingFields extracts all logging fields from a context.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	get := func(k contextKey) string {
		s, _ := ctx.Value(k).(string)
		return s
	}
	return LoggingFields{
		Voice:         get(ContextKeyVoice),
		Provider:      get(ContextKeyProvider),
		Leg:           get(ContextKeyLeg),
		RequestID:     get(ContextKeyRequestID),
		CorrelationID: get(ContextKeyCorrelationID),
	}
}
