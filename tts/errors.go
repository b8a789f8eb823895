package tts

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by Dispatcher.ProcessVoice matches
// exactly one of these with errors.Is.
var (
	// ErrUnsupportedVoice is returned when the voice id is not in the catalog.
	ErrUnsupportedVoice = errors.New("unsupported voice")

	// ErrNotImplemented is returned when no adapter serves the voice's provider.
	ErrNotImplemented = errors.New("provider not implemented")

	// ErrTransport is returned for connection-level failures on any leg.
	ErrTransport = errors.New("transport error")

	// ErrHTTPStatus is returned when a leg answers with a non-200 status.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrMalformedResponse is returned when a response body cannot be parsed
	// or lacks the field or marker the next leg depends on.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrRejected is returned when a provider answers with a well-formed
	// envelope that reports failure.
	ErrRejected = errors.New("provider rejected request")

	// ErrConversionFailed is returned when WAV to MP3 conversion fails.
	ErrConversionFailed = errors.New("audio conversion failed")

	// ErrInternal is returned when dispatch panics.
	ErrInternal = errors.New("internal error")
)

var kinds = []error{
	ErrUnsupportedVoice,
	ErrNotImplemented,
	ErrTransport,
	ErrHTTPStatus,
	ErrMalformedResponse,
	ErrRejected,
	ErrConversionFailed,
	ErrInternal,
}

var kindNames = map[error]string{
	ErrUnsupportedVoice:  "unsupported_voice",
	ErrNotImplemented:    "not_implemented",
	ErrTransport:         "transport",
	ErrHTTPStatus:        "http_status",
	ErrMalformedResponse: "malformed_response",
	ErrRejected:          "rejected",
	ErrConversionFailed:  "conversion_failed",
	ErrInternal:          "internal",
}

// SynthesisError carries the kind, the originating provider and leg, and a
// human-readable message for a failed synthesis.
type SynthesisError struct {
	// Provider is the provider tag, empty when the voice was never resolved.
	Provider string

	// Leg names the protocol step that failed.
	Leg string

	// StatusCode is set for ErrHTTPStatus.
	StatusCode int

	// Message is the provider-specific description.
	Message string

	// Kind is one of the Err* sentinels.
	Kind error

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Cause != nil && !strings.Contains(msg, e.Cause.Error()) {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *SynthesisError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// NewSynthesisError creates a new SynthesisError.
func NewSynthesisError(kind error, provider, message string, cause error) *SynthesisError {
	return &SynthesisError{
		Provider: provider,
		Message:  message,
		Kind:     kind,
		Cause:    cause,
	}
}

func malformedf(format string, args ...any) *SynthesisError {
	return &SynthesisError{Kind: ErrMalformedResponse, Message: fmt.Sprintf(format, args...)}
}

func rejected(message string) *SynthesisError {
	return &SynthesisError{Kind: ErrRejected, Message: message}
}

// KindOf returns the kind sentinel of err, or nil when err did not come
// from this package.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var se *SynthesisError
	if errors.As(err, &se) && se.Kind != nil {
		return se.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a stable label for err's kind: "ok" for nil and
// "unknown" for foreign errors.
func KindName(err error) string {
	if err == nil {
		return "ok"
	}
	if name, ok := kindNames[KindOf(err)]; ok {
		return name
	}
	return "unknown"
}

// IsUpstream reports whether err was caused by a provider or the converter
// rather than by the request itself.
func IsUpstream(err error) bool {
	switch KindOf(err) {
	case ErrTransport, ErrHTTPStatus, ErrMalformedResponse, ErrRejected, ErrConversionFailed:
		return true
	}
	return false
}
