package tts

import (
	"crypto/rand"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Request is what an adapter receives for one synthesis.
type Request struct {
	// Text is the cleaned text to speak.
	Text string

	// Locale is the voice's provider locale.
	Locale string

	// Args is the provider argument from the catalog.
	Args []string
}

// Session is the state threaded through the legs of one synthesis. It is
// created per call and never shared.
type Session struct {
	Request

	// Secret is the provider credential in effect for this call.
	Secret string

	// CorrelationID ties the legs of a multi-request session together.
	CorrelationID string

	// Cookie is the name=value list from the first leg that set cookies.
	// Later Set-Cookie headers are ignored.
	Cookie string

	// Next is the value the previous leg extracted for the following one:
	// an audio URL, a part id or a scraped path.
	Next string
}

func newSession(req Request, secret string) (*Session, error) {
	id, err := newCorrelationID()
	if err != nil {
		return nil, err
	}
	return &Session{Request: req, Secret: secret, CorrelationID: id}, nil
}

// Arg returns the i-th provider argument or "".
func (s *Session) Arg(i int) string {
	if i < len(s.Args) {
		return s.Args[i]
	}
	return ""
}

// newCorrelationID formats 16 random bytes as 8-4-4-4-12 hex groups. The
// bytes are used as-is, without version or variant bits.
func newCorrelationID() (string, error) {
	var id uuid.UUID
	if _, err := rand.Read(id[:]); err != nil {
		return "", err
	}
	return id.String(), nil
}

// captureCookie keeps the name=value part of every Set-Cookie header.
func (s *Session) captureCookie(h http.Header) {
	values := h.Values("Set-Cookie")
	if len(values) == 0 {
		return
	}
	pairs := make([]string, 0, len(values))
	for _, v := range values {
		pair, _, _ := strings.Cut(v, ";")
		if pair = strings.TrimSpace(pair); pair != "" {
			pairs = append(pairs, pair)
		}
	}
	s.Cookie = strings.Join(pairs, "; ")
}
