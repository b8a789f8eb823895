// Package api exposes the dispatcher over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/GTAManRCRX/wrapper-offline-fixed/logger"
	"github.com/GTAManRCRX/wrapper-offline-fixed/telemetry"
	"github.com/GTAManRCRX/wrapper-offline-fixed/tts"
)

const (
	// DefaultMaxTextLength is how many runes of text are sent to a provider.
	DefaultMaxTextLength = 320

	// defaultReadHeaderTimeout prevents Slowloris attacks.
	defaultReadHeaderTimeout = 10 * time.Second

	// defaultMaxBodySize bounds the request form or JSON body.
	defaultMaxBodySize int64 = 1 << 20

	// GenerationFailed is the body written when synthesis fails.
	GenerationFailed = "1<error><code>ERR_ASSET_404</code><message>Generation failed</message></error>"

	contentTypeHTML = "text/html; charset=UTF-8"
	headerRequestID = "X-Request-ID"
)

// Synthesizer produces audio for a voice. *tts.Dispatcher satisfies it.
type Synthesizer interface {
	ProcessVoice(ctx context.Context, voiceID, text string) (*tts.AudioResult, error)
}

// VoiceLister renders the voice listing. *catalog.Catalog satisfies it.
type VoiceLister interface {
	VoicesXML(header string) string
}

// Option configures a [Server].
type Option func(*Server)

// WithAddr sets the listen address for ListenAndServe.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithMaxTextLength sets the truncation limit in runes. Values <= 0 are ignored.
func WithMaxTextLength(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxText = n
		}
	}
}

// WithXMLHeader sets the prefix written before the voice listing.
func WithXMLHeader(header string) Option {
	return func(s *Server) { s.xmlHeader = header }
}

// Server serves synthesis and voice listing.
type Server struct {
	synth     Synthesizer
	voices    VoiceLister
	addr      string
	maxText   int
	xmlHeader string

	voicesOnce sync.Once
	voicesXML  string

	httpSrvMu sync.Mutex
	httpSrv   *http.Server
	closed    bool
}

// NewServer creates a server over synth and voices.
func NewServer(synth Synthesizer, voices VoiceLister, opts ...Option) *Server {
	s := &Server{
		synth:   synth,
		voices:  voices,
		addr:    ":4664",
		maxText: DefaultMaxTextLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes wrapped in a server span.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /synthesize", s.handleSynthesize)
	mux.HandleFunc("GET /voices", s.handleVoices)
	mux.HandleFunc("POST /voices", s.handleVoices)
	mux.HandleFunc("POST /goapi/getTextToSpeechVoices/", s.handleVoices)
	return telemetry.WrapHandler(mux, "ttsgate")
}

// ListenAndServe serves on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	s.httpSrvMu.Lock()
	if s.closed {
		s.httpSrvMu.Unlock()
		_ = ln.Close()
		return http.ErrServerClosed
	}
	s.httpSrv = srv
	s.httpSrvMu.Unlock()

	return srv.Serve(ln)
}

// Shutdown drains in-flight requests. Serve fails after Shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpSrvMu.Lock()
	srv := s.httpSrv
	s.closed = true
	s.httpSrvMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// TruncateText keeps at most limit runes of text.
func TruncateText(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

type synthesizeRequest struct {
	Voice string `json:"voice"`
	Text  string `json:"text"`
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(headerRequestID, requestID)
	ctx := logger.WithRequestID(r.Context(), requestID)

	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxBodySize)
	req, err := decodeSynthesize(r)
	if err != nil || req.Voice == "" || req.Text == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	res, err := s.synth.ProcessVoice(ctx, req.Voice, TruncateText(req.Text, s.maxText))
	if err != nil {
		logger.ErrorContext(ctx, "Error generating TTS", "voice", req.Voice, "kind", tts.KindName(err), "error", err)
		w.Header().Set("Content-Type", contentTypeHTML)
		_, _ = io.WriteString(w, GenerationFailed)
		return
	}
	defer res.Close()

	w.Header().Set("Content-Type", tts.MIMETypeMP3)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if _, err := io.Copy(w, res.Reader()); err != nil {
		logger.WarnContext(ctx, "audio stream interrupted", "voice", req.Voice, "error", err)
	}
}

// decodeSynthesize accepts a JSON body or a form.
func decodeSynthesize(r *http.Request) (synthesizeRequest, error) {
	var req synthesizeRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Voice = r.PostForm.Get("voice")
	req.Text = r.PostForm.Get("text")
	return req, nil
}

func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	s.voicesOnce.Do(func() {
		s.voicesXML = s.voices.VoicesXML(s.xmlHeader)
	})
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = io.WriteString(w, s.voicesXML)
}
