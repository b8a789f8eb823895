package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GTAManRCRX/wrapper-offline-fixed/catalog"
	"github.com/GTAManRCRX/wrapper-offline-fixed/tts"
)

type mockSynth struct {
	mock.Mock
}

func (m *mockSynth) ProcessVoice(_ context.Context, voiceID, text string) (*tts.AudioResult, error) {
	ret := m.Called(voiceID, text)
	res, _ := ret.Get(0).(*tts.AudioResult)
	return res, ret.Error(1)
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello"},
		{"runes not bytes", "héllo wörld", 7, "héllo w"},
		{"cjk", "你好世界", 2, "你好"},
		{"no limit", "hello", 0, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.text, tt.max))
		})
	}
}

func TestSynthesize_Form(t *testing.T) {
	synth := &mockSynth{}
	synth.On("ProcessVoice", "ryan", "hello").
		Return(&tts.AudioResult{Data: []byte("ID3"), Format: tts.FormatMP3}, nil).Once()
	srv := NewServer(synth, catalog.New(nil, nil))

	form := url.Values{"voice": {"ryan"}, "text": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/synthesize", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "ID3", rec.Body.String())
	synth.AssertExpectations(t)
}

func TestSynthesize_JSONTruncates(t *testing.T) {
	synth := &mockSynth{}
	synth.On("ProcessVoice", "aria", "abcde").
		Return(&tts.AudioResult{Stream: io.NopCloser(strings.NewReader("stream")), Format: tts.FormatMP3}, nil).Once()
	srv := NewServer(synth, catalog.New(nil, nil), WithMaxTextLength(5))

	req := httptest.NewRequest(http.MethodPost, "/synthesize", strings.NewReader(`{"voice":"aria","text":"abcdefgh"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "stream", rec.Body.String())
	synth.AssertExpectations(t)
}

func TestSynthesize_MissingFields(t *testing.T) {
	tests := []struct {
		name, contentType, body string
	}{
		{"no voice", "application/x-www-form-urlencoded", "text=hi"},
		{"no text", "application/x-www-form-urlencoded", "voice=ryan"},
		{"empty json", "application/json", ""},
		{"broken json", "application/json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &mockSynth{}
			srv := NewServer(synth, catalog.New(nil, nil))

			req := httptest.NewRequest(http.MethodPost, "/synthesize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			synth.AssertNotCalled(t, "ProcessVoice", mock.Anything, mock.Anything)
		})
	}
}

func TestSynthesize_Failure(t *testing.T) {
	synth := &mockSynth{}
	synth.On("ProcessVoice", "ryan", "hi").
		Return(nil, tts.NewSynthesisError(tts.ErrHTTPStatus, "acapela", "Acapela cloud error: 403. Token might be expired.", nil))
	srv := NewServer(synth, catalog.New(nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/synthesize", strings.NewReader("voice=ryan&text=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, GenerationFailed, rec.Body.String())
}

func TestVoices(t *testing.T) {
	cat := catalog.New([]catalog.Voice{
		{ID: "ryan", Provider: "acapela", Arg: catalog.Args{"Ryan22k_NT"}, Language: "en", Desc: "Ryan", Gender: "M", Country: "US"},
	}, map[string]string{"en": "English"})
	srv := NewServer(&mockSynth{}, cat, WithXMLHeader(`<?xml version="1.0"?>`))

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/voices", nil))
		assert.Equal(t, http.StatusOK, rec.Code, method)
		assert.Equal(t, cat.VoicesXML(`<?xml version="1.0"?>`), rec.Body.String(), method)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/goapi/getTextToSpeechVoices/", nil))
	assert.Contains(t, rec.Body.String(), `<voice id="ryan"`)
}

func TestServeAndShutdown(t *testing.T) {
	early := NewServer(&mockSynth{}, catalog.New(nil, nil), WithAddr("127.0.0.1:0"))
	assert.NoError(t, early.Shutdown(context.Background()))
	assert.ErrorIs(t, early.ListenAndServe(), http.ErrServerClosed)

	srv := NewServer(&mockSynth{}, catalog.New(nil, nil))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/voices")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}
