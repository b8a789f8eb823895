package tts

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsEncode(t *testing.T) {
	tests := []struct {
		name string
		p    params
		want string
	}{
		{"keeps order", params{{"z", "1"}, {"a", "2"}}, "z=1&a=2"},
		{"space is plus", params{{"text", "hello world"}}, "text=hello+world"},
		{"unreserved", params{{"t", "a-b_c.d*e"}}, "t=a-b_c.d*e"},
		{"tilde escaped", params{{"t", "~"}}, "t=%7E"},
		{"punctuation escaped", params{{"t", "!'()"}}, "t=%21%27%28%29"},
		{"reserved escaped", params{{"t", "a&b=c/d?"}}, "t=a%26b%3Dc%2Fd%3F"},
		{"empty value", params{{"FNAME", ""}, {"x", "1"}}, "FNAME=&x=1"},
		{"empty list", params{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.encode())
		})
	}
}

func TestSession_Arg(t *testing.T) {
	s := &Session{Request: Request{Args: []string{"2", "1"}}}
	assert.Equal(t, "2", s.Arg(0))
	assert.Equal(t, "1", s.Arg(1))
	assert.Equal(t, "", s.Arg(2))
}

func TestNewSession_CorrelationID(t *testing.T) {
	a, err := newSession(Request{Text: "hi"}, "secret")
	require.NoError(t, err)
	b, err := newSession(Request{Text: "hi"}, "secret")
	require.NoError(t, err)

	assert.Regexp(t, uuidPattern, a.CorrelationID)
	assert.NotEqual(t, a.CorrelationID, b.CorrelationID)
	assert.Equal(t, "secret", a.Secret)
	assert.Equal(t, "hi", a.Text)
}

func TestSession_CaptureCookie(t *testing.T) {
	s := &Session{}
	s.captureCookie(http.Header{})
	assert.Empty(t, s.Cookie)

	h := http.Header{}
	h.Add("Set-Cookie", "a=1; Path=/; HttpOnly")
	h.Add("Set-Cookie", " b=2 ")
	h.Add("Set-Cookie", "; Expires=never")
	s.captureCookie(h)
	assert.Equal(t, "a=1; b=2", s.Cookie)

	s.captureCookie(http.Header{})
	assert.Equal(t, "a=1; b=2", s.Cookie, "later legs without cookies keep the session")
}

func TestAudioResult(t *testing.T) {
	buffered := &AudioResult{Data: []byte("mp3"), Format: FormatMP3}
	assert.True(t, buffered.Buffered())
	assert.NoError(t, buffered.Close())
	assert.Equal(t, "mp3", readAll(t, buffered))
}
