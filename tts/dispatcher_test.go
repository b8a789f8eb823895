package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTAManRCRX/wrapper-offline-fixed/catalog"
)

const acapelaRoute = "acapela-cloud.com/api/command/"

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"hello#%world", "world"},
		{"a#%b#%c", "c"},
		{"trailing#%", ""},
		{"#%", ""},
		{"", ""},
		{"one # two % three", "one # two % three"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestProcessVoice_UnknownVoice(t *testing.T) {
	up := newUpstream(t)
	d := newTestDispatcher(t, up)

	res, err := d.ProcessVoice(context.Background(), "nobody", "hi")
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrUnsupportedVoice)

	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Requested voice is not supported", se.Message)
	assert.Empty(t, se.Provider)
	assert.Empty(t, up.requests())
}

func TestProcessVoice_AcapelaStreamsBody(t *testing.T) {
	up := newUpstream(t)
	up.handle(acapelaRoute, reply(http.StatusOK, "ID3-audio-bytes"))
	d := newTestDispatcher(t, up)

	res, err := d.ProcessVoice(context.Background(), "ryan", "hello#%world")
	require.NoError(t, err)
	assert.False(t, res.Buffered())
	assert.Equal(t, FormatMP3, res.Format)
	assert.Equal(t, "ID3-audio-bytes", readAll(t, res))

	reqs := up.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "acapela-cloud.com", reqs[0].Host)
	assert.Equal(t,
		"voice=Ryan22k_NT&text=world&output=stream&type=mp3&samplerate=22050&token=bd8b22e3e5ebbaa05ea0055aec4e16c357c29486",
		reqs[0].URL.RawQuery)
	assert.Equal(t, "https://www.acapela-group.com", reqs[0].Header.Get("Origin"))
}

func TestProcessVoice_AcapelaHTTPStatus(t *testing.T) {
	up := newUpstream(t)
	up.handle(acapelaRoute, reply(http.StatusForbidden, "expired"))
	d := newTestDispatcher(t, up)

	_, err := d.ProcessVoice(context.Background(), "ryan", "hi")
	require.ErrorIs(t, err, ErrHTTPStatus)

	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, ProviderAcapela, se.Provider)
	assert.Equal(t, "synthesize", se.Leg)
	assert.Equal(t, "Acapela cloud error: 403. Token might be expired.", se.Message)
}

func TestProcessVoice_SecretOverride(t *testing.T) {
	up := newUpstream(t)
	up.handle(acapelaRoute, reply(http.StatusOK, "ok"))
	d := newTestDispatcher(t, up, WithSecrets(map[string]string{ProviderAcapela: "fresh-token"}))

	res, err := d.ProcessVoice(context.Background(), "ryan", "hi")
	require.NoError(t, err)
	_ = res.Close()

	reqs := up.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "fresh-token", reqs[0].URL.Query().Get("token"))
}

func TestProcessVoice_BingEnvelope(t *testing.T) {
	up := newUpstream(t)
	up.handle("lazypy.ro/tts/request_tts.php",
		reply(http.StatusOK, `{"success":true,"audio_url":"https://lazypy.ro/tts/temp/abc.mp3"}`))
	up.handle("lazypy.ro/tts/temp/abc.mp3", reply(http.StatusOK, "bing-mp3"))
	d := newTestDispatcher(t, up)

	res, err := d.ProcessVoice(context.Background(), "aria", "hi there")
	require.NoError(t, err)
	assert.Equal(t, "bing-mp3", readAll(t, res))

	reqs := up.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, contentTypeForm, reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "text=hi+there&voice=en-US-AriaNeural&service=Bing+Translator", string(reqs[0].Body))
	assert.Equal(t, "/tts/temp/abc.mp3", reqs[1].URL.Path)
}

func TestProcessVoice_BingRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"with message", `{"success":false,"error_msg":"Quota exceeded"}`, "Bing proxy error: Quota exceeded"},
		{"without message", `{"success":false}`, "Bing proxy error: Unknown error"},
		{"non-bool success", `{"success":"yes","audio_url":"https://x/y.mp3"}`, "Bing proxy error: Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t)
			up.handle("lazypy.ro/tts/request_tts.php", reply(http.StatusOK, tt.body))
			d := newTestDispatcher(t, up)

			_, err := d.ProcessVoice(context.Background(), "guy", "hi")
			require.ErrorIs(t, err, ErrRejected)
			var se *SynthesisError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.want, se.Message)
			assert.Len(t, up.requests(), 1, "no audio fetch after a rejection")
		})
	}
}

func TestProcessVoice_BingInvalidJSON(t *testing.T) {
	up := newUpstream(t)
	up.handle("lazypy.ro/tts/request_tts.php", reply(http.StatusOK, "<html>"))
	d := newTestDispatcher(t, up)

	_, err := d.ProcessVoice(context.Background(), "aria", "hi")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "Bing proxy error: Invalid JSON response from lazypy")
}

func TestProcessVoice_TikTokAudioStatus(t *testing.T) {
	up := newUpstream(t)
	up.handle("lazypy.ro/tts/request_tts.php",
		reply(http.StatusOK, `{"success":true,"audio_url":"https://lazypy.ro/gone.mp3"}`))
	up.handle("lazypy.ro/gone.mp3", reply(http.StatusNotFound, ""))
	d := newTestDispatcher(t, up)

	_, err := d.ProcessVoice(context.Background(), "jessie", "hi")
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrHTTPStatus, se.Kind)
	assert.Equal(t, "audio", se.Leg)
	assert.Equal(t, "TikTok audio download error: 404", se.Message)
}

func TestProcessVoice_ReadloudScrape(t *testing.T) {
	up := newUpstream(t)
	up.handle("readloud.net/english/american/171-microsoft-mike.html",
		reply(http.StatusOK, `<div><audio src="/tmp/x9.mp3" controls></audio></div>`))
	up.handle("readloud.net/tmp/x9.mp3", reply(http.StatusOK, "readloud-mp3"))
	d := newTestDispatcher(t, up)

	res, err := d.ProcessVoice(context.Background(), "readloudmike", "hi")
	require.NoError(t, err)
	assert.Equal(t, "readloud-mp3", readAll(t, res))

	reqs := up.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "but1=hi&butS=0&butP=0&butPauses=0&butt0=Submit", string(reqs[0].Body))
	assert.Equal(t, "https://readloud.net/tmp/x9.mp3", reqs[1].URL.String())
}

func TestProcessVoice_ReadloudMissingMarker(t *testing.T) {
	up := newUpstream(t)
	up.handle("readloud.net/english/american/171-microsoft-mike.html",
		reply(http.StatusOK, `<html>nothing to see</html>`))
	d := newTestDispatcher(t, up)

	_, err := d.ProcessVoice(context.Background(), "readloudmike", "hi")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "Readloud error: MP3 link not found in HTML")
	assert.Len(t, up.requests(), 1)
}

func TestProcessVoice_WAVIsConverted(t *testing.T) {
	up := newUpstream(t)
	up.handle("www.tetyys.com/SAPI4/SAPI4", reply(http.StatusOK, "RIFF-raw-wav"))
	conv := &mockConverter{}
	conv.On("ConvertToMP3", FormatWAV).Return([]byte("ID3-converted"), nil).Once()
	d := newTestDispatcher(t, up, WithConverter(conv))

	res, err := d.ProcessVoice(context.Background(), "sam", "hello")
	require.NoError(t, err)
	assert.True(t, res.Buffered())
	assert.Equal(t, FormatMP3, res.Format)
	assert.Equal(t, "ID3-converted", readAll(t, res))
	assert.Equal(t, []byte("RIFF-raw-wav"), conv.input)
	conv.AssertExpectations(t)

	reqs := up.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "text=hello&voice=Sam", reqs[0].URL.RawQuery)
	assert.Equal(t, "audio/wav", reqs[0].Header.Get("Accept"))
}

func TestProcessVoice_ConversionFailed(t *testing.T) {
	up := newUpstream(t)
	up.handle("demo.cobaltspeech.com/voicegen/api/voicegen/v1/streaming-synthesize", reply(http.StatusOK, "RIFF"))
	conv := &mockConverter{}
	boom := errors.New("ffmpeg exited 1")
	conv.On("ConvertToMP3", FormatWAV).Return(nil, boom).Once()
	d := newTestDispatcher(t, up, WithConverter(conv))

	_, err := d.ProcessVoice(context.Background(), "vctk226", "hi")
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Cobalt conversion error")

	reqs := up.requests()
	require.Len(t, reqs, 1)
	q := reqs[0].URL.Query()
	assert.Equal(t, "en_US-vctk", q.Get("config.model_id"))
	assert.Equal(t, "p226", q.Get("config.speaker_id"))
}

func TestProcessVoice_NotImplemented(t *testing.T) {
	up := newUpstream(t)
	voices := catalog.New([]catalog.Voice{
		{ID: "ghost", Provider: "nonesuch", Arg: catalog.Args{"x"}, Language: "en"},
	}, nil)
	d := NewDispatcher(voices, WithHTTPClient(up.client()))

	_, err := d.ProcessVoice(context.Background(), "ghost", "hi")
	require.ErrorIs(t, err, ErrNotImplemented)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Not implemented", se.Message)
	assert.Equal(t, "nonesuch", se.Provider)
	assert.Empty(t, up.requests())
}

func TestProcessVoice_ShortArgs(t *testing.T) {
	up := newUpstream(t)
	voices := catalog.New([]catalog.Voice{
		{ID: "halfpaul", Provider: ProviderVocalware, Arg: catalog.Args{"2"}, Language: "en"},
	}, nil)
	d := NewDispatcher(voices, WithHTTPClient(up.client()))

	_, err := d.ProcessVoice(context.Background(), "halfpaul", "hi")
	require.ErrorIs(t, err, ErrUnsupportedVoice)
	assert.Empty(t, up.requests())
}

type stubAdapter struct {
	provider string
	fn       func() (*AudioResult, error)
}

func (a stubAdapter) Provider() string { return a.provider }

func (a stubAdapter) Synthesize(context.Context, Request) (*AudioResult, error) {
	return a.fn()
}

func TestProcessVoice_PanicBecomesInternal(t *testing.T) {
	up := newUpstream(t)
	d := newTestDispatcher(t, up, WithAdapter(stubAdapter{
		provider: ProviderAcapela,
		fn:       func() (*AudioResult, error) { panic("adapter exploded") },
	}))

	res, err := d.ProcessVoice(context.Background(), "ryan", "hi")
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "adapter exploded")
}

func TestProcessVoice_ForeignErrorBecomesInternal(t *testing.T) {
	up := newUpstream(t)
	foreign := errors.New("disk full")
	d := newTestDispatcher(t, up, WithAdapter(stubAdapter{
		provider: ProviderAcapela,
		fn:       func() (*AudioResult, error) { return nil, foreign },
	}))

	_, err := d.ProcessVoice(context.Background(), "ryan", "hi")
	require.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, foreign)
}

func TestProcessVoice_NilResultBecomesInternal(t *testing.T) {
	up := newUpstream(t)
	obs := &recordingObserver{}
	d := newTestDispatcher(t, up, WithObserver(obs), WithAdapter(stubAdapter{
		provider: ProviderAcapela,
		fn:       func() (*AudioResult, error) { return nil, nil },
	}))

	var (
		res *AudioResult
		err error
	)
	require.NotPanics(t, func() {
		res, err = d.ProcessVoice(context.Background(), "ryan", "hi")
	})
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, []string{"acapela:internal"}, obs.syntheses)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestProcessVoice_TransportError(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	d := NewDispatcher(cat, WithHTTPClient(client))

	_, err = d.ProcessVoice(context.Background(), "gtenglish", "hi")
	require.ErrorIs(t, err, ErrTransport)
	var se *SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ProviderGoogleTranslate, se.Provider)
	assert.Contains(t, se.Message, "Network error")
	assert.Equal(t, 1, strings.Count(err.Error(), "connection refused"))
}

func TestProcessVoice_LegTimeout(t *testing.T) {
	up := newUpstream(t)
	up.handle("translate.google.com/translate_tts", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	d := newTestDispatcher(t, up, WithLegTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := d.ProcessVoice(context.Background(), "gtenglish", "hi")
	require.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProcessVoice_SlowConsumerGetsWholeStream(t *testing.T) {
	audio := strings.Repeat("ID3", 64<<10)
	up := newUpstream(t)
	up.handle("translate.google.com/translate_tts", reply(http.StatusOK, audio))
	d := newTestDispatcher(t, up, WithLegTimeout(50*time.Millisecond))

	res, err := d.ProcessVoice(context.Background(), "gtenglish", "hi")
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, audio, readAll(t, res))
}

func TestProcessVoice_StalledStreamIsCut(t *testing.T) {
	up := newUpstream(t)
	up.handle("translate.google.com/translate_tts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ID3")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	d := newTestDispatcher(t, up, WithLegTimeout(50*time.Millisecond))

	res, err := d.ProcessVoice(context.Background(), "gtenglish", "hi")
	require.NoError(t, err)
	defer res.Close()

	start := time.Now()
	_, err = io.ReadAll(res.Reader())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProcessVoice_Observer(t *testing.T) {
	up := newUpstream(t)
	up.handle(acapelaRoute, reply(http.StatusOK, "ok"))
	obs := &recordingObserver{}
	d := newTestDispatcher(t, up, WithObserver(obs))

	res, err := d.ProcessVoice(context.Background(), "ryan", "hi")
	require.NoError(t, err)
	_ = res.Close()
	_, _ = d.ProcessVoice(context.Background(), "nobody", "hi")

	assert.Equal(t, []string{"acapela/synthesize"}, obs.legs)
	assert.Equal(t, []string{"acapela:ok", ":unsupported_voice"}, obs.syntheses)
}

func TestProcessVoice_ConcurrentCallsAreIsolated(t *testing.T) {
	up := newUpstream(t)
	up.handle("translate.google.com/translate_tts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("q")))
	})
	d := newTestDispatcher(t, up)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text := fmt.Sprintf("line %d", i)
			res, err := d.ProcessVoice(context.Background(), "gtenglish", text)
			if err != nil {
				errs <- err
				return
			}
			if got := readAll(t, res); got != text {
				errs <- fmt.Errorf("got %q, want %q", got, text)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestDispatcher_Providers(t *testing.T) {
	up := newUpstream(t)
	d := newTestDispatcher(t, up)
	assert.Len(t, d.Providers(), 18)
	assert.Contains(t, d.Providers(), ProviderWatson)
}
