package tts

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GTAManRCRX/wrapper-offline-fixed/catalog"
)

// seenRequest is an outbound request as the adapter built it, before it was
// redirected to the test server.
type seenRequest struct {
	Method string
	URL    *url.URL
	Host   string
	Header http.Header
	Body   []byte
}

// upstream fakes every provider host. Requests are routed by original host
// and path to the registered handlers.
type upstream struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	seen   []seenRequest
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{t: t, routes: map[string]http.HandlerFunc{}}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		h, ok := u.routes[r.Host+r.URL.Path]
		u.mu.Unlock()
		if !ok {
			http.Error(w, "no route for "+r.Host+r.URL.Path, http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

// handle registers h for a host and path, e.g. "lazypy.ro/tts/request_tts.php".
func (u *upstream) handle(hostPath string, h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[hostPath] = h
}

func (u *upstream) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	orig := *req.URL
	u.mu.Lock()
	u.seen = append(u.seen, seenRequest{
		Method: req.Method,
		URL:    &orig,
		Host:   host,
		Header: req.Header.Clone(),
		Body:   body,
	})
	u.mu.Unlock()

	out := req.Clone(req.Context())
	out.URL.Scheme = "http"
	out.URL.Host = u.srv.Listener.Addr().String()
	out.Host = host
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	return http.DefaultTransport.RoundTrip(out)
}

func (u *upstream) requests() []seenRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]seenRequest(nil), u.seen...)
}

func (u *upstream) client() *http.Client {
	return &http.Client{Transport: u}
}

// reply writes a fixed status and body.
func reply(status int, body string, header ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i+1 < len(header); i += 2 {
			w.Header().Add(header[i], header[i+1])
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

type mockConverter struct {
	mock.Mock
	input []byte
}

func (m *mockConverter) ConvertToMP3(_ context.Context, r io.Reader, format string) ([]byte, error) {
	m.input, _ = io.ReadAll(r)
	ret := m.Called(format)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

type recordingObserver struct {
	mu        sync.Mutex
	legs      []string
	syntheses []string
}

func (o *recordingObserver) LegCompleted(provider, leg string, _ int, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.legs = append(o.legs, provider+"/"+leg)
}

func (o *recordingObserver) SynthesisCompleted(provider string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.syntheses = append(o.syntheses, provider+":"+KindName(err))
}

// newTestDispatcher serves the embedded catalog through up.
func newTestDispatcher(t *testing.T, up *upstream, opts ...Option) *Dispatcher {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	base := []Option{WithHTTPClient(up.client()), WithConverter(&mockConverter{})}
	return NewDispatcher(cat, append(base, opts...)...)
}

// readAll drains and closes a result.
func readAll(t *testing.T, res *AudioResult) string {
	t.Helper()
	rc := res.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}
