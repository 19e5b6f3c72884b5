package replay_test

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/replay"
	"github.com/marcelsud/hookwatch/replay/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers every request with a fixed response and keeps what it was sent
type fakeTransport struct {
	status int
	body   string

	calls      int
	got        *http.Request
	gotBody    string
	sentBody   bool
	ctxErrAtDo error
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	f.got = req
	f.ctxErrAtDo = req.Context().Err()
	if req.Body != nil && req.Body != http.NoBody {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		f.sentBody = true
		f.gotBody = string(data)
	}
	return &http.Response{
		StatusCode: f.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func capturedEvent(method string, body *string) event.Event {
	return event.Event{
		ID:     "evt-1",
		Source: "github",
		Method: method,
		Path:   "/ingest/github",
		Headers: map[string]string{
			"host":           "x",
			"content-length": "5",
			"x-foo":          "bar",
			"content-type":   "application/json",
		},
		Body: body,
	}
}

func strPtr(s string) *string { return &s }

func TestBuildHeaders(t *testing.T) {
	ev := event.Event{Headers: map[string]string{"host": "x", "content-length": "5", "x-foo": "bar"}}

	t.Run("originals minus host and content-length, overridden case-insensitively", func(t *testing.T) {
		got := replay.BuildHeaders(ev, true, map[string]string{"X-Foo": "baz"})

		assert.Equal(t, map[string]string{"x-foo": "baz"}, got)
	})

	t.Run("originals excluded unless asked for", func(t *testing.T) {
		got := replay.BuildHeaders(ev, false, map[string]string{"Authorization": "Bearer t"})

		assert.Equal(t, map[string]string{"authorization": "Bearer t"}, got)
	})

	t.Run("nothing requested gives an empty set", func(t *testing.T) {
		assert.Empty(t, replay.BuildHeaders(ev, false, nil))
	})
}

func TestOutboundBody(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   *string
		want   *string
	}{
		{"GET never sends a body", http.MethodGet, strPtr("abc"), nil},
		{"HEAD never sends a body", http.MethodHead, strPtr("abc"), nil},
		{"POST forwards the body", http.MethodPost, strPtr("abc"), strPtr("abc")},
		{"PUT without body", http.MethodPut, nil, nil},
		{"DELETE with body", http.MethodDelete, strPtr(""), strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := replay.OutboundBody(event.Event{Method: tt.method, Body: tt.body})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_Replay(t *testing.T) {
	ctx := context.Background()

	t.Run("success - POST forwards body and merged headers", func(t *testing.T) {
		transport := &fakeTransport{status: http.StatusAccepted, body: `{"ok":true}`}
		engine := replay.NewEngine(transport, time.Second)

		result, err := engine.Replay(ctx, capturedEvent(http.MethodPost, strPtr("abc")), replay.Request{
			TargetURL:              "https://example.test/webhook",
			IncludeOriginalHeaders: true,
			AdditionalHeaders:      map[string]string{"X-Foo": "baz"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, transport.calls)
		assert.Equal(t, http.MethodPost, transport.got.Method)
		assert.Equal(t, "https://example.test/webhook", transport.got.URL.String())
		assert.Equal(t, "abc", transport.gotBody)
		assert.Equal(t, "baz", transport.got.Header.Get("X-Foo"))
		assert.Equal(t, "application/json", transport.got.Header.Get("Content-Type"))
		assert.Empty(t, transport.got.Header.Get("Content-Length"))
		assert.Equal(t, "example.test", transport.got.Host)

		assert.Equal(t, http.StatusAccepted, result.StatusCode)
		assert.True(t, result.OK)
		assert.Equal(t, `{"ok":true}`, result.Body)
		assert.Equal(t, "https://example.test/webhook", result.TargetURL)
		assert.GreaterOrEqual(t, result.DurationMs, int64(0))
		assert.WithinDuration(t, time.Now(), result.ReplayedAt, 5*time.Second)
	})

	t.Run("success - GET dispatches without a body", func(t *testing.T) {
		transport := &fakeTransport{status: http.StatusOK}
		engine := replay.NewEngine(transport, time.Second)

		_, err := engine.Replay(ctx, capturedEvent(http.MethodGet, strPtr("ignored")), replay.Request{
			TargetURL: "https://example.test/webhook",
		})

		require.NoError(t, err)
		assert.False(t, transport.sentBody)
		assert.Empty(t, transport.got.Header, "no headers were requested")
	})

	t.Run("success - non-2xx is an outcome, not an error", func(t *testing.T) {
		transport := &fakeTransport{status: http.StatusInternalServerError, body: "boom"}
		engine := replay.NewEngine(transport, time.Second)

		result, err := engine.Replay(ctx, capturedEvent(http.MethodPost, nil), replay.Request{
			TargetURL: "https://example.test/webhook",
		})

		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, 500, result.StatusCode)
		assert.Equal(t, "boom", result.Body)
	})

	t.Run("success - host override sets the request host", func(t *testing.T) {
		transport := &fakeTransport{status: http.StatusOK}
		engine := replay.NewEngine(transport, time.Second)

		_, err := engine.Replay(ctx, capturedEvent(http.MethodPost, nil), replay.Request{
			TargetURL:         "https://example.test/webhook",
			AdditionalHeaders: map[string]string{"Host": "tenant.example.test"},
		})

		require.NoError(t, err)
		assert.Equal(t, "tenant.example.test", transport.got.Host)
	})

	t.Run("success - caller cancellation does not reach the dispatch", func(t *testing.T) {
		transport := &fakeTransport{status: http.StatusOK}
		engine := replay.NewEngine(transport, time.Second)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := engine.Replay(cancelled, capturedEvent(http.MethodPost, nil), replay.Request{
			TargetURL: "https://example.test/webhook",
		})

		require.NoError(t, err)
		assert.NoError(t, transport.ctxErrAtDo)
	})

	t.Run("success - gzip response is decoded when accept-encoding is forwarded", func(t *testing.T) {
		var gotEncoding string
		target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotEncoding = r.Header.Get("Accept-Encoding")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			_, _ = zw.Write([]byte(`{"received":true}`))
			_ = zw.Close()
		}))
		defer target.Close()

		ev := capturedEvent(http.MethodPost, strPtr(`{"a":1}`))
		ev.Headers["accept-encoding"] = "gzip"
		engine := replay.NewEngine(target.Client(), time.Second)

		result, err := engine.Replay(ctx, ev, replay.Request{
			TargetURL:              target.URL,
			IncludeOriginalHeaders: true,
		})

		require.NoError(t, err)
		assert.Equal(t, "gzip", gotEncoding)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, `{"received":true}`, result.Body)
	})

	t.Run("error - corrupt gzip response is a transport error", func(t *testing.T) {
		target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write([]byte("not gzip"))
		}))
		defer target.Close()

		ev := capturedEvent(http.MethodPost, strPtr("abc"))
		ev.Headers["accept-encoding"] = "gzip"
		engine := replay.NewEngine(target.Client(), time.Second)

		_, err := engine.Replay(ctx, ev, replay.Request{
			TargetURL:              target.URL,
			IncludeOriginalHeaders: true,
		})

		var terr *replay.TransportError
		require.ErrorAs(t, err, &terr)
		assert.Contains(t, err.Error(), "reading response body")
	})

	t.Run("error - missing target url", func(t *testing.T) {
		transport := mocks.NewTransport(t)
		engine := replay.NewEngine(transport, time.Second)

		_, err := engine.Replay(ctx, capturedEvent(http.MethodPost, nil), replay.Request{})

		var verr *replay.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "targetUrl is required", verr.Error())
		transport.AssertNotCalled(t, "Do", mock.Anything)
	})

	t.Run("error - relative target url", func(t *testing.T) {
		transport := mocks.NewTransport(t)
		engine := replay.NewEngine(transport, time.Second)

		_, err := engine.Replay(ctx, capturedEvent(http.MethodPost, nil), replay.Request{TargetURL: "/webhook"})

		var verr *replay.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "targetUrl", verr.Field)
	})

	t.Run("error - network failure is a transport error", func(t *testing.T) {
		transport := mocks.NewTransport(t)
		engine := replay.NewEngine(transport, time.Second)
		transport.On("Do", mock.AnythingOfType("*http.Request")).Return(nil, errors.New("dial tcp: no such host"))

		_, err := engine.Replay(ctx, capturedEvent(http.MethodPost, nil), replay.Request{
			TargetURL: "https://unreachable.test/webhook",
		})

		var terr *replay.TransportError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "https://unreachable.test/webhook", terr.URL)
		assert.False(t, terr.Timeout())
	})

	t.Run("error - unreadable response body is a transport error", func(t *testing.T) {
		transport := mocks.NewTransport(t)
		engine := replay.NewEngine(transport, time.Second)
		transport.On("Do", mock.Anything).Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(failingReader{}),
		}, nil)

		_, err := engine.Replay(ctx, capturedEvent(http.MethodPost, nil), replay.Request{
			TargetURL: "https://example.test/webhook",
		})

		var terr *replay.TransportError
		require.ErrorAs(t, err, &terr)
		assert.Contains(t, err.Error(), "reading response body")
	})

	t.Run("error - slow target times out", func(t *testing.T) {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer slow.Close()

		engine := replay.NewEngine(slow.Client(), 50*time.Millisecond)

		_, err := engine.Replay(ctx, capturedEvent(http.MethodPost, strPtr("abc")), replay.Request{
			TargetURL: slow.URL,
		})

		var terr *replay.TransportError
		require.ErrorAs(t, err, &terr)
		assert.True(t, terr.Timeout())
	})
}

func TestEngine_Defaults(t *testing.T) {
	engine := replay.NewEngine(nil, 0)

	assert.Equal(t, replay.DefaultTimeout, engine.Timeout())
}
