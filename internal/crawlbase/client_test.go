package crawlbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL}, zerolog.Nop())
}

func mustParams(t *testing.T, args Args, creds Credentials, capability Capability) Parameters {
	t.Helper()
	p, err := BuildParameters(args, creds, capability)
	require.NoError(t, err)
	return p
}

func TestClientCrawl(t *testing.T) {
	creds := Credentials{Token: "tok", JSToken: "js"}

	t.Run("success with json body", func(t *testing.T) {
		var gotQuery atomic.Value
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery.Store(r.URL.Query())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"body":"<html>hi</html>","screenshot_url":"https://shots.example/abc.jpg","pc_status":200}`))
		}))
		defer ts.Close()

		c := newTestClient(ts.URL + "/")
		res := c.Crawl(context.Background(), mustParams(t, Args{URL: "https://example.com"}, creds, CapabilityPlain))

		require.True(t, res.OK)
		assert.Equal(t, "<html>hi</html>", res.Body)
		assert.Equal(t, "https://shots.example/abc.jpg", res.ScreenshotURL)
		assert.NotEmpty(t, res.Raw)

		q := gotQuery.Load().(url.Values)
		assert.Equal(t, "tok", q.Get("token"))
		assert.Equal(t, "https://example.com", q.Get("url"))
		assert.Equal(t, "json", q.Get("format"))
	})

	t.Run("error field in 2xx response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Token is invalid"}`))
		}))
		defer ts.Close()

		c := newTestClient(ts.URL + "/")
		res := c.Crawl(context.Background(), mustParams(t, Args{URL: "https://example.com"}, creds, CapabilityPlain))

		require.False(t, res.OK)
		assert.Equal(t, "upstream_error", res.ErrorCode)
		assert.Equal(t, "Token is invalid", res.ErrorMessage)
	})

	t.Run("non-2xx response with no retry", func(t *testing.T) {
		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"backend exploded"}`))
		}))
		defer ts.Close()

		c := newTestClient(ts.URL + "/")
		res := c.Crawl(context.Background(), mustParams(t, Args{URL: "https://example.com"}, creds, CapabilityPlain))

		require.False(t, res.OK)
		assert.Equal(t, "http_500", res.ErrorCode)
		assert.Equal(t, "backend exploded", res.ErrorMessage)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("non-2xx without json body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		c := newTestClient(ts.URL + "/")
		res := c.Crawl(context.Background(), mustParams(t, Args{URL: "https://example.com"}, creds, CapabilityPlain))

		require.False(t, res.OK)
		assert.Equal(t, "http_503", res.ErrorCode)
		assert.Contains(t, res.ErrorMessage, "503")
	})

	t.Run("unreachable endpoint becomes failure variant", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		ts.Close() // refuse connections

		c := newTestClient(ts.URL + "/")
		res := c.Crawl(context.Background(), mustParams(t, Args{URL: "https://example.com"}, creds, CapabilityPlain))

		require.False(t, res.OK)
		assert.Equal(t, "network_error", res.ErrorCode)
		assert.NotEmpty(t, res.ErrorMessage)
	})

	t.Run("plain html pass-through body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>raw</html>"))
		}))
		defer ts.Close()

		c := newTestClient(ts.URL + "/")
		res := c.Crawl(context.Background(), mustParams(t, Args{URL: "https://example.com"}, creds, CapabilityPlain))

		require.True(t, res.OK)
		assert.Equal(t, "<html>raw</html>", res.Body)
		assert.Empty(t, res.ScreenshotURL)
	})
}
