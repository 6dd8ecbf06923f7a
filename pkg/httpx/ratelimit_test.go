package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rollcallhq/presence/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	t.Parallel()

	t.Run("uses first X-Forwarded-For entry", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(r))
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", "172.16.0.9")
		require.Equal(t, "172.16.0.9", httpx.IPKeyExtractor(r))
	})

	t.Run("falls back to RemoteAddr host", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.7:51442"
		require.Equal(t, "203.0.113.7", httpx.IPKeyExtractor(r))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	t.Parallel()

	extractor := httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.QueryKeyExtractor("sid"),
	)

	r := httptest.NewRequest(http.MethodGet, "/?sid=lecture-42", nil)
	r.RemoteAddr = "203.0.113.7:51442"
	require.Equal(t, "203.0.113.7:lecture-42", extractor(r))
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows requests under limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{
			RequestsPerWindow: 5,
			Window:            time.Second,
			Burst:             5,
		}
		limited := httpx.Chain(handler, httpx.RateLimitByIP(config))

		for range 5 {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "203.0.113.1:1000"
			limited.ServeHTTP(rec, r)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("rejects requests over limit with Retry-After", func(t *testing.T) {
		config := httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}
		limited := httpx.Chain(handler, httpx.RateLimitByIP(config))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.2:1000"

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, r)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		config := httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}
		limited := httpx.Chain(handler, httpx.RateLimitByIP(config))

		a := httptest.NewRequest(http.MethodGet, "/", nil)
		a.RemoteAddr = "203.0.113.3:1000"
		b := httptest.NewRequest(http.MethodGet, "/", nil)
		b.RemoteAddr = "203.0.113.4:1000"

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, a)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, b)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
