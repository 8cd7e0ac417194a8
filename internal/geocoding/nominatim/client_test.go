package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, "ops@medguide.test",
		WithRateLimit(1000),
		WithRetryDelay(time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestClient_Search(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "pharmacy", q.Get("q"))
			assert.Equal(t, "jsonv2", q.Get("format"))
			assert.Equal(t, "10", q.Get("limit"))
			assert.Equal(t, "1", q.Get("bounded"))
			assert.NotEmpty(t, q.Get("viewbox"))
			assert.Equal(t, "MedGuide/1.0 (ops@medguide.test)", r.Header.Get("User-Agent"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"place_id":1,"lat":"10.3790","lon":"123.6420","name":"Mercury Drug","display_name":"Mercury Drug, Toledo","category":"amenity","type":"pharmacy","osm_type":"node","osm_id":42}]`))
		}))
		defer server.Close()

		results, err := newTestClient(server.URL).Search(context.Background(), "pharmacy", SearchOptions{
			Limit:   10,
			Viewbox: &Viewbox{MinLat: 10.3, MinLon: 123.6, MaxLat: 10.4, MaxLon: 123.7},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Mercury Drug", results[0].Name)
		assert.Equal(t, "10.3790", results[0].Lat)
		assert.Equal(t, int64(42), results[0].OSMID)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := newTestClient("http://unused").Search(context.Background(), "  ", SearchOptions{})
		assert.Error(t, err)
	})

	t.Run("limit clamped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		results, err := newTestClient(server.URL).Search(context.Background(), "pharmacy", SearchOptions{Limit: 500})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`[{"place_id":2,"lat":"1","lon":"2"}]`))
		}))
		defer server.Close()

		results, err := newTestClient(server.URL).Search(context.Background(), "pharmacy", SearchOptions{})
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Search(context.Background(), "pharmacy", SearchOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, int32(MaxRetries+1), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Search(context.Background(), "pharmacy", SearchOptions{})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient("http://127.0.0.1:1").Search(ctx, "pharmacy", SearchOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
