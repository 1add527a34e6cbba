package netx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	t.Run("returns non-2xx intact", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "boom")
		}))
		defer ts.Close()

		c := NewClient(NewRateLimiter(0), time.Second)
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)

		resp, err := c.Do(context.Background(), req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "boom", string(body))
	})

	t.Run("transport failure wraps ErrNetwork", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		c := NewClient(NewRateLimiter(0), time.Second)
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)

		_, err = c.Do(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrNetwork))
	})

	t.Run("timeout wraps ErrNetwork", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		c := NewClient(NewRateLimiter(0), 30*time.Millisecond)
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)

		_, err = c.Do(context.Background(), req)
		require.ErrorIs(t, err, common.ErrNetwork)
	})

	t.Run("every request waits on the shared limiter", func(t *testing.T) {
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer ts.Close()

		limiter := NewRateLimiter(40 * time.Millisecond)
		oauth := NewClient(limiter, time.Second)
		api := NewClient(limiter, time.Second)

		start := time.Now()
		for _, c := range []*Client{oauth, api, oauth} {
			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)
			resp, err := c.Do(context.Background(), req)
			require.NoError(t, err)
			resp.Body.Close()
		}

		assert.EqualValues(t, 3, hits.Load())
		assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
	})

	t.Run("cancelled context stops before sending", func(t *testing.T) {
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer ts.Close()

		limiter := NewRateLimiter(time.Hour)
		require.NoError(t, limiter.Acquire(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)
		_, err = NewClient(limiter, time.Second).Do(ctx, req)
		require.Error(t, err)
		assert.Zero(t, hits.Load())
	})
}
