package efactura

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/dmitrijs2005/efactura/internal/models"
	"github.com/dmitrijs2005/efactura/internal/netx"
)

// fakeRefresher hands out "fresh" tokens and counts calls.
type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeRefresher) Refresh(ctx context.Context, tok *models.Token) (*models.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, common.ErrAuth
	}
	return &models.Token{AccessToken: "fresh", RefreshToken: tok.RefreshToken}, nil
}

func (f *fakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// hitCounter records requests per path.
type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
	auth []string
}

func (h *hitCounter) record(r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hits == nil {
		h.hits = map[string]int{}
	}
	h.hits[r.URL.Path]++
	h.auth = append(h.auth, r.Header.Get("Authorization"))
}

func (h *hitCounter) count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func newCaller(t *testing.T, h http.Handler, r Refresher) *Caller {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	client := netx.NewClient(netx.NewRateLimiter(0), 5*time.Second)
	return NewCaller(client, ts.URL, r, logging.NewDiscardLogger())
}

func staleToken() *models.Token {
	return &models.Token{AccessToken: "stale", RefreshToken: "R"}
}
