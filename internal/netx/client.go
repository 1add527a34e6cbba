package netx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
)

// DefaultTimeout bounds every outbound request end to end.
const DefaultTimeout = 30 * time.Second

// Doer is what the API components depend on; *Client implements it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client performs requests through a shared RateLimiter. Non-2xx responses
// are returned as-is; only transport failures become errors.
type Client struct {
	limiter *RateLimiter
	http    *http.Client
}

func NewClient(limiter *RateLimiter, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		limiter: limiter,
		http:    &http.Client{Timeout: timeout},
	}
}

// Do waits for the limiter and sends req bound to ctx. Transport failures and
// timeouts wrap common.ErrNetwork.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", common.ErrNetwork, req.Method, req.URL.Redacted(), err)
	}
	return resp, nil
}
