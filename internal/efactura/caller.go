package efactura

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/dmitrijs2005/efactura/internal/models"
	"github.com/dmitrijs2005/efactura/internal/netx"
)

const (
	ProdBaseURL    = "https://api.anaf.ro/prod/FCTEL/rest"
	TestEnvBaseURL = "https://api.anaf.ro/test/FCTEL/rest"
)

const maxBody = 64 << 20

// BaseURL maps an environment name to the data API root.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "prod":
		return ProdBaseURL, nil
	case "test":
		return TestEnvBaseURL, nil
	default:
		return "", fmt.Errorf("unknown environment %q (want prod or test)", env)
	}
}

// Refresher renews a rejected access token.
type Refresher interface {
	Refresh(ctx context.Context, tok *models.Token) (*models.Token, error)
}

// Caller sends authorized requests to the data API. Lister, Downloader and
// Converter share one Caller.
type Caller struct {
	http   netx.Doer
	base   string
	tokens Refresher
	log    logging.Logger
}

func NewCaller(http netx.Doer, base string, tokens Refresher, log logging.Logger) *Caller {
	return &Caller{
		http:   http,
		base:   strings.TrimRight(base, "/"),
		tokens: tokens,
		log:    log,
	}
}

func (c *Caller) endpoint(path string, q url.Values) string {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

type buildFunc func(ctx context.Context) (*http.Request, error)

// send performs the request built by build. A 401 triggers one refresh and
// one retry; a second 401 wraps common.ErrUnauthorized. Any other response is
// returned for the caller to interpret.
func (c *Caller) send(ctx context.Context, tok *models.Token, build buildFunc) (*http.Response, *models.Token, error) {
	resp, err := c.do(ctx, tok, build)
	if err != nil {
		return nil, tok, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, tok, nil
	}
	discard(resp)

	c.log.Info(ctx, "access token rejected, refreshing")
	next, err := c.tokens.Refresh(ctx, tok)
	if err != nil {
		return nil, tok, fmt.Errorf("%w: refresh after 401: %w", common.ErrUnauthorized, err)
	}

	resp, err = c.do(ctx, next, build)
	if err != nil {
		return nil, next, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, next, fmt.Errorf("%w: token rejected again after refresh", common.ErrUnauthorized)
	}
	return resp, next, nil
}

func (c *Caller) do(ctx context.Context, tok *models.Token, build buildFunc) (*http.Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	return c.http.Do(ctx, req)
}

func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", common.ErrNetwork, err)
	}
	return data, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}

func statusError(op string, code int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 300 {
		snippet = snippet[:300] + "..."
	}
	return fmt.Errorf("%w: %s returned %d: %s", common.ErrUpstream, op, code, snippet)
}

func isSuccess(code int) bool { return code >= 200 && code <= 299 }
