package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/netx"
)

const maxGrantBody = 1 << 20

// GrantResponse is the token endpoint's success payload.
type GrantResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    json.Number `json:"expires_in"`
}

// GrantError is returned for a non-2xx answer from the token endpoint.
type GrantError struct {
	StatusCode int
	Body       string
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Granter performs one token-endpoint grant.
type Granter interface {
	Grant(ctx context.Context, form url.Values) (*GrantResponse, error)
}

// Endpoint is the HTTP Granter for the OAuth token URL.
type Endpoint struct {
	client       netx.Doer
	url          string
	clientID     string
	clientSecret string
}

func NewEndpoint(client netx.Doer, tokenURL, clientID, clientSecret string) *Endpoint {
	return &Endpoint{
		client:       client,
		url:          tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Grant posts form (plus token_content_type) and decodes the response.
// Non-2xx answers yield a *GrantError.
func (e *Endpoint) Grant(ctx context.Context, form url.Values) (*GrantResponse, error) {
	body := url.Values{}
	for k, v := range form {
		body[k] = v
	}
	body.Set("token_content_type", common.TokenContentType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, strings.NewReader(body.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(e.clientID, e.clientSecret)

	resp, err := e.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGrantBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read token response: %w", common.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GrantError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var gr GrantResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, fmt.Errorf("%w: token response: %w", common.ErrMalformedResponse, err)
	}
	if gr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", common.ErrMalformedResponse)
	}
	return &gr, nil
}
