// Package auth drives the interactive OAuth authorization-code flow against
// ANAF: reusing or refreshing a stored token, otherwise opening the
// authorization page, capturing the redirect on a local listener and
// exchanging the code, with a bounded number of full attempts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/dmitrijs2005/efactura/internal/models"
)

const (
	DefaultMaxAttempts  = 3
	DefaultRedirectWait = 90 * time.Second

	stopTimeout = 5 * time.Second
)

// Issuer exchanges an authorization code for a token.
type Issuer interface {
	Issue(ctx context.Context, code, redirectURI string) (*models.Token, error)
}

// TokenStore is the part of tokens.Store the flow needs.
type TokenStore interface {
	Issuer
	Load(ctx context.Context) (*models.Token, error)
	IsValid(tok *models.Token) bool
	Refresh(ctx context.Context, tok *models.Token) (*models.Token, error)
}

// CodeSource delivers authorization codes captured from the redirect.
type CodeSource interface {
	Start(ctx context.Context) error
	Codes() <-chan string
	Stop(ctx context.Context) error
}

// Opener shows the authorization page to the user.
type Opener interface {
	Open(url string) error
}

// Prompter asks the user for a value on the console.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}

// Connector makes the public redirect host reach the local listener.
type Connector interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Config struct {
	AuthURL      string
	ClientID     string
	RedirectURI  string
	ForceLogin   bool
	RedirectWait time.Duration
	MaxAttempts  int
}

// Flow is the authorization state machine. A Flow is used once per process.
type Flow struct {
	cfg       Config
	store     TokenStore
	codes     CodeSource
	connector Connector
	opener    Opener
	prompter  Prompter
	log       logging.Logger

	state State
	trace []State
}

func NewFlow(cfg Config, store TokenStore, codes CodeSource, connector Connector, opener Opener, prompter Prompter, log logging.Logger) *Flow {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RedirectWait <= 0 {
		cfg.RedirectWait = DefaultRedirectWait
	}
	if connector == nil {
		connector = NopConnector{}
	}
	return &Flow{
		cfg:       cfg,
		store:     store,
		codes:     codes,
		connector: connector,
		opener:    opener,
		prompter:  prompter,
		log:       log,
	}
}

func (f *Flow) State() State { return f.state }

// Transitions returns every state entered so far, in order.
func (f *Flow) Transitions() []State {
	return append([]State(nil), f.trace...)
}

func (f *Flow) enter(ctx context.Context, s State) {
	f.log.Debug(ctx, "auth state", "from", f.state, "to", s)
	f.state = s
	f.trace = append(f.trace, s)
}

// AuthorizationURL is the page the user has to approve.
func (f *Flow) AuthorizationURL() string {
	q := url.Values{
		"response_type":      {"code"},
		"client_id":          {f.cfg.ClientID},
		"redirect_uri":       {f.cfg.RedirectURI},
		"token_content_type": {common.TokenContentType},
	}
	if f.cfg.ForceLogin {
		q.Set("prompt", "login")
	}
	return f.cfg.AuthURL + "?" + q.Encode()
}

// Authenticate returns a usable token. A valid stored token is returned as-is
// and an expired one is refreshed; when neither works (or ForceLogin is set)
// the interactive flow runs. After the attempt budget is spent the error
// wraps common.ErrAuthExhausted.
func (f *Flow) Authenticate(ctx context.Context) (*models.Token, error) {
	f.enter(ctx, StateNoToken)

	if !f.cfg.ForceLogin {
		tok, err := f.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if f.store.IsValid(tok) {
			f.enter(ctx, StateAuthenticated)
			return tok, nil
		}
		if tok != nil && tok.RefreshToken != "" {
			next, err := f.store.Refresh(ctx, tok)
			if err == nil {
				f.enter(ctx, StateAuthenticated)
				return next, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Warn(ctx, "token refresh failed, starting interactive login", "error", err)
		}
	}

	return f.interactive(ctx)
}

func (f *Flow) interactive(ctx context.Context) (*models.Token, error) {
	stopCtx := context.WithoutCancel(ctx)

	if err := f.connector.Start(ctx); err != nil {
		f.stop(stopCtx, "connector", f.connector.Stop)
		return nil, fmt.Errorf("start connector: %w", err)
	}
	defer f.stop(stopCtx, "connector", f.connector.Stop)

	if err := f.codes.Start(ctx); err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}
	defer f.stop(stopCtx, "callback listener", f.codes.Stop)

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		f.enter(ctx, StateAwaitingRedirect)
		code, err := f.awaitCode(ctx, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			f.log.Warn(ctx, "no authorization code", "attempt", attempt, "error", err)
			continue
		}

		f.enter(ctx, StateExchangingCode)
		tok, err := f.store.Issue(ctx, code, f.cfg.RedirectURI)
		if err == nil {
			f.enter(ctx, StateAuthenticated)
			f.log.Info(ctx, "authorization complete", "expires_at", tok.ExpiresAt)
			return tok, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if errors.Is(err, common.ErrUpstreamTransient) {
			f.log.Warn(ctx, "authorization server failed, trying again", "attempt", attempt, "error", err)
		} else {
			f.log.Error(ctx, "code exchange rejected", "attempt", attempt, "error", err)
		}
	}

	f.enter(ctx, StateExhausted)
	return nil, fmt.Errorf("%w after %d attempts: %w", common.ErrAuthExhausted, f.cfg.MaxAttempts, lastErr)
}

func (f *Flow) awaitCode(ctx context.Context, attempt int) (string, error) {
	drain(f.codes.Codes())

	authURL := f.AuthorizationURL()
	if err := f.opener.Open(authURL); err != nil {
		f.log.Warn(ctx, "could not open a browser, open the URL manually", "url", authURL, "error", err)
	}
	f.log.Info(ctx, "waiting for authorization redirect", "attempt", attempt, "timeout", f.cfg.RedirectWait, "url", authURL)

	timer := time.NewTimer(f.cfg.RedirectWait)
	defer timer.Stop()

	select {
	case code := <-f.codes.Codes():
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	input, err := f.prompter.Prompt(ctx, "No redirect detected. Paste the code= value (or the whole redirect URL) here:")
	if err != nil {
		return "", fmt.Errorf("manual code entry: %w", err)
	}
	code := CodeFromInput(input)
	if code == "" {
		return "", errors.New("no authorization code entered")
	}
	return code, nil
}

// CodeFromInput accepts either a bare code or a pasted redirect URL.
func CodeFromInput(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "code=") {
		return input
	}
	raw := input
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return input
	}
	return strings.TrimSpace(q.Get("code"))
}

func (f *Flow) stop(ctx context.Context, what string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		f.log.Warn(ctx, "stop "+what, "error", err)
	}
}

func drain(ch <-chan string) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
