package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/dmitrijs2005/efactura/internal/models"
)

// record is the persisted form of a token; expires_at is unix seconds.
type record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Store loads, saves, validates and renews the process-wide token.
// It is not safe for concurrent refreshes of the same token.
type Store struct {
	repo    Repository
	granter Granter
	log     logging.Logger
	now     func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(repo Repository, granter Granter, log logging.Logger, opts ...Option) *Store {
	s := &Store{repo: repo, granter: granter, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the stored token, or nil when none is stored or the record
// cannot be decoded.
func (s *Store) Load(ctx context.Context) (*models.Token, error) {
	data, err := s.repo.Read(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.AccessToken == "" {
		s.log.Warn(ctx, "ignoring malformed token record", "error", err)
		return nil, nil
	}

	return &models.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		ExpiresAt:    time.Unix(rec.ExpiresAt, 0),
	}, nil
}

// Save persists tok unless the stored record is already byte-identical.
func (s *Store) Save(ctx context.Context, tok *models.Token) error {
	data, err := encode(tok)
	if err != nil {
		return err
	}

	current, err := s.repo.Read(ctx)
	if err == nil && bytes.Equal(current, data) {
		s.log.Debug(ctx, "token record unchanged")
		return nil
	}

	return s.repo.Write(ctx, data)
}

func encode(tok *models.Token) ([]byte, error) {
	if tok == nil {
		return nil, errors.New("nil token")
	}
	data, err := json.MarshalIndent(record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.ExpiresAt.Unix(),
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (s *Store) IsValid(tok *models.Token) bool {
	return tok.ValidAt(s.now())
}

// Refresh runs the refresh-token grant. Any rejection wraps common.ErrAuth.
// The previous refresh token is kept when the response carries none.
func (s *Store) Refresh(ctx context.Context, tok *models.Token) (*models.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", common.ErrAuth)
	}

	gr, err := s.granter.Grant(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tok.RefreshToken},
	})
	if err != nil {
		var ge *GrantError
		if errors.As(err, &ge) {
			return nil, fmt.Errorf("%w: refresh: %w", common.ErrAuth, err)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	next := s.fromGrant(gr)
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}

	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "access token refreshed", "expires_at", next.ExpiresAt)
	s.logClaims(ctx, next)
	return next, nil
}

// Issue exchanges an authorization code. A 5xx from the server wraps
// common.ErrUpstreamTransient; other rejections wrap common.ErrAuth.
func (s *Store) Issue(ctx context.Context, code, redirectURI string) (*models.Token, error) {
	gr, err := s.granter.Grant(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	})
	if err != nil {
		var ge *GrantError
		if errors.As(err, &ge) {
			if ge.StatusCode >= http.StatusInternalServerError {
				return nil, fmt.Errorf("%w: %w", common.ErrUpstreamTransient, err)
			}
			return nil, fmt.Errorf("%w: code exchange: %w", common.ErrAuth, err)
		}
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	tok := s.fromGrant(gr)
	if err := s.Save(ctx, tok); err != nil {
		return nil, err
	}
	s.logClaims(ctx, tok)
	return tok, nil
}

func (s *Store) fromGrant(gr *GrantResponse) *models.Token {
	lifetime, _ := gr.ExpiresIn.Int64()
	return &models.Token{
		AccessToken:  gr.AccessToken,
		RefreshToken: gr.RefreshToken,
		TokenType:    gr.TokenType,
		ExpiresAt:    models.ComputeExpiry(s.now(), lifetime),
	}
}

func (s *Store) logClaims(ctx context.Context, tok *models.Token) {
	claims, err := Claims(tok.AccessToken)
	if err != nil {
		s.log.Debug(ctx, "access token is not a decodable JWT", "error", err)
		return
	}
	s.log.Debug(ctx, "access token claims", "claims", claims)
}
