// Package models defines the data shared by the retrieval engine: the OAuth
// token pair and the loosely structured e-Factura message records.
package models

import "time"

// ExpirySafetyMargin is subtracted from the declared token lifetime so a token
// is treated as expired slightly before the server would reject it.
const ExpirySafetyMargin = 60 * time.Second

// DefaultTokenLifetime applies when a token response omits expires_in.
const DefaultTokenLifetime = 3600 * time.Second

// Token is the OAuth token pair used for every data API call.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string

	// ExpiresAt is always computed locally from the issuance time and the
	// declared lifetime minus ExpirySafetyMargin.
	ExpiresAt time.Time
}

// ComputeExpiry returns the absolute expiry for a token issued at issuedAt
// with a declared lifetime of lifetimeSeconds (non-positive means default).
func ComputeExpiry(issuedAt time.Time, lifetimeSeconds int64) time.Time {
	lifetime := time.Duration(lifetimeSeconds) * time.Second
	if lifetimeSeconds <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return issuedAt.Add(lifetime - ExpirySafetyMargin).Truncate(time.Second)
}

// ValidAt reports whether the token can still be used at now.
func (t *Token) ValidAt(now time.Time) bool {
	if t == nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}
