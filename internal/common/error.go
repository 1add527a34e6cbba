// Package common defines shared constants and sentinel errors used across
// the efactura retrieval engine. Callers should use errors.Is to match these
// values; call sites wrap them with context via fmt.Errorf("...: %w").
package common

import "errors"

var (
	// Transport errors (connection failure, timeout).
	ErrNetwork = errors.New("network error")

	// Auth errors (refresh or code exchange rejected).
	ErrAuth          = errors.New("authorization rejected")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAuthExhausted = errors.New("authorization attempts exhausted")

	// ErrUpstreamTransient marks a 5xx from the authorization server during
	// code exchange. It is retried up to the attempt budget.
	ErrUpstreamTransient = errors.New("authorization server temporarily failed")

	// Data API errors.
	ErrUpstream          = errors.New("upstream error")
	ErrNotRetrievable    = errors.New("message not retrievable")
	ErrMalformedResponse = errors.New("malformed response")
	ErrQuotaExceeded     = errors.New("daily download quota exceeded")

	// Configuration errors.
	ErrMissingCredentials = errors.New("missing client credentials")
)
