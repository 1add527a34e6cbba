// Package tokens owns the OAuth token lifecycle: persisting the single token
// record, checking its validity and obtaining new tokens from the token
// endpoint through the authorization-code and refresh-token grants.
//
// The token endpoint is called with HTTP basic authentication (client id and
// secret) and a form body that always asks for JWT access tokens. Expiry is
// computed locally from the declared lifetime minus a safety margin and is
// never taken verbatim from the server.
package tokens
