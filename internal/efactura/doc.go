// Package efactura is the client side of the ANAF e-Factura data API:
// listing messages for a taxpayer, downloading a message payload and
// converting an invoice XML to PDF.
//
// Every call carries the bearer token it was given. On a 401 the token is
// refreshed exactly once and the call retried once; the possibly refreshed
// token is returned to the caller, which must use it from then on.
package efactura
