// Package api implements the authenticated Kalshi REST client used by the
// fetch pipeline.
//
// Every request carries the KALSHI-ACCESS-* headers produced by the auth
// package. Failures are classified into a small sentinel taxonomy (ErrAuth,
// ErrRateLimited, ErrNotFound, ErrTransient, ErrUnexpectedResponse) that the
// orchestrator matches with errors.Is; retryable failures are repeated with
// bounded exponential backoff and jitter before a sentinel surfaces.
package api
