package api

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying API failures. Callers match with errors.Is.
var (
	// ErrAuth is a 401/403: signature rejected or key revoked. Not retried.
	ErrAuth = errors.New("authentication rejected")

	// ErrRateLimited is a 429 that survived the bounded retry budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is a 404: the ticker is unknown to the venue.
	ErrNotFound = errors.New("not found")

	// ErrTransient covers timeouts, connection resets and 5xx responses
	// that survived the retry budget.
	ErrTransient = errors.New("transient network error")

	// ErrUnexpectedResponse indicates a payload the client cannot interpret.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// APIError represents an error status from the Kalshi API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kalshi api error %d: %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the sentinel taxonomy so that callers can use
// errors.Is without inspecting status codes themselves.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.StatusCode == 401 || e.StatusCode == 403
	case ErrRateLimited:
		return e.StatusCode == 429
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrTransient:
		return e.StatusCode >= 500
	}
	return false
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
