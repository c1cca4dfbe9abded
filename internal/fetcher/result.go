package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/epunzal2/kalshi-dashboard/internal/api"
	"github.com/epunzal2/kalshi-dashboard/internal/auth"
)

// ErrStorage marks a persistence-layer failure (read or write).
var ErrStorage = errors.New("storage failure")

// OutcomeKind classifies a per-ticker result.
type OutcomeKind string

const (
	KindSuccess            OutcomeKind = "success"
	KindCredential         OutcomeKind = "credential"
	KindSigning            OutcomeKind = "signing"
	KindAuth               OutcomeKind = "auth"
	KindRateLimited        OutcomeKind = "rate_limited"
	KindNotFound           OutcomeKind = "not_found"
	KindTransient          OutcomeKind = "transient"
	KindUnexpectedResponse OutcomeKind = "unexpected_response"
	KindStorage            OutcomeKind = "storage"
	KindDeadline           OutcomeKind = "deadline_exceeded"
	KindUnknown            OutcomeKind = "unknown"
)

// classify maps an error onto the outcome taxonomy.
func classify(err error) OutcomeKind {
	var credErr *auth.CredentialError
	var signErr *auth.SigningError

	switch {
	case errors.As(err, &credErr):
		return KindCredential
	case errors.As(err, &signErr):
		return KindSigning
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, api.ErrAuth):
		return KindAuth
	case errors.Is(err, api.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, api.ErrNotFound):
		return KindNotFound
	case errors.Is(err, api.ErrTransient):
		return KindTransient
	case errors.Is(err, api.ErrUnexpectedResponse):
		return KindUnexpectedResponse
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindDeadline
	default:
		return KindUnknown
	}
}

// Outcome is the result of processing one ticker.
type Outcome struct {
	Ticker       string      `json:"ticker"`
	Kind         OutcomeKind `json:"kind"`
	NewRecords   int         `json:"new_records"`
	TotalRecords int         `json:"total_records"`
	Error        string      `json:"error,omitempty"`
}

// Success reports whether the ticker was processed without failure.
func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// RunResult summarizes one fetch cycle.
type RunResult struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcomes  []Outcome     `json:"outcomes"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// OK reports overall run status. A run is OK unless every ticker failed;
// an empty ticker list is a completed, successful no-op.
func (r *RunResult) OK() bool {
	return r.Failed == 0 || r.Succeeded > 0
}

// Status returns "ok" or "failed" for logs and metrics.
func (r *RunResult) Status() string {
	if r.OK() {
		return "ok"
	}
	return "failed"
}
