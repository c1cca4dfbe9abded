package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epunzal2/kalshi-dashboard/internal/history"
	"github.com/epunzal2/kalshi-dashboard/internal/metrics"
	"github.com/epunzal2/kalshi-dashboard/internal/model"
	"github.com/epunzal2/kalshi-dashboard/internal/storage"
)

// writeGrace bounds the time an in-flight storage write may take after the
// run deadline has passed. A deadline stops new fetches from starting but
// never tears a ticker's write.
const writeGrace = 30 * time.Second

// VenueClient fetches a ticker's trade history since a timestamp.
type VenueClient interface {
	GetTradeHistory(ctx context.Context, ticker string, sinceTS int64) ([]model.MarketRecord, error)
}

// Config holds orchestrator settings.
type Config struct {
	Tickers           []string      // processed in list order
	Prefix            string        // storage key prefix
	Concurrency       int           // max tickers processed at once (default: 1)
	StorageRetryDelay time.Duration // backoff before the single storage retry (default: 500ms)
}

// Fetcher runs the per-ticker read-merge-write cycle against storage.
type Fetcher struct {
	cfg    Config
	client VenueClient
	store  storage.Store
	logger *slog.Logger
}

// New creates a Fetcher.
func New(cfg Config, client VenueClient, store storage.Store, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.StorageRetryDelay == 0 {
		cfg.StorageRetryDelay = 500 * time.Millisecond
	}
	return &Fetcher{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger,
	}
}

// RunCycle processes every configured ticker once and reports the aggregate
// outcome. Per-ticker failures are recorded, never propagated; RunCycle
// itself does not fail. Tickers are independent, so they may be processed
// concurrently up to the configured bound; outcomes keep list order.
func (f *Fetcher) RunCycle(ctx context.Context) *RunResult {
	start := time.Now()
	runID := uuid.NewString()
	logger := f.logger.With("run_id", runID)

	logger.Info("fetch cycle started",
		"tickers", len(f.cfg.Tickers),
		"concurrency", f.cfg.Concurrency,
	)

	outcomes := make([]Outcome, len(f.cfg.Tickers))

	sem := make(chan struct{}, f.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, ticker := range f.cfg.Tickers {
		// Deadline reached: stop starting new fetches, let in-flight
		// tickers finish.
		if ctx.Err() != nil {
			outcomes[i] = Outcome{
				Ticker: ticker,
				Kind:   KindDeadline,
				Error:  "run deadline reached before fetch started",
			}
			continue
		}

		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = Outcome{
					Ticker: ticker,
					Kind:   KindDeadline,
					Error:  "run deadline reached before fetch started",
				}
				return
			}

			outcomes[i] = f.processTicker(ctx, logger, ticker)
		}(i, ticker)
	}

	wg.Wait()

	result := &RunResult{
		RunID:     runID,
		StartedAt: start,
		Duration:  time.Since(start),
		Outcomes:  outcomes,
	}
	for _, o := range outcomes {
		if o.Success() {
			result.Succeeded++
		} else {
			result.Failed++
		}
		metrics.TickerOutcomes.WithLabelValues(string(o.Kind)).Inc()
	}

	metrics.RunsTotal.WithLabelValues(result.Status()).Inc()
	metrics.RunDuration.Observe(result.Duration.Seconds())

	logger.Info("fetch cycle complete",
		"status", result.Status(),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	return result
}

// processTicker performs one ticker's read-merge-write sequence.
func (f *Fetcher) processTicker(ctx context.Context, logger *slog.Logger, ticker string) Outcome {
	existing, err := f.loadWithRetry(ctx, ticker)
	if err != nil {
		return f.failure(logger, ticker, err)
	}

	incoming, err := f.client.GetTradeHistory(ctx, ticker, existing.LatestTS())
	if err != nil {
		return f.failure(logger, ticker, err)
	}

	merged, conflicts := history.Merge(existing, incoming)
	for _, c := range conflicts {
		// Records are immutable per key; a differing payload means the
		// venue or the stored object is inconsistent.
		logger.Warn("merge conflict: stored record differs from venue",
			"ticker", c.Key.Ticker,
			"ts", c.Key.TS,
		)
		metrics.MergeConflicts.Inc()
	}

	newRecords := len(merged) - len(existing)

	if newRecords > 0 || len(conflicts) > 0 {
		// The write survives run cancellation so storage is never left
		// with a torn object mid-deadline.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeGrace)
		defer cancel()

		if err := f.saveWithRetry(writeCtx, ticker, merged); err != nil {
			return f.failure(logger, ticker, err)
		}
	}

	logger.Info("ticker fetched",
		"ticker", ticker,
		"new_records", newRecords,
		"total_records", len(merged),
	)
	metrics.NewRecords.Add(float64(newRecords))

	return Outcome{
		Ticker:       ticker,
		Kind:         KindSuccess,
		NewRecords:   newRecords,
		TotalRecords: len(merged),
	}
}

// loadWithRetry reads a ticker's history, retrying once after a short
// backoff on storage failure.
func (f *Fetcher) loadWithRetry(ctx context.Context, ticker string) (model.TickerHistory, error) {
	h, err := storage.LoadHistory(ctx, f.store, f.cfg.Prefix, ticker)
	if err == nil {
		return h, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.cfg.StorageRetryDelay):
	}

	h, err = storage.LoadHistory(ctx, f.store, f.cfg.Prefix, ticker)
	if err != nil {
		return nil, &storageError{err: err}
	}
	return h, nil
}

// saveWithRetry writes a ticker's history, retrying once after a short
// backoff on storage failure.
func (f *Fetcher) saveWithRetry(ctx context.Context, ticker string, h model.TickerHistory) error {
	if err := storage.SaveHistory(ctx, f.store, f.cfg.Prefix, ticker, h); err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.cfg.StorageRetryDelay):
	}

	if err := storage.SaveHistory(ctx, f.store, f.cfg.Prefix, ticker, h); err != nil {
		return &storageError{err: err}
	}
	return nil
}

// failure logs a per-ticker failure with its kind and builds the outcome.
func (f *Fetcher) failure(logger *slog.Logger, ticker string, err error) Outcome {
	kind := classify(err)

	logger.Error("ticker fetch failed",
		"ticker", ticker,
		"kind", string(kind),
		"error", err,
	)

	return Outcome{
		Ticker: ticker,
		Kind:   kind,
		Error:  err.Error(),
	}
}

// storageError wraps a persistence failure so it classifies as ErrStorage.
type storageError struct {
	err error
}

func (e *storageError) Error() string        { return "storage: " + e.err.Error() }
func (e *storageError) Unwrap() error        { return e.err }
func (e *storageError) Is(target error) bool { return target == ErrStorage }
