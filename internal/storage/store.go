package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/epunzal2/kalshi-dashboard/internal/model"
)

// ErrNotFound is returned by Get when no object exists under the key.
// First-time tickers are expected to hit this; callers treat it as an
// empty history.
var ErrNotFound = errors.New("object not found")

// Store is a key/value blob store. Writes replace the object under the key
// atomically; individual ticker histories are small enough that a full-object
// PUT per cycle is acceptable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// HistoryKey returns the storage key for a ticker's history object.
func HistoryKey(prefix, ticker string) string {
	if prefix == "" {
		return ticker + ".json"
	}
	return prefix + "/" + ticker + ".json"
}

// LoadHistory reads and decodes a ticker's history. A missing object is an
// empty history, not an error.
func LoadHistory(ctx context.Context, store Store, prefix, ticker string) (model.TickerHistory, error) {
	data, err := store.Get(ctx, HistoryKey(prefix, ticker))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", ticker, err)
	}

	var h model.TickerHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", ticker, err)
	}

	return h, nil
}

// SaveHistory encodes and writes a ticker's full history.
func SaveHistory(ctx context.Context, store Store, prefix, ticker string, h model.TickerHistory) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history %s: %w", ticker, err)
	}

	if err := store.Put(ctx, HistoryKey(prefix, ticker), data); err != nil {
		return fmt.Errorf("save history %s: %w", ticker, err)
	}

	return nil
}
