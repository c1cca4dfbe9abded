// Package history implements the append-only merge of fetched market
// records into a ticker's persisted history.
package history

import (
	"github.com/epunzal2/kalshi-dashboard/internal/model"
)

// Conflict records a key collision where the incoming payload differs from
// the persisted one. Records are immutable per key, so a conflict is a
// data-integrity anomaly; the incoming record wins but the caller should
// log every conflict.
type Conflict struct {
	Key model.Key
}

// Merge unions existing history with incoming records, deduplicating by
// (ticker, observation timestamp) and ordering the result ascending.
//
// Merge is pure: it never mutates its inputs and performs no I/O. The result
// always contains every record of existing, so a merge can never lose
// previously committed data.
func Merge(existing model.TickerHistory, incoming []model.MarketRecord) (model.TickerHistory, []Conflict) {
	if len(incoming) == 0 {
		return existing, nil
	}

	byKey := make(map[model.Key]model.MarketRecord, len(existing)+len(incoming))
	for _, rec := range existing {
		byKey[rec.Key()] = rec
	}

	var conflicts []Conflict
	for _, rec := range incoming {
		prev, ok := byKey[rec.Key()]
		if ok && !prev.Equal(rec) {
			conflicts = append(conflicts, Conflict{Key: rec.Key()})
		}
		byKey[rec.Key()] = rec
	}

	merged := make(model.TickerHistory, 0, len(byKey))
	for _, rec := range byKey {
		merged = append(merged, rec)
	}
	merged.Sort()

	return merged, conflicts
}
