package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// MarketRecord is one observation for a market at a point in time.
//
// The venue's market fields are loosely structured and not interpreted by
// the pipeline, so they are carried as raw JSON exactly as received. A
// record is uniquely keyed by (Ticker, TS) and immutable once created.
type MarketRecord struct {
	Ticker string          `json:"ticker"`
	TS     int64           `json:"ts"`     // observation time (ms since epoch)
	Fields json.RawMessage `json:"fields"` // venue payload, passed through untouched
}

// Key identifies a MarketRecord.
type Key struct {
	Ticker string
	TS     int64
}

// Key returns the record's unique key.
func (r MarketRecord) Key() Key {
	return Key{Ticker: r.Ticker, TS: r.TS}
}

// Equal reports whether two records have the same key and identical payloads.
func (r MarketRecord) Equal(other MarketRecord) bool {
	return r.Key() == other.Key() && bytes.Equal(r.Fields, other.Fields)
}

// TickerHistory is the full persisted record set for one ticker, ordered by
// observation timestamp ascending and deduplicated by key.
type TickerHistory []MarketRecord

// LatestTS returns the observation timestamp of the newest record, or 0 for
// an empty history.
func (h TickerHistory) LatestTS() int64 {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1].TS
}

// Sort orders the history by timestamp ascending (ticker as tiebreaker).
func (h TickerHistory) Sort() {
	sort.Slice(h, func(i, j int) bool {
		if h[i].TS != h[j].TS {
			return h[i].TS < h[j].TS
		}
		return h[i].Ticker < h[j].Ticker
	})
}
