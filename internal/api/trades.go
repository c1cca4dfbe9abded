package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/epunzal2/kalshi-dashboard/internal/model"
)

// tradesPath is the market-history endpoint, relative to the base URL.
const tradesPath = "/markets/trades"

// maxPageSize is the largest page the venue serves per request.
const maxPageSize = 1000

// TradesResponse is one page from GET /markets/trades. Individual trades are
// kept as raw JSON; their schema is passed through opaquely.
type TradesResponse struct {
	Trades []json.RawMessage `json:"trades"`
	Cursor string            `json:"cursor"`
}

// TradeQuery configures a GetTrades request.
type TradeQuery struct {
	Ticker string
	Limit  int
	Cursor string
	MinTS  int64 // ms since epoch; only records at or after this time
}

// GetTrades fetches a single page of trades.
func (c *Client) GetTrades(ctx context.Context, q TradeQuery) (*TradesResponse, error) {
	query := url.Values{}

	if q.Ticker != "" {
		query.Set("ticker", q.Ticker)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		query.Set("cursor", q.Cursor)
	}
	if q.MinTS > 0 {
		// The venue filters by whole seconds; overlap at the boundary is
		// resolved by the merge, which deduplicates by key.
		query.Set("min_ts", strconv.FormatInt(q.MinTS/1000, 10))
	}

	var resp TradesResponse
	if err := c.get(ctx, tradesPath, query, &resp); err != nil {
		return nil, fmt.Errorf("get trades: %w", err)
	}

	return &resp, nil
}

// GetTradeHistory fetches all trades for a ticker since the given timestamp,
// following continuation cursors until exhausted. Pages are accumulated in
// cursor order, so the caller sees a single merged sequence.
func (c *Client) GetTradeHistory(ctx context.Context, ticker string, sinceTS int64) ([]model.MarketRecord, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrNotFound)
	}

	q := TradeQuery{
		Ticker: ticker,
		Limit:  maxPageSize,
		MinTS:  sinceTS,
	}

	var records []model.MarketRecord
	for {
		resp, err := c.GetTrades(ctx, q)
		if err != nil {
			return nil, err
		}

		for _, raw := range resp.Trades {
			rec, err := recordFromTrade(ticker, raw)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		if resp.Cursor == "" {
			break
		}
		q.Cursor = resp.Cursor
	}

	c.logger.Debug("fetched trade history",
		"ticker", ticker,
		"since_ts", sinceTS,
		"records", len(records),
	)

	return records, nil
}

// recordFromTrade extracts the observation timestamp from a raw trade object
// and wraps it as a MarketRecord. The payload itself stays untouched.
//
// The venue reports the observation time either as a numeric "ts" in
// milliseconds or as an RFC 3339 "created_time".
func recordFromTrade(ticker string, raw json.RawMessage) (model.MarketRecord, error) {
	var ts int64

	switch {
	case gjson.GetBytes(raw, "ts").Exists():
		ts = gjson.GetBytes(raw, "ts").Int()
	case gjson.GetBytes(raw, "created_time").Exists():
		created := gjson.GetBytes(raw, "created_time").String()
		t, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return model.MarketRecord{}, fmt.Errorf("%w: bad created_time %q: %v", ErrUnexpectedResponse, created, err)
		}
		ts = t.UnixMilli()
	default:
		return model.MarketRecord{}, fmt.Errorf("%w: trade has no timestamp field", ErrUnexpectedResponse)
	}

	if ts <= 0 {
		return model.MarketRecord{}, fmt.Errorf("%w: non-positive trade timestamp %d", ErrUnexpectedResponse, ts)
	}

	return model.MarketRecord{
		Ticker: ticker,
		TS:     ts,
		Fields: raw,
	}, nil
}
