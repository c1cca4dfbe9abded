package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/epunzal2/kalshi-dashboard/internal/api"
	"github.com/epunzal2/kalshi-dashboard/internal/model"
	"github.com/epunzal2/kalshi-dashboard/internal/storage"
)

// fakeVenue serves canned responses per ticker and records the cursor each
// call was made with.
type fakeVenue struct {
	mu      sync.Mutex
	records map[string][]model.MarketRecord
	errs    map[string]error
	since   map[string][]int64
	calls   int
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		records: make(map[string][]model.MarketRecord),
		errs:    make(map[string]error),
		since:   make(map[string][]int64),
	}
}

func (v *fakeVenue) GetTradeHistory(_ context.Context, ticker string, sinceTS int64) ([]model.MarketRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.calls++
	v.since[ticker] = append(v.since[ticker], sinceTS)

	if err, ok := v.errs[ticker]; ok {
		return nil, err
	}

	var out []model.MarketRecord
	for _, r := range v.records[ticker] {
		if r.TS > sinceTS {
			out = append(out, r)
		}
	}
	return out, nil
}

func rec(ticker string, ts int64, payload string) model.MarketRecord {
	return model.MarketRecord{Ticker: ticker, TS: ts, Fields: json.RawMessage(payload)}
}

func newTestFetcher(t *testing.T, cfg Config, venue VenueClient, store storage.Store) *Fetcher {
	t.Helper()
	if cfg.Prefix == "" {
		cfg.Prefix = "market_data"
	}
	return New(cfg, venue, store, nil)
}

func TestRunCycle_EndToEnd(t *testing.T) {
	venue := newFakeVenue()
	venue.records["AAPL-YES"] = []model.MarketRecord{
		rec("AAPL-YES", 2000, `{"yes_price":41}`),
		rec("AAPL-YES", 1000, `{"yes_price":40}`),
	}
	// BTCZ-NO has no trades.

	store := storage.NewMemStore()
	f := newTestFetcher(t, Config{Tickers: []string{"AAPL-YES", "BTCZ-NO"}}, venue, store)

	res := f.RunCycle(context.Background())

	if !res.OK() {
		t.Errorf("run should be OK, got status %q", res.Status())
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(res.Outcomes))
	}

	aapl := res.Outcomes[0]
	if !aapl.Success() || aapl.NewRecords != 2 {
		t.Errorf("AAPL-YES outcome = %+v, want success with 2 new records", aapl)
	}

	btcz := res.Outcomes[1]
	if !btcz.Success() || btcz.NewRecords != 0 {
		t.Errorf("BTCZ-NO outcome = %+v, want success with 0 new records", btcz)
	}

	// AAPL-YES history persisted, ordered ascending.
	h, err := storage.LoadHistory(context.Background(), store, "market_data", "AAPL-YES")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(h) != 2 || h[0].TS != 1000 || h[1].TS != 2000 {
		t.Errorf("persisted history = %+v, want [1000 2000]", h)
	}

	// BTCZ-NO had nothing to persist; its object stays absent.
	if store.Len() != 1 {
		t.Errorf("store holds %d objects, want 1", store.Len())
	}
}

func TestRunCycle_ReRunAppendsWithoutDuplicates(t *testing.T) {
	venue := newFakeVenue()
	venue.records["AAPL-YES"] = []model.MarketRecord{
		rec("AAPL-YES", 1000, `{"yes_price":40}`),
		rec("AAPL-YES", 2000, `{"yes_price":41}`),
	}

	store := storage.NewMemStore()
	f := newTestFetcher(t, Config{Tickers: []string{"AAPL-YES"}}, venue, store)

	if res := f.RunCycle(context.Background()); !res.OK() {
		t.Fatalf("first run failed: %+v", res.Outcomes)
	}

	// New trade appears; the next run fetches with a cursor past t2.
	venue.mu.Lock()
	venue.records["AAPL-YES"] = append(venue.records["AAPL-YES"],
		rec("AAPL-YES", 3000, `{"yes_price":42}`))
	venue.mu.Unlock()

	res := f.RunCycle(context.Background())
	if !res.OK() {
		t.Fatalf("second run failed: %+v", res.Outcomes)
	}
	if res.Outcomes[0].NewRecords != 1 {
		t.Errorf("second run NewRecords = %d, want 1", res.Outcomes[0].NewRecords)
	}

	// Cursor for the second run derives from the persisted latest timestamp.
	venue.mu.Lock()
	since := venue.since["AAPL-YES"]
	venue.mu.Unlock()
	if len(since) != 2 || since[0] != 0 || since[1] != 2000 {
		t.Errorf("since cursors = %v, want [0 2000]", since)
	}

	h, err := storage.LoadHistory(context.Background(), store, "market_data", "AAPL-YES")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	wantTS := []int64{1000, 2000, 3000}
	if len(h) != 3 {
		t.Fatalf("history length = %d, want 3", len(h))
	}
	for i, ts := range wantTS {
		if h[i].TS != ts {
			t.Errorf("h[%d].TS = %d, want %d", i, h[i].TS, ts)
		}
	}
}

func TestRunCycle_IsolatesTickerFailures(t *testing.T) {
	venue := newFakeVenue()
	venue.records["GOOD-1"] = []model.MarketRecord{rec("GOOD-1", 1000, `{}`)}
	venue.errs["BAD"] = fmt.Errorf("get trades: %w", &api.APIError{StatusCode: 404, Message: "Not Found"})
	venue.records["GOOD-2"] = []model.MarketRecord{rec("GOOD-2", 1000, `{}`)}

	store := storage.NewMemStore()
	f := newTestFetcher(t, Config{Tickers: []string{"GOOD-1", "BAD", "GOOD-2"}}, venue, store)

	res := f.RunCycle(context.Background())

	if !res.OK() {
		t.Errorf("run with partial failure should still be OK")
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 2/1", res.Succeeded, res.Failed)
	}

	bad := res.Outcomes[1]
	if bad.Kind != KindNotFound {
		t.Errorf("BAD outcome kind = %q, want %q", bad.Kind, KindNotFound)
	}
	if bad.Error == "" {
		t.Error("failure outcome should carry the error message")
	}

	if !res.Outcomes[0].Success() || !res.Outcomes[2].Success() {
		t.Error("other tickers should succeed")
	}
}

func TestRunCycle_AllFailedIsNotOK(t *testing.T) {
	venue := newFakeVenue()
	venue.errs["A"] = &api.APIError{StatusCode: 401, Message: "Unauthorized"}
	venue.errs["B"] = &api.APIError{StatusCode: 429, Message: "Too Many Requests"}

	f := newTestFetcher(t, Config{Tickers: []string{"A", "B"}}, venue, storage.NewMemStore())

	res := f.RunCycle(context.Background())

	if res.OK() {
		t.Error("run where every ticker failed must not be OK")
	}
	if res.Outcomes[0].Kind != KindAuth {
		t.Errorf("outcome[0].Kind = %q, want %q", res.Outcomes[0].Kind, KindAuth)
	}
	if res.Outcomes[1].Kind != KindRateLimited {
		t.Errorf("outcome[1].Kind = %q, want %q", res.Outcomes[1].Kind, KindRateLimited)
	}
}

func TestRunCycle_EmptyTickerListIsOK(t *testing.T) {
	f := newTestFetcher(t, Config{}, newFakeVenue(), storage.NewMemStore())

	res := f.RunCycle(context.Background())
	if !res.OK() {
		t.Error("empty ticker list should be a successful no-op")
	}
	if len(res.Outcomes) != 0 {
		t.Errorf("outcomes = %v, want none", res.Outcomes)
	}
}

// flakyStore fails the first n operations, then delegates.
type flakyStore struct {
	inner    storage.Store
	mu       sync.Mutex
	failures int
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.fail() {
		return nil, fmt.Errorf("transient blob store outage")
	}
	return s.inner.Get(ctx, key)
}

func (s *flakyStore) Put(ctx context.Context, key string, data []byte) error {
	if s.fail() {
		return fmt.Errorf("transient blob store outage")
	}
	return s.inner.Put(ctx, key, data)
}

func (s *flakyStore) fail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return true
	}
	return false
}

func TestRunCycle_StorageRetriedOnce(t *testing.T) {
	venue := newFakeVenue()
	venue.records["T"] = []model.MarketRecord{rec("T", 1000, `{}`)}

	mem := storage.NewMemStore()
	store := &flakyStore{inner: mem, failures: 1}

	f := newTestFetcher(t, Config{
		Tickers:           []string{"T"},
		StorageRetryDelay: 1, // nanosecond; keep the test fast
	}, venue, store)

	res := f.RunCycle(context.Background())
	if !res.OK() {
		t.Fatalf("run failed despite retry: %+v", res.Outcomes)
	}
	if mem.Len() != 1 {
		t.Errorf("history not persisted after retry")
	}
}

func TestRunCycle_PersistentStorageFailure(t *testing.T) {
	venue := newFakeVenue()
	venue.records["T"] = []model.MarketRecord{rec("T", 1000, `{}`)}

	store := &flakyStore{inner: storage.NewMemStore(), failures: 100}

	f := newTestFetcher(t, Config{
		Tickers:           []string{"T"},
		StorageRetryDelay: 1,
	}, venue, store)

	res := f.RunCycle(context.Background())
	if res.OK() {
		t.Error("run should fail when storage stays down")
	}
	if res.Outcomes[0].Kind != KindStorage {
		t.Errorf("outcome kind = %q, want %q", res.Outcomes[0].Kind, KindStorage)
	}
}

func TestRunCycle_DeadlineStopsNewFetches(t *testing.T) {
	venue := newFakeVenue()
	venue.records["T1"] = []model.MarketRecord{rec("T1", 1000, `{}`)}
	venue.records["T2"] = []model.MarketRecord{rec("T2", 1000, `{}`)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // deadline already passed

	f := newTestFetcher(t, Config{Tickers: []string{"T1", "T2"}}, venue, storage.NewMemStore())

	res := f.RunCycle(ctx)

	for i, o := range res.Outcomes {
		if o.Kind != KindDeadline {
			t.Errorf("outcome[%d].Kind = %q, want %q", i, o.Kind, KindDeadline)
		}
	}

	venue.mu.Lock()
	calls := venue.calls
	venue.mu.Unlock()
	if calls != 0 {
		t.Errorf("venue called %d times after deadline, want 0", calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want OutcomeKind
	}{
		{&api.APIError{StatusCode: 403}, KindAuth},
		{&api.APIError{StatusCode: 429}, KindRateLimited},
		{&api.APIError{StatusCode: 404}, KindNotFound},
		{&api.APIError{StatusCode: 503}, KindTransient},
		{fmt.Errorf("wrap: %w", api.ErrUnexpectedResponse), KindUnexpectedResponse},
		{&storageError{err: fmt.Errorf("down")}, KindStorage},
		{context.DeadlineExceeded, KindDeadline},
		{fmt.Errorf("mystery"), KindUnknown},
	}

	for _, tt := range tests {
		if got := classify(tt.err); got != tt.want {
			t.Errorf("classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
