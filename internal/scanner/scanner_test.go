package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"SwingScreener/internal/cache"
	"SwingScreener/internal/collector"
	"SwingScreener/internal/model"
	"SwingScreener/internal/strategy"
)

type fakeUniverse struct {
	insts []model.Instrument
	err   error
	loads int
}

func (f *fakeUniverse) Load(_ context.Context, _ string) ([]model.Instrument, error) {
	f.loads++
	return f.insts, f.err
}

func series(n int, start, step, volume float64) []model.OHLCV {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = model.OHLCV{Time: day.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: volume}
	}
	return bars
}

// breakout is a steady uptrend closing on a volume surge.
func breakout(start float64) []model.OHLCV {
	bars := series(260, start, 0.5, 250000)
	bars[len(bars)-1].Volume = 750000
	return bars
}

func inst(sym string) model.Instrument {
	return model.Instrument{Symbol: sym, Company: sym + " Ltd", Ticker: sym + ".NS"}
}

func newTestScanner(t *testing.T) (*Scanner, *fakeUniverse, *collector.MockFetcher) {
	t.Helper()
	c, err := cache.NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	mock := &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			"UP.NS":    breakout(60),
			"UP2.NS":   breakout(80),
			"FLAT.NS":  series(260, 100, 0, 250000),
			"SHORT.NS": series(20, 100, 1, 250000),
		},
		Err: map[string]error{"DOWN.NS": errors.New("connection reset")},
	}
	u := &fakeUniverse{insts: []model.Instrument{inst("UP"), inst("FLAT"), inst("SHORT"), inst("DOWN"), inst("UP2")}}
	col := collector.NewCollector(mock, c, 365, 50)
	return New(u, col, c, strategy.DefaultParams(), 3, 3), u, mock
}

func TestScan(t *testing.T) {
	s, _, _ := newTestScanner(t)
	res, err := s.Scan(context.Background(), "nifty_50", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := model.ScanStats{Total: 5, Scanned: 5, Filtered: 1, Skipped: 2}
	if res.Stats != want {
		t.Errorf("expected stats %+v, got %+v", want, res.Stats)
	}
	if res.Count != 2 || len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", res.Count)
	}
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i].Score > res.Candidates[i-1].Score {
			t.Errorf("candidates not ranked: %.1f before %.1f", res.Candidates[i-1].Score, res.Candidates[i].Score)
		}
	}
	if res.ScanID == "" || res.Market != "nifty_50" || res.Cached {
		t.Errorf("unexpected result header %+v", res)
	}
	if len(res.Candidates[0].Sparkline) != 30 {
		t.Errorf("expected 30-point sparkline, got %d", len(res.Candidates[0].Sparkline))
	}
}

func TestScan_TooFewSignalsIsSkipped(t *testing.T) {
	s, u, mock := newTestScanner(t)

	// accelerating uptrend with flat volume: only the EMA stack lines up
	quiet := series(260, 60, 0, 250000)
	for i := range quiet {
		c := 60 + 0.002*float64(i*i)
		quiet[i].Open, quiet[i].High, quiet[i].Low, quiet[i].Close = c, c+0.5, c-0.5, c
	}
	mock.Bars["QUIET.NS"] = quiet
	u.insts = []model.Instrument{inst("QUIET"), inst("FLAT")}

	res, err := s.Scan(context.Background(), "nifty_50", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := model.ScanStats{Total: 2, Scanned: 2, Filtered: 1, Skipped: 1}
	if res.Stats != want || res.Count != 0 {
		t.Errorf("expected stats %+v and no candidates, got %+v count=%d", want, res.Stats, res.Count)
	}
}

func TestScan_ServesCachedResult(t *testing.T) {
	s, u, mock := newTestScanner(t)
	ctx := context.Background()

	first, err := s.Scan(ctx, "nifty_50", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	calls := mock.Calls()

	second, err := s.Scan(ctx, "nifty_50", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !second.Cached || second.ScanID != first.ScanID {
		t.Errorf("expected cached copy of %s, got %s cached=%v", first.ScanID, second.ScanID, second.Cached)
	}
	if u.loads != 1 || mock.Calls() != calls {
		t.Error("cached scan should not reload the universe or refetch")
	}

	// A different scope is a different cache entry.
	third, err := s.Scan(ctx, "nifty_50", 2)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if third.Cached || third.Stats.Total != 2 {
		t.Errorf("expected fresh scan of 2 instruments, got cached=%v total=%d", third.Cached, third.Stats.Total)
	}

	got, ok, err := s.Cached(ctx, "nifty_50", Scope(2))
	if err != nil || !ok || got.ScanID != third.ScanID {
		t.Errorf("expected stored scan %s, got ok=%v err=%v", third.ScanID, ok, err)
	}
}

func TestScan_USMinimumPrice(t *testing.T) {
	s, u, mock := newTestScanner(t)
	// Closes around 30: below the Indian minimum, above the US one.
	mock.Bars["LOW.NS"] = func() []model.OHLCV {
		b := series(260, 0, 0, 250000)
		for i := range b {
			c := 20 + float64(i)*0.05
			b[i].Open, b[i].High, b[i].Low, b[i].Close = c, c+0.1, c-0.1, c
		}
		b[len(b)-1].Volume = 750000
		return b
	}()
	u.insts = []model.Instrument{inst("LOW")}

	res, err := s.Scan(context.Background(), "nifty_50", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Count != 0 || res.Stats.Filtered != 1 {
		t.Errorf("expected price filter to reject, got %+v", res.Stats)
	}

	res, err = s.Scan(context.Background(), "sp_500", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Count != 1 {
		t.Errorf("expected US minimum price to admit the stock, got %+v", res.Stats)
	}
}

func TestScan_UniverseError(t *testing.T) {
	s, u, _ := newTestScanner(t)
	u.err = collector.ErrUnknownMarket
	if _, err := s.Scan(context.Background(), "ftse_100", 0); !errors.Is(err, collector.ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket, got %v", err)
	}
}

func TestScan_Cancelled(t *testing.T) {
	s, _, _ := newTestScanner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, "nifty_50", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScope(t *testing.T) {
	if Scope(0) != "all" || Scope(20) != "20" {
		t.Errorf("unexpected scopes %q %q", Scope(0), Scope(20))
	}
}
