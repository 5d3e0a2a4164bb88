package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"SwingScreener/internal/cache"
	"SwingScreener/internal/model"
)

// Collector fetches daily bars through a day-scoped cache.
type Collector struct {
	Fetcher     Fetcher
	Cache       cache.Cache
	HistoryDays int // calendar days requested from the fetcher
	MinBars     int // fewer bars than this is an InsufficientDataError
	Now         func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, c cache.Cache, historyDays, minBars int) *Collector {
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &Collector{
		Fetcher:     fetcher,
		Cache:       c,
		HistoryDays: historyDays,
		MinBars:     minBars,
		Now:         time.Now,
	}
}

// HistoryWindow returns the calendar days to request so that at least
// warmupBars trading days come back: five sessions a week plus two weeks of holidays.
func HistoryWindow(historyDays, warmupBars int) int {
	return max(historyDays, warmupBars*7/5+14)
}

// Bars returns the instrument's daily history, serving today's cached copy when
// present. Short histories are reported as *model.InsufficientDataError.
func (c *Collector) Bars(ctx context.Context, inst model.Instrument) ([]model.OHLCV, error) {
	today := c.Now()

	bars, ok, err := c.Cache.GetBars(ctx, inst.Ticker, today)
	if err != nil {
		log.Printf("[WARN] cache read %s: %v", inst.Ticker, err)
	}
	if ok && len(bars) >= c.MinBars {
		return bars, nil
	}

	bars, err = c.Fetcher.FetchDailyBars(ctx, inst.Ticker, c.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", inst.Ticker, err)
	}
	if len(bars) < c.MinBars {
		return nil, &model.InsufficientDataError{Symbol: inst.Symbol, Have: len(bars), Need: c.MinBars}
	}

	if err := c.Cache.PutBars(ctx, inst.Ticker, today, bars); err != nil {
		log.Printf("[WARN] cache write %s: %v", inst.Ticker, err)
	}
	return bars, nil
}
