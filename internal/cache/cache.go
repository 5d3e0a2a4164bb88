package cache

import (
	"context"
	"time"

	"SwingScreener/internal/model"
)

// Cache stores fetched price history and finished scan results per calendar day.
// A miss is reported by ok=false, never by an error.
type Cache interface {
	GetBars(ctx context.Context, ticker string, day time.Time) (bars []model.OHLCV, ok bool, err error)
	PutBars(ctx context.Context, ticker string, day time.Time, bars []model.OHLCV) error
	GetScan(ctx context.Context, key string, day time.Time) (res *model.ScanResult, ok bool, err error)
	PutScan(ctx context.Context, key string, day time.Time, res *model.ScanResult) error
	// Purge drops every entry dated before the given day.
	Purge(ctx context.Context, before time.Time) error
	Close() error
}

const dayLayout = "2006-01-02"

func dayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ScanKey names a cached scan result, e.g. "nifty_50_top_20".
func ScanKey(market, scope string) string {
	return market + "_" + scope
}
