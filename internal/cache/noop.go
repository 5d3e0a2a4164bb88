package cache

import (
	"context"
	"time"

	"SwingScreener/internal/model"
)

// NoopCache is a no-op implementation used when caching is disabled.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (n *NoopCache) GetBars(_ context.Context, _ string, _ time.Time) ([]model.OHLCV, bool, error) {
	return nil, false, nil
}
func (n *NoopCache) PutBars(_ context.Context, _ string, _ time.Time, _ []model.OHLCV) error {
	return nil
}
func (n *NoopCache) GetScan(_ context.Context, _ string, _ time.Time) (*model.ScanResult, bool, error) {
	return nil, false, nil
}
func (n *NoopCache) PutScan(_ context.Context, _ string, _ time.Time, _ *model.ScanResult) error {
	return nil
}
func (n *NoopCache) Purge(_ context.Context, _ time.Time) error { return nil }
func (n *NoopCache) Close() error                             { return nil }
