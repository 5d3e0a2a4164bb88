package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"SwingScreener/internal/model"
)

// newTestRedis connects to REDIS_ADDR and namespaces keys per test.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, time.Hour)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.prefix = "swingtest:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		keys, err := c.client.Keys(ctx, c.prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			c.client.Del(ctx, keys...)
		}
		c.Close()
	})
	return c
}

func TestRedisCache_Bars(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, ok, err := c.GetBars(ctx, "AAPL", day); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	bars := []model.OHLCV{
		{Time: day.AddDate(0, 0, -1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Time: day, Open: 10.5, High: 12, Low: 10, Close: 11.75, Volume: 2500},
	}
	if err := c.PutBars(ctx, "AAPL", day, bars); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.GetBars(ctx, "AAPL", day)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].Close != 11.75 || !got[1].Time.Equal(day) {
		t.Errorf("unexpected bars %+v", got)
	}

	if _, ok, _ := c.GetBars(ctx, "AAPL", day.AddDate(0, 0, 1)); ok {
		t.Error("bars cached for one day should miss on the next")
	}
	if ttl := c.client.TTL(ctx, c.key("bars", day, "AAPL")).Val(); ttl <= 0 || ttl > time.Hour {
		t.Errorf("expected ttl within an hour, got %v", ttl)
	}
}

func TestRedisCache_ScanAndPurge(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)
	old := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	res := &model.ScanResult{
		ScanID: "abc",
		Market: "sp_500",
		Candidates: []model.Candidate{{
			Instrument: model.Instrument{Symbol: "MSFT"},
			Score:      68.25,
			Latest:     model.Snapshot{Close: 410, RSI: model.Some(47), EMA200: model.None()},
		}},
		Count:     1,
		ScannedAt: today.Add(21 * time.Hour),
	}
	key := ScanKey("sp_500", "all")
	for _, d := range []time.Time{old, today} {
		if err := c.PutScan(ctx, key, d, res); err != nil {
			t.Fatalf("put scan: %v", err)
		}
	}
	if err := c.PutBars(ctx, "MSFT", old, []model.OHLCV{{Close: 1}}); err != nil {
		t.Fatalf("put bars: %v", err)
	}

	got, ok, err := c.GetScan(ctx, key, today)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.ScanID != "abc" || len(got.Candidates) != 1 || got.Candidates[0].Score != 68.25 {
		t.Errorf("unexpected result %+v", got)
	}
	if rsi, ok := got.Candidates[0].Latest.RSI.Get(); !ok || rsi != 47 {
		t.Errorf("expected RSI 47, got %v", rsi)
	}
	if got.Candidates[0].Latest.EMA200.Valid() {
		t.Error("absent indicator should stay absent")
	}

	if err := c.Purge(ctx, today.AddDate(0, 0, -3)); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, ok, _ := c.GetScan(ctx, key, old); ok {
		t.Error("old scan should be purged")
	}
	if _, ok, _ := c.GetBars(ctx, "MSFT", old); ok {
		t.Error("old bars should be purged")
	}
	if _, ok, _ := c.GetScan(ctx, key, today); !ok {
		t.Error("today's scan should survive the purge")
	}
}
