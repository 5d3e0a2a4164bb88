package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"SwingScreener/internal/model"
)

const redisPrefix = "swing:"

// RedisCache keeps bars and scan results in Redis as JSON. Entries expire on
// their own after ttl; Purge removes older days eagerly.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	log.Printf("[INFO] redis cache connected: %s", addr)
	return &RedisCache{client: client, prefix: redisPrefix, ttl: ttl}, nil
}

// Keys are "<prefix><kind>:<day>:<name>" so Purge can read the day back.
func (c *RedisCache) key(kind string, day time.Time, name string) string {
	return c.prefix + kind + ":" + dayKey(day) + ":" + name
}

func (c *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) GetBars(ctx context.Context, ticker string, day time.Time) ([]model.OHLCV, bool, error) {
	var bars []model.OHLCV
	ok, err := c.get(ctx, c.key("bars", day, ticker), &bars)
	if err != nil || !ok {
		return nil, false, err
	}
	return bars, true, nil
}

func (c *RedisCache) PutBars(ctx context.Context, ticker string, day time.Time, bars []model.OHLCV) error {
	return c.set(ctx, c.key("bars", day, ticker), bars)
}

func (c *RedisCache) GetScan(ctx context.Context, key string, day time.Time) (*model.ScanResult, bool, error) {
	res := &model.ScanResult{}
	ok, err := c.get(ctx, c.key("scan", day, key), res)
	if err != nil || !ok {
		return nil, false, err
	}
	return res, true, nil
}

func (c *RedisCache) PutScan(ctx context.Context, key string, day time.Time, res *model.ScanResult) error {
	return c.set(ctx, c.key("scan", day, key), res)
}

func (c *RedisCache) Purge(ctx context.Context, before time.Time) error {
	cutoff := dayKey(before)
	var stale []string

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		if day, ok := keyDay(strings.TrimPrefix(iter.Val(), c.prefix)); ok && day < cutoff {
			stale = append(stale, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan keys: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, stale...).Err(); err != nil {
		return fmt.Errorf("delete stale keys: %w", err)
	}
	log.Printf("[INFO] cache purged before %s: %d keys", cutoff, len(stale))
	return nil
}

// keyDay extracts the day from "<kind>:<day>:<name>".
func keyDay(key string) (string, bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return "", false
	}
	if _, err := time.Parse(dayLayout, parts[1]); err != nil {
		return "", false
	}
	return parts[1], true
}

func (c *RedisCache) Close() error {
	log.Println("[INFO] closing redis cache")
	return c.client.Close()
}
