package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"SwingScreener/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists bars and scan results to a SQLite database.
type SQLiteCache struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the web server read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite cache opened: %s", dbPath)
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ohlcv_cache (
			ticker     TEXT NOT NULL,
			fetch_date TEXT NOT NULL,
			data_json  TEXT NOT NULL,
			PRIMARY KEY (ticker, fetch_date)
		)`,
		`CREATE TABLE IF NOT EXISTS scan_results (
			scan_key     TEXT NOT NULL,
			scan_date    TEXT NOT NULL,
			results_json TEXT NOT NULL,
			scanned_at   INTEGER NOT NULL,
			PRIMARY KEY (scan_key, scan_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ohlcv_date ON ohlcv_cache(fetch_date)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_date ON scan_results(scan_date)`,
	}

	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) GetBars(ctx context.Context, ticker string, day time.Time) ([]model.OHLCV, bool, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`SELECT data_json FROM ohlcv_cache WHERE ticker = ? AND fetch_date = ?`,
		ticker, dayKey(day)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query bars %s: %w", ticker, err)
	}

	var bars []model.OHLCV
	if err := json.Unmarshal([]byte(data), &bars); err != nil {
		return nil, false, fmt.Errorf("decode bars %s: %w", ticker, err)
	}
	return bars, true, nil
}

func (c *SQLiteCache) PutBars(ctx context.Context, ticker string, day time.Time, bars []model.OHLCV) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("encode bars %s: %w", ticker, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ohlcv_cache (ticker, fetch_date, data_json) VALUES (?,?,?)`,
		ticker, dayKey(day), string(data))
	return err
}

func (c *SQLiteCache) GetScan(ctx context.Context, key string, day time.Time) (*model.ScanResult, bool, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`SELECT results_json FROM scan_results WHERE scan_key = ? AND scan_date = ?`,
		key, dayKey(day)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query scan %s: %w", key, err)
	}

	res := &model.ScanResult{}
	if err := json.Unmarshal([]byte(data), res); err != nil {
		return nil, false, fmt.Errorf("decode scan %s: %w", key, err)
	}
	return res, true, nil
}

func (c *SQLiteCache) PutScan(ctx context.Context, key string, day time.Time, res *model.ScanResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode scan %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scan_results (scan_key, scan_date, results_json, scanned_at) VALUES (?,?,?,?)`,
		key, dayKey(day), string(data), res.ScannedAt.Unix())
	return err
}

func (c *SQLiteCache) Purge(ctx context.Context, before time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := dayKey(before)
	bars, err := c.db.ExecContext(ctx, `DELETE FROM ohlcv_cache WHERE fetch_date < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("purge bars: %w", err)
	}
	scans, err := c.db.ExecContext(ctx, `DELETE FROM scan_results WHERE scan_date < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("purge scans: %w", err)
	}

	nb, _ := bars.RowsAffected()
	ns, _ := scans.RowsAffected()
	if nb+ns > 0 {
		log.Printf("[INFO] cache purged before %s: %d bar sets, %d scans", cutoff, nb, ns)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	log.Println("[INFO] closing sqlite cache")
	return c.db.Close()
}
