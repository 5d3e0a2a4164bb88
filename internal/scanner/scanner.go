package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SwingScreener/internal/cache"
	"SwingScreener/internal/collector"
	"SwingScreener/internal/model"
	"SwingScreener/internal/strategy"
)

// Universe resolves a market key to its instruments.
type Universe interface {
	Load(ctx context.Context, market string) ([]model.Instrument, error)
}

// BarSource returns the daily history of one instrument.
type BarSource interface {
	Bars(ctx context.Context, inst model.Instrument) ([]model.OHLCV, error)
}

// Scanner screens every instrument of a market and ranks the candidates.
type Scanner struct {
	Universe Universe
	Bars     BarSource
	Cache    cache.Cache
	Params   strategy.Params
	Workers  int
	KeepDays int
	Now      func() time.Time
}

// New creates a Scanner. A nil cache disables result caching.
func New(u Universe, bars BarSource, c cache.Cache, p strategy.Params, workers, keepDays int) *Scanner {
	if c == nil {
		c = cache.NewNoopCache()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Scanner{
		Universe: u,
		Bars:     bars,
		Cache:    c,
		Params:   p,
		Workers:  workers,
		KeepDays: keepDays,
		Now:      time.Now,
	}
}

// Scope names the slice of a market a scan covered: the stock limit, or "all".
func Scope(maxStocks int) string {
	if maxStocks > 0 {
		return strconv.Itoa(maxStocks)
	}
	return "all"
}

// outcome is the classification of one instrument.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeFiltered
	outcomeCandidate
)

type instrumentResult struct {
	outcome   outcome
	candidate *model.Candidate
}

// Cached returns today's stored result for market and scope, if any.
func (s *Scanner) Cached(ctx context.Context, market, scope string) (*model.ScanResult, bool, error) {
	res, ok, err := s.Cache.GetScan(ctx, cache.ScanKey(market, scope), s.Now())
	if err != nil || !ok {
		return nil, false, err
	}
	res.Cached = true
	return res, true, nil
}

// Scan screens market, limited to the first maxStocks instruments when maxStocks > 0.
// A result already cached today is returned as is, flagged cached. Per-instrument
// failures are counted as skipped and never abort the scan.
func (s *Scanner) Scan(ctx context.Context, market string, maxStocks int) (*model.ScanResult, error) {
	scope := Scope(maxStocks)
	if res, ok, err := s.Cached(ctx, market, scope); err != nil {
		log.Printf("[WARN] read cached scan %s_%s: %v", market, scope, err)
	} else if ok {
		log.Printf("[INFO] serving cached scan %s_%s from %s", market, scope, res.ScannedAt.Format(time.RFC3339))
		return res, nil
	}

	now := s.Now()
	if s.KeepDays > 0 {
		if err := s.Cache.Purge(ctx, now.AddDate(0, 0, -s.KeepDays)); err != nil {
			log.Printf("[WARN] purge cache: %v", err)
		}
	}

	insts, err := s.Universe.Load(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("load universe %s: %w", market, err)
	}
	if len(insts) == 0 {
		return nil, fmt.Errorf("load universe %s: no instruments", market)
	}
	if maxStocks > 0 && len(insts) > maxStocks {
		insts = insts[:maxStocks]
	}

	log.Printf("[INFO] scanning %d instruments of %s with %d workers", len(insts), market, s.Workers)
	p := s.Params.ForMarket(collector.IsUSMarket(market))

	results := make([]instrumentResult, len(insts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i, inst := range insts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.evaluate(gctx, inst, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", market, err)
	}

	res := &model.ScanResult{
		ScanID:    uuid.NewString(),
		Market:    market,
		ScannedAt: now,
		Stats:     model.ScanStats{Total: len(insts)},
	}
	var candidates []model.Candidate
	for _, r := range results {
		res.Stats.Scanned++
		switch r.outcome {
		case outcomeCandidate:
			candidates = append(candidates, *r.candidate)
		case outcomeFiltered:
			res.Stats.Filtered++
		default:
			res.Stats.Skipped++
		}
	}
	res.Candidates = strategy.Rank(candidates)
	res.Count = len(res.Candidates)

	if err := s.Cache.PutScan(ctx, cache.ScanKey(market, scope), now, res); err != nil {
		log.Printf("[WARN] store scan %s_%s: %v", market, scope, err)
	}
	log.Printf("[INFO] scan %s done: %d candidates, %d filtered, %d skipped of %d",
		market, res.Count, res.Stats.Filtered, res.Stats.Skipped, res.Stats.Total)
	return res, nil
}

// evaluate fetches and screens one instrument. Errors are logged and reported as skipped.
func (s *Scanner) evaluate(ctx context.Context, inst model.Instrument, p strategy.Params) instrumentResult {
	bars, err := s.Bars.Bars(ctx, inst)
	if err != nil {
		var short *model.InsufficientDataError
		if errors.As(err, &short) {
			log.Printf("[WARN] %s skipped: %v", inst.Symbol, err)
		} else {
			log.Printf("[WARN] %s fetch failed: %v", inst.Symbol, err)
		}
		return instrumentResult{outcome: outcomeSkipped}
	}

	cand, det, err := strategy.Evaluate(inst, bars, p)
	if err != nil {
		log.Printf("[WARN] %s skipped: %v", inst.Symbol, err)
		return instrumentResult{outcome: outcomeSkipped}
	}
	if cand == nil {
		// Failed filters and missing plans are filtered; too few signals is a skip.
		if det.Passed || det.Reason == model.ReasonFilterFailed {
			return instrumentResult{outcome: outcomeFiltered}
		}
		return instrumentResult{outcome: outcomeSkipped}
	}
	return instrumentResult{outcome: outcomeCandidate, candidate: cand}
}
