package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"SwingScreener/internal/collector"
	"SwingScreener/internal/model"
	"SwingScreener/internal/notifier"
	"SwingScreener/internal/scanner"

	"github.com/robfig/cron/v3"
)

// Screener runs and recalls market scans.
type Screener interface {
	Scan(ctx context.Context, market string, maxStocks int) (*model.ScanResult, error)
	Cached(ctx context.Context, market, scope string) (*model.ScanResult, bool, error)
}

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the daily scans and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  Screener
	Notifier  Sender
	Markets   []string
	MaxStocks int
	TopN      int
	Ctx       context.Context
	Now       func() time.Time

	mu        sync.Mutex
	calendars map[string]*tradingCalendar
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc Screener, n Sender, markets []string, maxStocks, topN int) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Screener:  sc,
		Notifier:  n,
		Markets:   markets,
		MaxStocks: maxStocks,
		TopN:      topN,
		Ctx:       ctx,
		Now:       time.Now,
		calendars: make(map[string]*tradingCalendar),
	}
}

// Register adds one scan task per configured market.
func (s *Scheduler) Register(scanCron string) error {
	for _, market := range s.Markets {
		if !collector.KnownMarket(market) {
			return fmt.Errorf("register scan task: %w: %s", collector.ErrUnknownMarket, market)
		}
		if _, err := s.Cron.AddFunc(scanCron, func() { s.scanTask(market) }); err != nil {
			return fmt.Errorf("register scan task %s: %w", market, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow scans every configured market immediately, ignoring the trading calendar.
func (s *Scheduler) RunNow() {
	for _, market := range s.Markets {
		s.runScan(market)
	}
}

func (s *Scheduler) scanTask(market string) {
	now := s.Now()
	if !s.calendar(market).IsTradingDay(now) {
		log.Printf("[INFO] %s closed on %s, skipping scan", market, now.Format("2006-01-02"))
		return
	}
	s.runScan(market)
}

func (s *Scheduler) runScan(market string) {
	log.Printf("[INFO] running scheduled scan for %s", market)
	res, err := s.Screener.Scan(s.Ctx, market, s.MaxStocks)
	if err != nil {
		log.Printf("[ERROR] scan %s: %v", market, err)
		s.trySend(fmt.Sprintf("❌ Scan failed for %s: %s", html.EscapeString(collector.MarketName(market)), html.EscapeString(err.Error())))
		return
	}
	s.trySend(notifier.FormatScanReport(collector.MarketName(market), res, s.TopN))
}

func (s *Scheduler) calendar(market string) *tradingCalendar {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tc, ok := s.calendars[market]; ok {
		return tc
	}
	tc := calendarFor(market)
	s.calendars[market] = tc
	return tc
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText()
	}
	name := strings.ToLower(fields[0])
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/scan":
		market := s.defaultMarket()
		if len(args) > 0 {
			market = strings.ToLower(args[0])
		}
		if !collector.KnownMarket(market) {
			return unknownMarketText(market)
		}
		res, err := s.Screener.Scan(s.Ctx, market, s.MaxStocks)
		if err != nil {
			log.Printf("[ERROR] scan %s: %v", market, err)
			return fmt.Sprintf("❌ Scan failed: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatScanReport(collector.MarketName(market), res, s.TopN)
	case "/top":
		market := s.defaultMarket()
		if len(args) > 0 {
			market = strings.ToLower(args[0])
		}
		if !collector.KnownMarket(market) {
			return unknownMarketText(market)
		}
		res, ok := s.lastResult(market)
		if !ok {
			return fmt.Sprintf("No scan for %s yet today. Send /scan %s to run one.", html.EscapeString(collector.MarketName(market)), market)
		}
		return notifier.FormatScanReport(collector.MarketName(market), res, s.TopN) + "\n<i>" + notifier.FormatScanAge(res, s.Now()) + "</i>"
	case "/stock":
		if len(args) == 0 {
			return "Usage: /stock SYMBOL [market]"
		}
		symbol := strings.ToUpper(args[0])
		market := s.defaultMarket()
		if len(args) > 1 {
			market = strings.ToLower(args[1])
		}
		if !collector.KnownMarket(market) {
			return unknownMarketText(market)
		}
		res, ok := s.lastResult(market)
		if !ok {
			return fmt.Sprintf("No scan for %s yet today.", html.EscapeString(collector.MarketName(market)))
		}
		for _, c := range res.Candidates {
			if strings.EqualFold(c.Symbol, symbol) {
				return notifier.FormatCandidate(c)
			}
		}
		return fmt.Sprintf("%s is not a candidate in today's %s scan.", html.EscapeString(symbol), html.EscapeString(collector.MarketName(market)))
	case "/markets":
		var b strings.Builder
		b.WriteString("Markets:\n")
		for _, m := range collector.Markets() {
			b.WriteString(fmt.Sprintf("• %s: %s\n", m, html.EscapeString(collector.MarketName(m))))
		}
		return b.String()
	default:
		return helpText()
	}
}

// lastResult returns today's cached scan for market at the scheduled scope.
func (s *Scheduler) lastResult(market string) (*model.ScanResult, bool) {
	res, ok, err := s.Screener.Cached(s.Ctx, market, scanner.Scope(s.MaxStocks))
	if err != nil {
		log.Printf("[WARN] read cached scan %s: %v", market, err)
		return nil, false
	}
	return res, ok
}

func (s *Scheduler) defaultMarket() string {
	if len(s.Markets) > 0 {
		return s.Markets[0]
	}
	return "nifty_500"
}

func unknownMarketText(market string) string {
	return fmt.Sprintf("Unknown market %q. Send /markets for the list.", html.EscapeString(market))
}

func helpText() string {
	return "Commands:\n" +
		"• /scan [market] run a scan now\n" +
		"• /top [market] today's last scan\n" +
		"• /stock SYMBOL [market] candidate details\n" +
		"• /markets list markets"
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
