package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SwingScreener/internal/cache"
	"SwingScreener/internal/collector"
	"SwingScreener/internal/config"
	"SwingScreener/internal/notifier"
	"SwingScreener/internal/scanner"
	"SwingScreener/internal/scheduler"
	"SwingScreener/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	market := flag.String("market", "", "market to scan (overrides scan.market)")
	maxStocks := flag.Int("n", -1, "scan only the first N stocks, 0 for all (overrides scan.max_stocks)")
	web := flag.Bool("web", false, "serve the JSON API instead of printing a table")
	daemon := flag.Bool("daemon", false, "run scheduled scans and answer Telegram commands")
	flag.Parse()

	_ = godotenv.Load(".env")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if *market != "" {
		cfg.Scan.Market = *market
	}
	if *maxStocks >= 0 {
		cfg.Scan.MaxStocks = *maxStocks
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if !collector.KnownMarket(cfg.Scan.Market) {
		log.Fatalf("[FATAL] unknown market %q, choose one of %v", cfg.Scan.Market, collector.Markets())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == "alpaca" {
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.AlpacaAPIKey, cfg.DataSource.AlpacaAPISecret)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	store := openCache(ctx, cfg)
	defer store.Close()

	days := collector.HistoryWindow(cfg.DataSource.HistoryDays, cfg.Strategy.WarmupDays)
	col := collector.NewCollector(fetcher, store, days, cfg.Strategy.MinHistory)
	universe := collector.NewUniverseLoader(cfg.Scan.DataDir, cfg.Proxy)
	sc := scanner.New(universe, col, store, cfg.Strategy, cfg.Scan.Workers, cfg.Cache.KeepDays)

	switch {
	case *daemon:
		runDaemon(ctx, cfg, sc)
	case *web:
		srv := server.New(sc, cfg.Scan.Market, cfg.Scan.MaxStocks)
		if err := srv.ListenAndServe(ctx, cfg.Web.Addr); err != nil {
			log.Fatalf("[FATAL] api server: %v", err)
		}
	default:
		runOnce(ctx, cfg, sc)
	}
}

// openCache selects the configured cache backend, falling back to no caching.
func openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	switch cfg.Cache.Driver {
	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.Cache.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite cache failed, using noop: %v", err)
			return cache.NewNoopCache()
		}
		return c
	case "redis":
		ttl := time.Duration(cfg.Cache.KeepDays) * 24 * time.Hour
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, ttl)
		if err != nil {
			log.Printf("[WARN] init redis cache failed, using noop: %v", err)
			return cache.NewNoopCache()
		}
		return c
	default:
		return cache.NewNoopCache()
	}
}

func runOnce(ctx context.Context, cfg *config.Config, sc *scanner.Scanner) {
	start := time.Now()
	res, err := sc.Scan(ctx, cfg.Scan.Market, cfg.Scan.MaxStocks)
	if err != nil {
		log.Fatalf("[FATAL] scan: %v", err)
	}

	fmt.Printf("\n%s swing candidates (%s)\n", collector.MarketName(res.Market), res.ScannedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Scanned %d, %d candidates, %d filtered, %d skipped in %s",
		res.Stats.Scanned, res.Count, res.Stats.Filtered, res.Stats.Skipped, time.Since(start).Round(time.Second))
	if res.Cached {
		fmt.Print(" (cached)")
	}
	fmt.Print("\n\n")
	if err := notifier.RenderTable(os.Stdout, res.Candidates); err != nil {
		log.Fatalf("[FATAL] render table: %v", err)
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, sc *scanner.Scanner) {
	if err := cfg.ValidateNotifier(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	log.Println("[INFO] SwingScreener starting in scheduled mode...")

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	sched := scheduler.NewScheduler(ctx, sc, tn, cfg.Schedule.Markets, cfg.Scan.MaxStocks, cfg.Schedule.TopN)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if cfg.Web.Addr != "" {
		srv := server.New(sc, cfg.Scan.Market, cfg.Scan.MaxStocks)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Web.Addr); err != nil {
				log.Printf("[ERROR] api server: %v", err)
			}
		}()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, scanning now")
		go sched.RunNow()
	}

	log.Println("[INFO] SwingScreener is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}
