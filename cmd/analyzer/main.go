package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"MarketAnalyzer/internal/collector"
	"MarketAnalyzer/internal/config"
	"MarketAnalyzer/internal/logging"
	"MarketAnalyzer/internal/metrics"
	"MarketAnalyzer/internal/model"
	"MarketAnalyzer/internal/notifier"
	"MarketAnalyzer/internal/recorder"
	"MarketAnalyzer/internal/scheduler"
)

func main() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	var (
		cfgPath = flag.String("config", defaultConfig, "path to the YAML config")
		symbol  = flag.String("symbol", "", "analyze one symbol, print its indicators as JSON and exit")
		start   = flag.String("start", "", "first date (YYYY-MM-DD) for -symbol")
		end     = flag.String("end", "", "end date (YYYY-MM-DD, exclusive) for -symbol")
		days    = flag.Int("days", 0, "lookback in calendar days for -symbol (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("[FATAL] init logger: %v", err)
	}

	if *symbol != "" {
		code := runOnce(cfg, logger, *symbol, *start, *end, *days)
		_ = logger.Sync()
		os.Exit(code)
	}
	if err := runDaemon(cfg, logger); err != nil {
		logger.Error("daemon exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var f collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		f = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		f = collector.NewYahooFetcher(cfg.Proxy)
	}
	return collector.NewRateLimited(f, cfg.DataSource.RequestsPerSecond)
}

// runOnce analyzes a single symbol and writes the indicator mapping to stdout.
func runOnce(cfg *config.Config, logger *zap.Logger, symbol, start, end string, days int) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	col := collector.NewCollector(newFetcher(cfg), cfg.Analysis.Interval, nil, logger)

	var (
		a   *model.Analysis
		err error
	)
	switch {
	case start != "" || end != "":
		var from, to time.Time
		from, to, err = parseRange(start, end)
		if err == nil {
			a, err = col.Analyze(ctx, symbol, from, to)
		}
	default:
		if days <= 0 {
			days = cfg.Analysis.LookbackDays
		}
		a, err = col.AnalyzeLookback(ctx, symbol, days)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze %s: %v\n", symbol, err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Indicators); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		return 1
	}
	return 0
}

// parseRange parses -start and -end. A missing end means today.
func parseRange(start, end string) (time.Time, time.Time, error) {
	if start == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-start is required with -end")
	}
	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse -start: %w", err)
	}
	to := time.Now().UTC()
	if end != "" {
		if to, err = time.Parse(time.DateOnly, end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -end: %w", err)
		}
	}
	return from, to, nil
}

func runDaemon(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("MarketAnalyzer starting...")

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		ms := metrics.NewServer(cfg.Metrics.Addr, m, logger)
		ms.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Stop(ctx); err != nil {
				logger.Warn("stop metrics server", zap.Error(err))
			}
		}()
	}

	fetcher := newFetcher(cfg)
	logger.Info("data source", zap.String("name", fetcher.Name()))
	col := collector.NewCollector(fetcher, cfg.Analysis.Interval, m, logger)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		tn     *notifier.TelegramNotifier
		sender scheduler.Sender
	)
	if cfg.TelegramEnabled() {
		var err error
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		if err != nil {
			logger.Warn("telegram disabled", zap.Error(err))
		} else {
			sender = tn
		}
	} else {
		logger.Info("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, col, rec, sender, scheduler.Options{
		Watchlist:    cfg.Analysis.Watchlist,
		LookbackDays: cfg.Analysis.LookbackDays,
		Metrics:      m,
		Log:          logger,
	})
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	var polling sync.WaitGroup
	defer polling.Wait()
	if tn != nil {
		polling.Add(1)
		go func() {
			defer polling.Done()
			tn.StartPolling(ctx, sched.HandleCommand)
		}()
		logger.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing daily sweep now")
		sched.Trigger()
	}

	logger.Info("MarketAnalyzer is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping...")
	cancel()
	return nil
}
