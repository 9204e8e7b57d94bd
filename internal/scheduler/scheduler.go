package scheduler

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketAnalyzer/internal/collector"
	"MarketAnalyzer/internal/logging"
	"MarketAnalyzer/internal/metrics"
	"MarketAnalyzer/internal/model"
	"MarketAnalyzer/internal/notifier"
	"MarketAnalyzer/internal/recorder"
)

const (
	sendRetries = 3

	defaultHistoryRows = 5
	maxHistoryRows     = 50
	maxLookbackDays    = 3650
)

// Sender delivers reports. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures what the scheduler analyzes.
type Options struct {
	Watchlist    []string
	LookbackDays int
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

// Scheduler manages the cron sweep and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  Sender
	Ctx       context.Context

	watchlist []string
	lookback  int
	metrics   *metrics.Metrics
	log       *zap.Logger

	running sync.WaitGroup
}

// NewScheduler creates a new Scheduler. A nil sender disables notifications.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, sender Sender, opts Options) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Notifier:  sender,
		Ctx:       ctx,
		watchlist: opts.Watchlist,
		lookback:  opts.LookbackDays,
		metrics:   opts.Metrics,
		log:       logging.OrNop(opts.Log).Named("scheduler"),
	}
}

// Register adds the daily watchlist sweep.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailySweep); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Strings("watchlist", s.watchlist))
}

// Stop stops the cron scheduler and waits for running sweeps to finish,
// including those started by Trigger.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.running.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes the daily sweep immediately and waits for it.
func (s *Scheduler) RunNow() {
	s.dailySweep()
}

// Trigger starts the daily sweep in the background (for RUN_ON_START).
// Stop waits for it.
func (s *Scheduler) Trigger() {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.dailySweep()
	}()
}

func (s *Scheduler) dailySweep() {
	runID := recorder.NewRunID()
	log := s.log.With(zap.String("run_id", runID))
	log.Info("running daily sweep", zap.Int("symbols", len(s.watchlist)))

	analyses, err := s.Collector.AnalyzeWatchlist(s.Ctx, s.watchlist, s.lookback)
	if err != nil {
		log.Warn("sweep finished with errors", zap.Error(err))
	}
	s.metrics.IncSweeps()

	for _, a := range analyses {
		if err := s.Recorder.RecordAnalysis(s.Ctx, runID, a); err != nil {
			log.Error("record analysis", zap.String("symbol", a.Symbol), zap.Error(err))
		}
	}

	s.trySend(notifier.FormatDigest(analyses, failedSymbols(s.watchlist, analyses)))
	log.Info("daily sweep complete", zap.Int("analyzed", len(analyses)))
}

func failedSymbols(watchlist []string, analyses []*model.Analysis) []string {
	done := make(map[string]bool, len(analyses))
	for _, a := range analyses {
		done[strings.ToUpper(a.Symbol)] = true
	}
	var failed []string
	for _, sym := range watchlist {
		if !done[strings.ToUpper(sym)] {
			failed = append(failed, sym)
		}
	}
	return failed
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	cmd := strings.ToLower(fields[0])
	// "/ta@my_bot" in group chats
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "/ta":
		return s.handleAnalyze(ctx, args)
	case "/history":
		return s.handleHistory(ctx, args)
	case "/watchlist":
		return notifier.FormatWatchlist(s.watchlist)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) handleAnalyze(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "用法: /ta SYMBOL [days]"
	}
	symbol := strings.ToUpper(args[0])
	days := s.lookback
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > maxLookbackDays {
			return fmt.Sprintf("❌ 无效天数: %s (1-%d)", html.EscapeString(args[1]), maxLookbackDays)
		}
		days = n
	}

	a, err := s.Collector.AnalyzeLookback(ctx, symbol, days)
	if err != nil {
		s.log.Warn("command analysis failed", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Sprintf("❌ 分析 %s 失败: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
	}
	if err := s.Recorder.RecordAnalysis(ctx, recorder.NewRunID(), a); err != nil {
		s.log.Error("record analysis", zap.String("symbol", symbol), zap.Error(err))
	}
	if q, err := s.Collector.Quote(ctx, symbol); err != nil {
		s.log.Debug("quote unavailable", zap.String("symbol", symbol), zap.Error(err))
	} else {
		a.Quote = model.NewValue(q)
	}
	return notifier.FormatAnalysis(a)
}

func (s *Scheduler) handleHistory(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "用法: /history SYMBOL [n]"
	}
	symbol := strings.ToUpper(args[0])
	limit := defaultHistoryRows
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > maxHistoryRows {
			return fmt.Sprintf("❌ 无效条数: %s (1-%d)", html.EscapeString(args[1]), maxHistoryRows)
		}
		limit = n
	}

	snaps, err := s.Recorder.Recent(ctx, symbol, limit)
	if err != nil {
		s.log.Error("load history", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Sprintf("❌ 读取 %s 历史失败", html.EscapeString(symbol))
	}
	if len(snaps) == 0 {
		snaps, err = s.backfillHistory(ctx, symbol, limit)
		if err != nil {
			s.log.Warn("history backfill failed", zap.String("symbol", symbol), zap.Error(err))
			return fmt.Sprintf("❌ 读取 %s 历史失败: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
		}
	}
	return notifier.FormatHistory(symbol, snaps)
}

// backfillHistory recomputes the last limit bars from fetched data when
// nothing has been recorded for symbol yet. Rows are newest first.
func (s *Scheduler) backfillHistory(ctx context.Context, symbol string, limit int) ([]recorder.Snapshot, error) {
	series, sets, err := s.Collector.HistoryLookback(ctx, symbol, s.lookback)
	if err != nil {
		return nil, err
	}
	var snaps []recorder.Snapshot
	for i := len(sets) - 1; i >= 0 && len(snaps) < limit; i-- {
		snaps = append(snaps, recorder.Snapshot{
			Symbol:     symbol,
			Interval:   series.Interval,
			Source:     s.Collector.Fetcher.Name(),
			Bars:       i + 1,
			Close:      series.Bars[i].Close,
			Indicators: sets[i],
		})
	}
	return snaps, nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}
