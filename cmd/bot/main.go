package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TrancheTrack/internal/app"
	"TrancheTrack/internal/config"
	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		logging.New("info").Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel)
	if err := cfg.ValidateBot(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}
	logger.Info().Str("benchmark", cfg.Benchmark).Msg("TrancheTrack starting")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Component("telegram"))

	a, err := app.New(ctx, cfg, logger, tn.Forwarder(ctx))
	if err != nil {
		logger.Fatal().Err(err).Msg("init")
	}
	defer a.Close()
	logger.Info().Str("provider", a.Collector.Fetcher.Name()).Msg("price source ready")

	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Ledger:     a.Ledger,
		Collector:  a.Collector,
		State:      a.State,
		Thresholds: a.Thresholds,
		Center:     a.Center,
		Sender:     tn,
		Recorder:   a.Recorder,
		Logger:     logger.Component("scheduler"),
	}, cfg.Benchmark, a.View())
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	logger.Info().Msg("telegram polling started")

	if cfg.Schedule.RunOnStart {
		logger.Info().Msg("run_on_start enabled, refreshing now")
		go sched.RunRefreshNow()
	}

	logger.Info().Str("cron", cfg.Schedule.RefreshCron).Msg("TrancheTrack is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received, stopping")
	cancel()
}
