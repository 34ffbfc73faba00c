package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/amqp"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/config"
	applog "github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/log"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/push"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/services"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentSweep})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// With AMQP configured, notifications go through the queue and the
	// notify-worker delivers them. Without it, this worker pushes to
	// Expo directly.
	var sink services.NotificationSink
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, falling back to direct push delivery", "error", err)
		} else {
			defer amqpClient.Close()
			sink = services.NewQueueDispatcher(amqpClient)
			logger.Info("AMQP client initialized - notifications will route through notify-worker")
		}
	}
	if sink == nil {
		sender := push.NewExpoClient(cfg.ExpoPushURL, cfg.PushTimeout)
		sink = services.NewPushDispatcher(repo, sender, logger.WithComponent(applog.ComponentNotify).Logger)
		logger.Info("Direct push delivery enabled", "expo_url", cfg.ExpoPushURL)
	}

	processor := services.NewSweepProcessor(repo, sink, logger.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring sweep configured",
		"sweep_hour_utc", cfg.SweepHourUTC,
		"check_interval", cfg.SweepCheckInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	go runSchedule(ctx, processor, cfg.SweepHourUTC, cfg.SweepCheckInterval, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()

	logger.Info("Recurring-worker shutdown complete")
}

// runSchedule fires the sweep once per UTC day, at or after the
// configured hour. A missed window (process down, clock jump) is caught
// on the next check rather than skipped for the day.
func runSchedule(ctx context.Context, processor *services.SweepProcessor, sweepHour int, checkInterval time.Duration, logger *applog.Logger) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	var lastRunDay string

	check := func(now time.Time) {
		now = now.UTC()
		day := now.Format("2006-01-02")
		if now.Hour() < sweepHour || day == lastRunDay {
			return
		}

		stats, err := processor.Run(ctx, now)
		if errors.Is(err, services.ErrSweepRunning) {
			return
		}
		if err != nil {
			logger.Error("Sweep run failed", "error", err)
			return
		}
		lastRunDay = day
		logger.Info("Sweep run complete",
			"checked", stats.Checked,
			"advanced", stats.Advanced,
			"skipped", stats.Skipped)
	}

	check(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			check(now)
		}
	}
}
