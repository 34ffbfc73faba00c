package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

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

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentNotify})
	applog.SetDefault(logger)

	logger.Info("Starting notify-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the notify-worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	sender := push.NewExpoClient(cfg.ExpoPushURL, cfg.PushTimeout)
	dispatcher := services.NewPushDispatcher(repo, sender, logger.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Consuming notifications", "queue", cfg.AMQPQueue, "expo_url", cfg.ExpoPushURL)
	err = amqpClient.ConsumeNotifications(ctx, func(msg *amqp.NotificationMessage) error {
		return dispatcher.Notify(ctx, msg.OwnerID, msg.Title, msg.Body, msg.Data)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Notify-worker shutdown complete")
}
