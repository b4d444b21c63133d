package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"powerbill/internal/cli"
	"powerbill/internal/log"
	"powerbill/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	if err := run(); err != nil {
		slog.Error("powerbill-worker failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	logger.Info("Starting powerbill-worker", "queue", cfg.AMQPQueue)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	client, err := cli.NewEventClient(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close broker connection", log.FieldError, err)
		}
	}()

	w := worker.NewNotificationWorker(worker.NewLogNotifier(logger), worker.DefaultDedupWindow)
	if err := client.ConsumeBillEvents(ctx, w.HandleBillEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("powerbill-worker stopped")
	return nil
}
