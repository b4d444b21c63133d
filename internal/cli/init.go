// Package cli holds the powerbill command tree and the initialization helpers
// shared with cmd/powerbill-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"powerbill/internal/amqp"
	"powerbill/internal/auth"
	"powerbill/internal/backend"
	"powerbill/internal/clock"
	"powerbill/internal/config"
	"powerbill/internal/log"
	"powerbill/internal/services"
	"powerbill/internal/tariff"
)

// SetupLogger initializes structured logging on stdout at the given level and
// sets it as the default logger. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	return SetupLoggerTo(os.Stdout, level)
}

// SetupLoggerTo is SetupLogger writing to w. The shell logs to stderr so
// records do not interleave with its menus.
func SetupLoggerTo(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTariff returns the tariff schedule from path, or the built-in one when
// path is empty.
func LoadTariff(path string) (tariff.Schedule, error) {
	if path == "" {
		return tariff.Default(), nil
	}
	s, err := tariff.LoadFile(path)
	if err != nil {
		return tariff.Schedule{}, fmt.Errorf("load tariff %s: %w", path, err)
	}
	return s, nil
}

// Runtime bundles the collaborators every entry point needs.
type Runtime struct {
	Config   *config.Config
	Backend  *backend.BackendResult
	Billing  *services.BillingService
	Tariff   tariff.Schedule
	Auth     *auth.Authenticator
	Reminder *services.ReminderProcessor
}

// NewRuntime builds the store, the optional event publisher and the billing
// engine described by cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	schedule, err := LoadTariff(cfg.TariffFile)
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.NewAuthenticator(cfg.AdminPasswordHash)
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	billing := services.NewBillingService(res.Store, clock.System{}, res.Events)
	reminder := services.NewReminderProcessor(billing, res.Events, services.ReminderProcessorConfig{
		Interval: cfg.ReminderInterval,
	})

	return &Runtime{
		Config:   cfg,
		Backend:  res,
		Billing:  billing,
		Tariff:   schedule,
		Auth:     authenticator,
		Reminder: reminder,
	}, nil
}

// Close releases the store and the broker connection.
func (r *Runtime) Close() error {
	if r.Backend == nil || r.Backend.Cleanup == nil {
		return nil
	}
	return r.Backend.Cleanup()
}

// ErrEventsDisabled is returned by NewEventClient when no broker is configured.
var ErrEventsDisabled = errors.New("AMQP_URL is required to consume bill events")

// NewEventClient connects to the broker named by cfg without opening the
// bill store. The notification worker needs nothing else.
func NewEventClient(cfg *config.Config) (*amqp.Client, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if backendCfg.AMQPURL == "" {
		return nil, ErrEventsDisabled
	}
	client, err := amqp.NewClient(backendCfg.AMQPURL, backendCfg.AMQPExchange, backendCfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}
