package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"powerbill/internal/amqp"
	"powerbill/internal/services"
	"powerbill/internal/storage"
	"powerbill/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store services.BillStore
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"in_memory", storage.IsMemoryDSN(config.SQLiteDBPath))
		store = repo
	case MemoryBackend:
		store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: store}

	// AMQP is optional; the engine runs without events when the broker is down
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.AMQP = client
			result.Events = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
		if result.AMQP != nil {
			if err := result.AMQP.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	return result, nil
}
