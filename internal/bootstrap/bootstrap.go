// Package bootstrap wires configuration, logging and the selected store
// backend for the commands under cmd/.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/config"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/database"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/logging"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/service"
)

// Init loads configuration and configures the global logger.
func Init() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := logging.Setup(config.LogLevel(), config.LogPretty()); err != nil {
		return err
	}
	return nil
}

// OpenStore connects the configured backend. The returned close function
// releases its resources and is never nil.
func OpenStore(ctx context.Context) (repository.Store, func() error, error) {
	noop := func() error { return nil }

	switch backend := config.StoreBackend(); backend {
	case config.BackendPostgres:
		db, err := database.Connect()
		if err != nil {
			return nil, noop, fmt.Errorf("db connect failed: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return repository.New(db), db.Close, nil
	case config.BackendDynamoDB:
		s, err := cloud.NewDynamoStoreFromConfig(ctx, config.AWSRegion(), config.DevicesTable(), config.LogsTable())
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case config.BackendMemory:
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return repository.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Services builds the service layer on store, adding the S3 exporter when
// cloud services are enabled.
func Services(ctx context.Context, store repository.Store) (*service.Services, error) {
	opts := service.Options{
		BatchSize:   config.IngestBatchSize(),
		MaxAttempts: config.IngestMaxAttempts(),
	}
	if config.UseCloudServices() {
		exp, err := cloud.NewS3ExporterFromConfig(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			return nil, err
		}
		opts.Exporter = exp
	}
	return service.New(store, opts), nil
}
