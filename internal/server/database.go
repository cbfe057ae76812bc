package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	repo "github.com/joseph-ayodele/supplier-invoices/internal/repository"
)

// StoreConfig maps the environment backed database settings onto the
// repository configuration.
func StoreConfig(cfg common.DatabaseConfig) repo.Config {
	retries := cfg.TxRetries
	if retries < 0 {
		retries = 0
	}
	return repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		SQLitePath:       cfg.SQLitePath,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
		BusyTimeout:      cfg.BusyTimeout,
		TxRetries:        uint64(retries),
	}
}

// ConnectDB opens the store and brings its schema up to date.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.Store, error) {
	logger.Info("connecting to database", "driver", cfg.Driver)
	store, err := repo.Open(ctx, StoreConfig(cfg), logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		store.Close()
		return nil, err
	}
	logger.Info("successfully connected to database")
	return store, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, store *repo.Store, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging database")
	if err := store.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
