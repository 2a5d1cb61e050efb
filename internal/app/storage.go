package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/config"
	"github.com/Freeeeeet/tuition_market/internal/repository"
	"github.com/Freeeeeet/tuition_market/internal/repository/memory"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OpenStore открывает хранилище из конфига. Для postgres применяет миграции,
// если включён MIGRATIONS_AUTO. Возвращённую функцию нужно вызвать при выходе.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data will be lost on restart")
		return memory.New().Service(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	if cfg.MigrationsAuto {
		migrator, err := NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		err = migrator.Run(ctx)
		if cerr := migrator.Close(); cerr != nil {
			logger.Warn("Failed to close migrator", zap.Error(cerr))
		}
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	return repository.NewStore(pool), pool.Close, nil
}
