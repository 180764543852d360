package storefactory

import (
	"context"
	"fmt"

	"marginApp/config"
	"marginApp/internal/adapters/memory"
	"marginApp/internal/adapters/postgres"
	"marginApp/internal/adapters/sqlite"
	"marginApp/internal/ports"
)

// Open builds the position repository selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger ports.Logger) (ports.PositionRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: logger})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, postgres.Config{DSN: cfg.DatabaseURL, Logger: logger})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverMemory:
		logger.Warn(ctx, "Using in-memory position store; data is lost on exit")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver '%s': %w", cfg.StoreDriver, ports.ErrConfigurationError)
	}
}
