package migrate

import (
	"context"

	"ride-share/internal/general/config"
	"ride-share/internal/general/logger"
	"ride-share/internal/general/postgres"
)

// Run applies every pending schema migration and exits.
func Run(ctx context.Context, cfgPath string) error {
	logger := logger.New("migrate")
	ctx = logger.WithRequestID(ctx, "migrate-001")

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	db, err := postgres.OpenSQL(cfg)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to open database", err, nil)
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db, logger)
	if err != nil {
		logger.Error(ctx, "migration_failed", "Failed to apply migrations", err, map[string]any{"applied": applied})
		return err
	}
	logger.Info(ctx, "migrations_done", "Schema is up to date", map[string]any{"applied": applied})
	return nil
}
