package main

import (
	"context"
	"os"
	"strings"

	"github.com/fhuszti/levigram-go/internal/config"
	"github.com/fhuszti/levigram-go/internal/db"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/migration"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init("migrate")

	if cfg.MariaDBDSN == "" {
		logger.Warn(ctx, "⚠️  MARIADB_DSN not set, nothing to migrate")
		return
	}

	database, err := db.New(ctx, db.Config{
		DSN:             withMultiStatements(cfg.MariaDBDSN),
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	if err := migration.MigrateUp(ctx, database.DB); err != nil {
		logger.Errorf(ctx, "❌  Migration up failed: %v", err)
		os.Exit(1)
	}

	logger.Info(ctx, "✅  Migrations applied successfully")
}

func withMultiStatements(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&multiStatements=true"
	}
	return dsn + "?multiStatements=true"
}
