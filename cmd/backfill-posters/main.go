package main

import (
	"context"
	"log"
	"time"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/config"
	"github.com/fhuszti/levigram-go/internal/db"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/repository/mariadb"
	"github.com/fhuszti/levigram-go/internal/task"
	"github.com/fhuszti/levigram-go/internal/usecase/backfill"
)

// uploads of failed submissions younger than this may still be retried
const orphanAge = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌  Configuration error: %v", err)
	}

	ctx := context.Background()
	remote := backend.NewClient(cfg.BackendURL, cfg.BackendServiceToken, cfg.BackendTimeout)
	scanner := backfill.NewBacklogScanner(remote, initDispatcher(cfg))

	n, err := scanner.ScanFeed(ctx, cfg.BackfillMaxPages)
	if err != nil {
		log.Fatalf("❌  Poster backlog scan failed after %d task(s): %v", n, err)
	}
	log.Printf("✅  Poster backlog scan completed: %d task(s) enqueued", n)

	dbCfg := db.Config{
		DSN:             cfg.MariaDBDSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	if !dbCfg.Enabled() {
		return
	}
	database, err := db.New(ctx, dbCfg)
	if err != nil {
		log.Fatalf("❌  Failed to connect to db: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("DB close error: %v", err)
		}
	}()

	orphans, err := backfill.ReportOrphans(ctx, mariadb.NewUploadRepository(database.DB), orphanAge)
	if err != nil {
		log.Printf("❌  Could not list orphaned uploads: %v", err)
		return
	}
	log.Printf("✅  %d orphaned upload(s) older than %s", len(orphans), orphanAge)
}

func initDispatcher(cfg *config.Settings) port.TaskDispatcher {
	if cfg.RedisAddr == "" {
		log.Printf("⚠️  Redis not configured: dry run, no task will be enqueued")
		return task.NewNoopDispatcher()
	}
	return task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
}
