package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/cache"
	"github.com/fhuszti/levigram-go/internal/cloudinary"
	"github.com/fhuszti/levigram-go/internal/config"
	"github.com/fhuszti/levigram-go/internal/db"
	workerHandler "github.com/fhuszti/levigram-go/internal/handler/worker"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/optimiser"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/repository/mariadb"
	"github.com/fhuszti/levigram-go/internal/storage"
	"github.com/fhuszti/levigram-go/internal/task"
	"github.com/fhuszti/levigram-go/internal/usecase/backfill"
	"github.com/fhuszti/levigram-go/internal/usecase/feed"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const downloadTimeout = 5 * time.Minute

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	logger.Init("worker")

	database := initDb(cfg)
	var ledger port.UploadLedger = mariadb.NewNoopLedger()
	if database != nil {
		ledger = mariadb.NewUploadRepository(database.DB)
	}

	ff := optimiser.NewFFmpeg(cfg.FFmpegPath)
	if !ff.Available() {
		logger.Errorf(ctx, "❌  %q not found: posters cannot be extracted", cfg.FFmpegPath)
		os.Exit(1)
	}
	var offset time.Duration
	if cfg.PosterStrategy == config.PosterStrategyOffset {
		offset = cfg.PosterSeekOffset
	}
	compressor := optimiser.NewCompressor(optimiser.NewWebPEncoder())
	opt := optimiser.NewOptimiser(optimiser.NewNormalizer(ff), compressor, optimiser.NewPosterExtractor(ff, compressor, offset))

	remote := backend.NewClient(cfg.BackendURL, cfg.BackendServiceToken, cfg.BackendTimeout).
		WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout)
	// edits go through the feed writer so the API stops serving the poster-less post
	writer := feed.NewWriter(remote, remote, cache.NewCache(cfg.RedisAddr, cfg.RedisPassword))
	backfillSvc := backfill.NewPosterBackfiller(
		remote,
		writer,
		backfill.NewHTTPDownloader(downloadTimeout, cfg.BackfillMaxBytes),
		opt,
		initUploader(ctx, cfg),
		ledger,
		os.TempDir(),
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeBackfillPoster, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseBackfillPosterPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.BackfillPosterHandler(ctx, p, backfillSvc)
	})

	if cfg.WorkerMetricsPort > 0 {
		go serveMetrics(ctx, cfg.WorkerMetricsPort)
	}

	runWorker(ctx, mux, cfg, database)
}

// initDb returns nil when no DSN is configured.
func initDb(cfg *config.Settings) *db.Database {
	ctx := context.Background()
	dbCfg := db.Config{
		DSN:             cfg.MariaDBDSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	if !dbCfg.Enabled() {
		logger.Warn(ctx, "⚠️  MARIADB_DSN not set, backfilled posters are not recorded")
		return nil
	}

	logger.Info(ctx, "initialising database...")
	database, err := db.New(ctx, dbCfg)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}

func initUploader(ctx context.Context, cfg *config.Settings) port.Uploader {
	if cfg.UploadBackend != config.UploadBackendMinio {
		return cloudinary.NewClient(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, &http.Client{Timeout: 2 * time.Minute})
	}

	strg, err := storage.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}
	up, err := strg.NewPublicUploader(ctx, cfg.PublicBucket, uuid.NewUUID)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize public bucket %q: %v", cfg.PublicBucket, err)
		os.Exit(1)
	}
	return up
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + strconv.Itoa(port)
	logger.Infof(ctx, "📈 Worker metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); !errors.Is(err, http.ErrServerClosed) {
		logger.Warnf(ctx, "⚠️  Metrics listener stopped: %v", err)
	}
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings, database *db.Database) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{
		// ffmpeg is CPU bound
		Concurrency:     4,
		ShutdownTimeout: 30 * time.Second,
	})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// stop accepting new tasks, finish in-flight within ShutdownTimeout
	srv.Shutdown()

	if database != nil {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}
	logger.Info(ctx, "✅  Worker gracefully stopped")
}
