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
	"github.com/fhuszti/levigram-go/internal/handler/api"
	"github.com/fhuszti/levigram-go/internal/logger"
	cMiddleware "github.com/fhuszti/levigram-go/internal/middleware"
	"github.com/fhuszti/levigram-go/internal/optimiser"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/renderer"
	"github.com/fhuszti/levigram-go/internal/repository/mariadb"
	"github.com/fhuszti/levigram-go/internal/storage"
	"github.com/fhuszti/levigram-go/internal/usecase/compose"
	"github.com/fhuszti/levigram-go/internal/usecase/feed"
	"github.com/fhuszti/levigram-go/internal/usecase/profile"
	"github.com/fhuszti/levigram-go/internal/usecase/push"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// staged drafts and avatars older than this are collected by the bucket itself
const stagingExpiryDays = 1

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init("api")

	database := initDb(ctx, cfg)

	r := initRouter(ctx, cfg)

	strg := initStorage(ctx, cfg)
	staging := initStaging(ctx, strg, cfg)
	uploader := initUploader(ctx, strg, cfg)

	var ledger port.UploadLedger = mariadb.NewNoopLedger()
	if database != nil {
		ledger = mariadb.NewUploadRepository(database.DB)
	}

	var ca port.Cache
	if cfg.RedisAddr != "" {
		ca = cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
		logger.Info(ctx, "✅  Redis cache enabled")
	} else {
		ca = cache.NewNoop()
		logger.Warn(ctx, "⚠️  Redis not configured, caching is disabled")
	}

	remote := backend.NewClient(cfg.BackendURL, cfg.BackendServiceToken, cfg.BackendTimeout).
		WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout)
	opt := initOptimiser(ctx, cfg)

	feedReader := feed.NewReader(remote, remote, renderer.NewHTTPRenderer(ca), ca)
	feedWriter := feed.NewWriter(remote, remote, ca)
	coordinator := compose.NewUploadCoordinator(uploader, staging, ledger, uuid.NewUUID)
	composer := compose.NewComposer(compose.Deps{
		Optimiser:   opt,
		Staging:     staging,
		Coordinator: coordinator,
		Ledger:      ledger,
		Posts:       remote,
		Writer:      feedWriter,
		NewID:       uuid.NewUUID,
	}, compose.Config{DraftTTL: cfg.DraftTTL})
	profileSvc := profile.NewService(remote, opt, staging, coordinator, uuid.NewUUID)
	pushSvc := push.NewService(remote, cfg.VAPIDPublicKey)

	mountRoutes(r, cfg, services{
		composer: composer,
		reader:   feedReader,
		writer:   feedWriter,
		users:    remote,
		profile:  profileSvc,
		push:     pushSvc,
	})

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	go composer.RunJanitor(janitorCtx)

	listenRouter(ctx, r, cfg, func(shutdownCtx context.Context) {
		stopJanitor()
		if err := composer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf(ctx, "⚠️  Drafts still busy at shutdown: %v", err)
		}
		if database != nil {
			if err := database.Close(); err != nil {
				logger.Errorf(ctx, "DB close error: %v", err)
			}
		}
	})
}

// initDb returns nil when no DSN is configured; the ledger is optional.
func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	dbCfg := db.Config{
		DSN:             cfg.MariaDBDSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	if !dbCfg.Enabled() {
		logger.Warn(ctx, "⚠️  MARIADB_DSN not set, upload ledger is disabled")
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

func initRouter(ctx context.Context, cfg *config.Settings) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cMiddleware.Metrics())
	r.Use(cMiddleware.WithSaveData(cfg.ForceSaveData))

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func initStorage(ctx context.Context, cfg *config.Settings) *storage.Strg {
	strg, err := storage.NewMinioClient(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
	)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}
	return strg
}

func initStaging(ctx context.Context, strg *storage.Strg, cfg *config.Settings) port.Storage {
	staging, err := strg.WithBucket(ctx, cfg.StagingBucket)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize bucket %q: %v", cfg.StagingBucket, err)
		os.Exit(1)
	}
	for _, prefix := range []string{"drafts/", "profiles/"} {
		if err := staging.ExpireAfter(ctx, prefix, stagingExpiryDays); err != nil {
			logger.Warnf(ctx, "⚠️  Could not install expiry rule for %q: %v", prefix, err)
		}
	}
	return staging
}

func initUploader(ctx context.Context, strg *storage.Strg, cfg *config.Settings) port.Uploader {
	if cfg.UploadBackend == config.UploadBackendMinio {
		up, err := strg.NewPublicUploader(ctx, cfg.PublicBucket, uuid.NewUUID)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialize public bucket %q: %v", cfg.PublicBucket, err)
			os.Exit(1)
		}
		logger.Infof(ctx, "✅  Publishing media to MinIO bucket %q", cfg.PublicBucket)
		return up
	}
	logger.Infof(ctx, "✅  Publishing media to Cloudinary cloud %q", cfg.CloudinaryCloudName)
	return cloudinary.NewClient(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, &http.Client{Timeout: 2 * time.Minute})
}

func initOptimiser(ctx context.Context, cfg *config.Settings) *optimiser.Optimiser {
	ff := optimiser.NewFFmpeg(cfg.FFmpegPath)
	if !ff.Available() {
		logger.Warnf(ctx, "⚠️  %q not found: HEIC photos will be dropped and videos get no poster", cfg.FFmpegPath)
	}

	var offset time.Duration
	if cfg.PosterStrategy == config.PosterStrategyOffset {
		offset = cfg.PosterSeekOffset
	}

	compressor := optimiser.NewCompressor(optimiser.NewWebPEncoder())
	return optimiser.NewOptimiser(
		optimiser.NewNormalizer(ff),
		compressor,
		optimiser.NewPosterExtractor(ff, compressor, offset),
	)
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, onShutdown func(context.Context)) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	onShutdown(shutdownCtx)
	logger.Info(ctx, "✅  Server gracefully stopped")
}
