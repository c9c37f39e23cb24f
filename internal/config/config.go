package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	UploadBackendCloudinary = "cloudinary"
	UploadBackendMinio      = "minio"

	PosterStrategyFirst  = "first"
	PosterStrategyOffset = "offset"
)

type Settings struct {
	ServerPort int

	BackendURL          string
	BackendServiceToken string
	BackendTimeout      time.Duration
	BreakerMaxFailures  uint32
	BreakerOpenTimeout  time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	StagingBucket  string

	UploadBackend          string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	PublicBucket           string

	RedisAddr     string
	RedisPassword string

	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	JWTPublicKey   string
	VAPIDPublicKey string

	DraftTTL          time.Duration
	MaxUploadBytes    int64
	PosterStrategy    string
	PosterSeekOffset  time.Duration
	ForceSaveData     bool
	FFmpegPath        string
	BackfillMaxPages  int
	BackfillMaxBytes  int64
	WorkerMetricsPort int
	RateLimitPerMin   int
	RateLimitBurst    int
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("BACKEND_TIMEOUT", 15)
	viper.SetDefault("BACKEND_BREAKER_FAILURES", 5)
	viper.SetDefault("BACKEND_BREAKER_OPEN", 30)
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("STAGING_BUCKET", "staging")
	viper.SetDefault("UPLOAD_BACKEND", UploadBackendCloudinary)
	viper.SetDefault("PUBLIC_BUCKET", "public")
	viper.SetDefault("MARIADB_MAX_OPEN_CONN", 10)
	viper.SetDefault("MARIADB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("MARIADB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("DRAFT_TTL", 1800)
	viper.SetDefault("MAX_UPLOAD_MB", 200)
	viper.SetDefault("POSTER_STRATEGY", PosterStrategyFirst)
	viper.SetDefault("POSTER_SEEK_OFFSET", 1000)
	viper.SetDefault("FORCE_SAVE_DATA", false)
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("BACKFILL_MAX_PAGES", 20)
	viper.SetDefault("BACKFILL_MAX_MB", 500)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("RATE_LIMIT_BURST", 20)

	for _, key := range []string{"SERVER_PORT", "BACKEND_URL", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"} {
		if !viper.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	backend := strings.ToLower(viper.GetString("UPLOAD_BACKEND"))
	switch backend {
	case UploadBackendCloudinary:
		if !viper.IsSet("CLOUDINARY_CLOUD_NAME") {
			return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME is required")
		}
		if !viper.IsSet("CLOUDINARY_UPLOAD_PRESET") {
			return nil, fmt.Errorf("CLOUDINARY_UPLOAD_PRESET is required")
		}
	case UploadBackendMinio:
	default:
		return nil, fmt.Errorf("UPLOAD_BACKEND must be %q or %q, got %q", UploadBackendCloudinary, UploadBackendMinio, backend)
	}

	strategy := strings.ToLower(viper.GetString("POSTER_STRATEGY"))
	if strategy != PosterStrategyFirst && strategy != PosterStrategyOffset {
		return nil, fmt.Errorf("POSTER_STRATEGY must be %q or %q, got %q", PosterStrategyFirst, PosterStrategyOffset, strategy)
	}

	return &Settings{
		ServerPort: viper.GetInt("SERVER_PORT"),

		BackendURL:          strings.TrimRight(viper.GetString("BACKEND_URL"), "/"),
		BackendServiceToken: viper.GetString("BACKEND_SERVICE_TOKEN"),
		BackendTimeout:      time.Duration(viper.GetInt("BACKEND_TIMEOUT")) * time.Second,
		BreakerMaxFailures:  viper.GetUint32("BACKEND_BREAKER_FAILURES"),
		BreakerOpenTimeout:  time.Duration(viper.GetInt("BACKEND_BREAKER_OPEN")) * time.Second,

		MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),
		StagingBucket:  viper.GetString("STAGING_BUCKET"),

		UploadBackend:          backend,
		CloudinaryCloudName:    viper.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadPreset: viper.GetString("CLOUDINARY_UPLOAD_PRESET"),
		PublicBucket:           viper.GetString("PUBLIC_BUCKET"),

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,

		JWTPublicKey:   viper.GetString("JWT_PUBLIC_KEY"),
		VAPIDPublicKey: viper.GetString("VAPID_PUBLIC_KEY"),

		DraftTTL:          time.Duration(viper.GetInt("DRAFT_TTL")) * time.Second,
		MaxUploadBytes:    viper.GetInt64("MAX_UPLOAD_MB") << 20,
		PosterStrategy:    strategy,
		PosterSeekOffset:  time.Duration(viper.GetInt("POSTER_SEEK_OFFSET")) * time.Millisecond,
		ForceSaveData:     viper.GetBool("FORCE_SAVE_DATA"),
		FFmpegPath:        viper.GetString("FFMPEG_PATH"),
		BackfillMaxPages:  viper.GetInt("BACKFILL_MAX_PAGES"),
		BackfillMaxBytes:  viper.GetInt64("BACKFILL_MAX_MB") << 20,
		WorkerMetricsPort: viper.GetInt("WORKER_METRICS_PORT"),
		RateLimitPerMin:   viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		RateLimitBurst:    viper.GetInt("RATE_LIMIT_BURST"),
	}, nil
}
