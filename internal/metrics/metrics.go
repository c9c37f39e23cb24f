package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levigram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "levigram_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levigram_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)
)

// Backend metrics
var (
	BackendBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "levigram_backend_breaker_state",
			Help: "REST API circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)
)

// Media pipeline metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levigram_uploads_total",
			Help: "Object store uploads by kind (media, poster, avatar) and result",
		},
		[]string{"kind", "result"},
	)

	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "levigram_upload_duration_seconds",
			Help:    "Object store upload latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	PipelineFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levigram_pipeline_fallbacks_total",
			Help: "Degraded media pipeline outcomes (heic_dropped, compress_passthrough, poster_missing)",
		},
		[]string{"reason"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levigram_submissions_total",
			Help: "Post submissions by mode (create, edit) and result",
		},
		[]string{"mode", "result"},
	)

	OpenDrafts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "levigram_open_drafts",
			Help: "Number of drafts currently held in memory",
		},
	)
)

// Worker metrics
var (
	PostersBackfilledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levigram_posters_backfilled_total",
			Help: "Backfilled posters by result",
		},
		[]string{"result"},
	)
)

const (
	ResultSuccess = "success"
	ResultError   = "error"

	FallbackHEICDropped         = "heic_dropped"
	FallbackCompressPassthrough = "compress_passthrough"
	FallbackPosterMissing       = "poster_missing"
)

func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
