package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/handler/api"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"golang.org/x/time/rate"
)

const visitorIdle = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(perMinute, burst int) *limiterSet {
	if burst <= 0 {
		burst = 1
	}
	return &limiterSet{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		now:      time.Now,
	}
}

// get returns the limiter of key; idle visitors are swept at most once a minute.
func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > time.Minute {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimit caps each client to perMinute requests with the given burst.
// Clients are told apart by authenticated user, then bearer token, then remote IP.
// perMinute <= 0 disables limiting.
func RateLimit(name string, perMinute, burst int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	set := newLimiterSet(perMinute, burst)
	retryAfter := strconv.Itoa(int(math.Ceil(60.0 / float64(perMinute))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !set.get(key).AllowN(set.now(), 1) {
				metrics.RateLimitedTotal.WithLabelValues(name).Inc()
				logger.Warnf(r.Context(), "⚠️  rate limit exceeded on %s for %s", name, r.URL.Path)
				w.Header().Set("Retry-After", retryAfter)
				api.WriteError(r.Context(), w, http.StatusTooManyRequests, "Too many requests, slow down", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if uid, ok := api_context.AuthUserIDFromContext(r.Context()); ok {
		return "user:" + uid
	}
	if token, ok := api_context.AuthTokenFromContext(r.Context()); ok {
		return "token:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
