package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWithDraftIDMiddleware(t *testing.T) {
	mw := WithDraftID()

	tests := []struct {
		name           string
		paramValue     string
		wantStatus     int
		expectNextCall bool
	}{
		{"missing param", "", http.StatusBadRequest, false},
		{"bad param", "not-uuid", http.StatusBadRequest, false},
		{"happy path", "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", http.StatusNoContent, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				if id, ok := api_context.DraftIDFromContext(r.Context()); ok {
					w.Header().Set("X-ID", id.String())
				}
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/any", nil)
			rctx := chi.NewRouteContext()
			if tc.paramValue != "" {
				rctx.URLParams.Add("id", tc.paramValue)
			}
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if nextCalled != tc.expectNextCall {
				t.Errorf("nextCalled = %v; want %v", nextCalled, tc.expectNextCall)
			}
			if tc.expectNextCall && rec.Header().Get("X-ID") != tc.paramValue {
				t.Errorf("id in context = %q; want %q", rec.Header().Get("X-ID"), tc.paramValue)
			}
		})
	}
}

func TestWithSaveData(t *testing.T) {
	tests := []struct {
		name   string
		force  bool
		header string
		want   bool
	}{
		{"absent", false, "", false},
		{"on", false, "on", true},
		{"case insensitive", false, " On ", true},
		{"off", false, "off", false},
		{"forced", true, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = api_context.SaveDataFromContext(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Save-Data", tc.header)
			}
			WithSaveData(tc.force)(next).ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Errorf("save-data = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/posts/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("counter moved by %v; want 2", got)
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RateLimit("drafts-test", 60, 2)(ok)

	send := func(uid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/drafts", nil)
		req = req.WithContext(api_context.WithAuthUserID(req.Context(), uid))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("u1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d; want 204", i, rec.Code)
		}
	}
	rec := send("u1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q; want 1", rec.Header().Get("Retry-After"))
	}
	if got := testutil.ToFloat64(metrics.RateLimitedTotal.WithLabelValues("drafts-test")); got != 1 {
		t.Errorf("rate limited counter = %v; want 1", got)
	}
	if rec := send("u2"); rec.Code != http.StatusNoContent {
		t.Errorf("other user: status = %d; want 204", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	calls := 0
	h := RateLimit("off", 0, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	for i := 0; i < 50; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if calls != 50 {
		t.Errorf("calls = %d; want 50", calls)
	}
}

func TestLimiterSet_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	set := newLimiterSet(60, 1)
	set.now = func() time.Time { return now }

	set.get("ip:1.2.3.4")
	now = now.Add(10 * time.Minute)
	set.get("ip:5.6.7.8")

	if _, ok := set.visitors["ip:1.2.3.4"]; ok {
		t.Error("idle visitor should have been swept")
	}
	if len(set.visitors) != 1 {
		t.Errorf("visitors = %d; want 1", len(set.visitors))
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	if got := clientKey(req); got != "ip:10.0.0.7" {
		t.Errorf("clientKey() = %q", got)
	}
	req = req.WithContext(api_context.WithAuthToken(req.Context(), "tok"))
	if got := clientKey(req); got != "token:tok" {
		t.Errorf("clientKey() = %q", got)
	}
	req = req.WithContext(api_context.WithAuthUserID(req.Context(), "u9"))
	if got := clientKey(req); got != "user:u9" {
		t.Errorf("clientKey() = %q", got)
	}
}
