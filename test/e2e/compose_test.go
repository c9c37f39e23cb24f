package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/cache"
	"github.com/fhuszti/levigram-go/internal/handler/api"
	cMiddleware "github.com/fhuszti/levigram-go/internal/middleware"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/optimiser"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/repository/mariadb"
	"github.com/fhuszti/levigram-go/internal/usecase/compose"
	"github.com/fhuszti/levigram-go/internal/usecase/feed"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/fhuszti/levigram-go/test/testutil"
	"github.com/go-chi/chi/v5"
)

func newComposeServer(t *testing.T) (*httptest.Server, *testutil.FakeBackend, *testutil.TestBuckets, func(query string, args ...any) int) {
	t.Helper()

	sqlDB := testutil.NewTestDB(t, true)
	tb := testutil.SetupTestBuckets(t, GlobalMinioClient)
	fb := testutil.NewFakeBackend(t)

	remote := backend.NewClient(fb.URL, "", 10*time.Second)
	ledger := mariadb.NewUploadRepository(sqlDB)
	ff := optimiser.NewFFmpeg("ffmpeg")
	compressor := optimiser.NewCompressor(optimiser.NewWebPEncoder())
	opt := optimiser.NewOptimiser(optimiser.NewNormalizer(ff), compressor, optimiser.NewPosterExtractor(ff, compressor, 0))

	composer := compose.NewComposer(compose.Deps{
		Optimiser:   opt,
		Staging:     tb.Staging,
		Coordinator: compose.NewUploadCoordinator(tb.Uploader, tb.Staging, ledger, uuid.NewUUID),
		Ledger:      ledger,
		Posts:       remote,
		Writer:      feed.NewWriter(remote, remote, cache.NewNoop()),
	}, compose.Config{DraftTTL: time.Minute, TempDir: t.TempDir()})

	r := chi.NewRouter()
	r.Use(cMiddleware.WithBearerAuth(""))
	r.Post("/drafts", api.OpenDraftHandler(composer))
	r.Route("/drafts/{id}", func(r chi.Router) {
		r.Use(cMiddleware.WithDraftID())
		r.Get("/", api.GetDraftHandler(composer))
		r.Patch("/", api.UpdateDraftHandler(composer))
		r.Post("/media", api.IngestMediaHandler(composer, 50<<20))
		r.Get("/media/{mediaID}/preview", api.PreviewMediaHandler(composer))
		r.Post("/submit", api.SubmitDraftHandler(composer))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	count := func(query string, args ...any) int {
		var n int
		if err := sqlDB.QueryRow(query, args...).Scan(&n); err != nil {
			t.Fatalf("query %q: %v", query, err)
		}
		return n
	}
	return srv, fb, tb, count
}

func do(t *testing.T, method, url string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer u1")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response, wantStatus int) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d; want %d (body=%s)", resp.StatusCode, wantStatus, raw)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode JSON body: %v", err)
	}
	return out
}

func TestComposeAndSubmitE2E(t *testing.T) {
	srv, fb, tb, count := newComposeServer(t)

	// open a draft
	view := decode[port.DraftView](t, do(t, http.MethodPost, srv.URL+"/drafts", nil, ""), http.StatusCreated)
	draftURL := fmt.Sprintf("%s/drafts/%s", srv.URL, view.ID)

	// add two photos in one batch
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, data := range [][]byte{testutil.GeneratePNG(t, 2400, 1200), testutil.GenerateJPEG(t, 640, 480)} {
		fw, err := mw.CreateFormFile("files", fmt.Sprintf("photo-%d.%s", i, []string{"png", "jpg"}[i]))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()
	view = decode[port.DraftView](t, do(t, http.MethodPost, draftURL+"/media", &buf, mw.FormDataContentType()), http.StatusOK)
	if len(view.Media) != 2 || !view.Media[0].Local || view.Media[0].Kind != model.MediaKindImage {
		t.Fatalf("unexpected draft media %+v", view.Media)
	}

	// preview redirects to the staged, compressed file
	resp := do(t, http.MethodGet, fmt.Sprintf("%s/media/%s/preview", draftURL, view.Media[0].ID), nil, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("preview status = %d; want 302", resp.StatusCode)
	}
	staged, err := http.Get(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("GET staged preview: %v", err)
	}
	_ = staged.Body.Close()
	if staged.StatusCode != http.StatusOK {
		t.Errorf("staged preview status = %d", staged.StatusCode)
	}

	view = decode[port.DraftView](t, do(t, http.MethodPatch, draftURL, strings.NewReader(`{"content":"holiday"}`), "application/json"), http.StatusOK)
	if view.Content != "holiday" {
		t.Errorf("content = %q", view.Content)
	}

	// submit publishes in order and creates the post
	post := decode[model.Post](t, do(t, http.MethodPost, draftURL+"/submit", nil, ""), http.StatusCreated)
	if post.Content != "holiday" || len(post.Media) != 2 {
		t.Fatalf("unexpected post %+v", post)
	}
	for _, m := range post.Media {
		if !strings.Contains(m.URL, tb.PublicName+"/uploads/posts/") {
			t.Errorf("media URL %q not in the public bucket", m.URL)
		}
		got, err := http.Get(m.URL)
		if err != nil {
			t.Fatalf("GET published media: %v", err)
		}
		_ = got.Body.Close()
		if got.StatusCode != http.StatusOK {
			t.Errorf("published media status = %d", got.StatusCode)
		}
	}
	if stored, ok := fb.Post(post.ID); !ok || len(stored.Media) != 2 {
		t.Errorf("backend post = %+v", stored)
	}

	if n := count("SELECT COUNT(*) FROM uploads WHERE status = 'attached' AND post_id = ?", post.ID); n != 2 {
		t.Errorf("attached ledger rows = %d; want 2", n)
	}
	if n := testutil.ObjectCount(t, GlobalMinioClient, tb.StagingName, "drafts/"+view.ID.String()); n != 0 {
		t.Errorf("staged objects left = %d; want 0", n)
	}

	// the draft is gone once submitted
	resp = do(t, http.MethodGet, draftURL, nil, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("draft after submit: status = %d; want 404", resp.StatusCode)
	}
}

func TestSubmitEmptyDraftE2E(t *testing.T) {
	srv, fb, _, _ := newComposeServer(t)

	view := decode[port.DraftView](t, do(t, http.MethodPost, srv.URL+"/drafts", nil, ""), http.StatusCreated)
	resp := do(t, http.MethodPost, fmt.Sprintf("%s/drafts/%s/submit", srv.URL, view.ID), nil, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", resp.StatusCode)
	}
	if n := fb.Calls("POST /posts"); n != 0 {
		t.Errorf("backend create calls = %d; want 0", n)
	}
}
