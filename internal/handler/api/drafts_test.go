package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/usecase/compose"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/go-chi/chi/v5"
)

var testDraftID = uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

type mockComposer struct {
	view    port.DraftView
	post    model.Post
	url     string
	err     error
	open    port.OpenDraftInput
	ingest  port.IngestInput
	names   []string
	bodies  []string
	index   int
	content string
	preview port.PreviewInput
	called  string
}

func (m *mockComposer) Open(ctx context.Context, in port.OpenDraftInput) (port.DraftView, error) {
	m.called, m.open = "open", in
	return m.view, m.err
}
func (m *mockComposer) Get(ctx context.Context, id uuid.UUID) (port.DraftView, error) {
	m.called = "get"
	return m.view, m.err
}
func (m *mockComposer) Ingest(ctx context.Context, in port.IngestInput) (port.DraftView, error) {
	m.called, m.ingest = "ingest", in
	for _, f := range in.Files {
		rc, err := f.Open()
		if err != nil {
			return port.DraftView{}, err
		}
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		m.names = append(m.names, f.Name)
		m.bodies = append(m.bodies, string(data))
	}
	return m.view, m.err
}
func (m *mockComposer) RemoveMedia(ctx context.Context, id uuid.UUID, index int) (port.DraftView, error) {
	m.called, m.index = "remove", index
	return m.view, m.err
}
func (m *mockComposer) SetActive(ctx context.Context, id uuid.UUID, index int) (port.DraftView, error) {
	m.called, m.index = "active", index
	return m.view, m.err
}
func (m *mockComposer) SetContent(ctx context.Context, id uuid.UUID, content string) (port.DraftView, error) {
	m.called, m.content = "content", content
	return m.view, m.err
}
func (m *mockComposer) Submit(ctx context.Context, id uuid.UUID) (model.Post, error) {
	m.called = "submit"
	return m.post, m.err
}
func (m *mockComposer) Discard(ctx context.Context, id uuid.UUID) error {
	m.called = "discard"
	return m.err
}
func (m *mockComposer) PreviewURL(ctx context.Context, in port.PreviewInput) (string, error) {
	m.called, m.preview = "preview", in
	return m.url, m.err
}

// draftRequest builds a request routed like the draft endpoints, with the draft ID in context.
func draftRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = api_context.WithDraftID(ctx, testDraftID)
	return req.WithContext(ctx)
}

func TestOpenDraftHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantPost   string
	}{
		{"new post", "", nil, http.StatusCreated, ""},
		{"edit post", `{"post_id":"p1"}`, nil, http.StatusCreated, "p1"},
		{"invalid JSON", `{"post_id":`, nil, http.StatusBadRequest, ""},
		{"not author", `{"post_id":"p1"}`, compose.ErrNotPostAuthor, http.StatusForbidden, "p1"},
		{"unauthenticated", "", compose.ErrUnauthenticated, http.StatusUnauthorized, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockComposer{view: port.DraftView{ID: testDraftID}, err: tc.svcErr}
			req := httptest.NewRequest(http.MethodPost, "/drafts", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			OpenDraftHandler(svc)(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d (body=%s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if svc.called == "open" && svc.open.PostID != tc.wantPost {
				t.Errorf("post ID = %q; want %q", svc.open.PostID, tc.wantPost)
			}
			if tc.wantStatus == http.StatusCreated {
				var v port.DraftView
				if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil || v.ID != testDraftID {
					t.Errorf("body = %s (%v)", rec.Body.String(), err)
				}
			}
		})
	}
}

func TestUpdateDraftHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantErrorMap map[string]string
	}{
		{"set content", `{"content":"hello"}`, http.StatusOK, nil},
		{"clear content", `{"content":""}`, http.StatusOK, nil},
		{"missing content", `{}`, http.StatusBadRequest, map[string]string{"content": "required"}},
		{"too long", `{"content":"` + strings.Repeat("a", 2201) + `"}`, http.StatusBadRequest, map[string]string{"content": "max"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockComposer{}
			rec := httptest.NewRecorder()
			UpdateDraftHandler(svc)(rec, draftRequest(http.MethodPatch, "/drafts/x", strings.NewReader(tc.body), nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantErrorMap != nil {
				var errs map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &errs); err != nil {
					t.Fatalf("error JSON: %v; body=%q", err, rec.Body.String())
				}
				for k, want := range tc.wantErrorMap {
					if errs[k] != want {
						t.Errorf("errs[%q] = %q; want %q", k, errs[k], want)
					}
				}
			}
		})
	}
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write([]byte(data))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestIngestMediaHandler(t *testing.T) {
	svc := &mockComposer{view: port.DraftView{ID: testDraftID}}
	body, ct := multipartBody(t, "files", map[string]string{"a.png": "AAA"})
	req := draftRequest(http.MethodPost, "/drafts/x/media", body, nil)
	req.Header.Set("Content-Type", ct)
	req = req.WithContext(api_context.WithSaveData(req.Context(), true))
	rec := httptest.NewRecorder()

	IngestMediaHandler(svc, 1<<20)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if svc.ingest.DraftID != testDraftID || !svc.ingest.SaveData {
		t.Errorf("unexpected input %+v", svc.ingest)
	}
	if len(svc.names) != 1 || svc.names[0] != "a.png" || svc.bodies[0] != "AAA" {
		t.Errorf("files = %v %v", svc.names, svc.bodies)
	}
	if got := svc.ingest.Files[0].ContentType; got != "image/png" {
		t.Errorf("content type = %q", got)
	}
}

func TestIngestMediaHandler_Errors(t *testing.T) {
	t.Run("no files", func(t *testing.T) {
		svc := &mockComposer{}
		body, ct := multipartBody(t, "other", map[string]string{"a.png": "A"})
		req := draftRequest(http.MethodPost, "/drafts/x/media", body, nil)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		IngestMediaHandler(svc, 1<<20)(rec, req)
		if rec.Code != http.StatusBadRequest || svc.called != "" {
			t.Errorf("status = %d, called = %q", rec.Code, svc.called)
		}
	})
	t.Run("too large", func(t *testing.T) {
		svc := &mockComposer{}
		body, ct := multipartBody(t, "files", map[string]string{"a.png": strings.Repeat("x", 4096)})
		req := draftRequest(http.MethodPost, "/drafts/x/media", body, nil)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		IngestMediaHandler(svc, 1024)(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
	t.Run("submit in progress", func(t *testing.T) {
		svc := &mockComposer{err: compose.ErrSubmitInProgress}
		body, ct := multipartBody(t, "files", map[string]string{"a.png": "A"})
		req := draftRequest(http.MethodPost, "/drafts/x/media", body, nil)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		IngestMediaHandler(svc, 1<<20)(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRemoveMediaHandler(t *testing.T) {
	svc := &mockComposer{}
	rec := httptest.NewRecorder()
	RemoveMediaHandler(svc)(rec, draftRequest(http.MethodDelete, "/drafts/x/media/2", nil, map[string]string{"index": "2"}))
	if rec.Code != http.StatusOK || svc.index != 2 {
		t.Fatalf("status = %d, index = %d", rec.Code, svc.index)
	}

	rec = httptest.NewRecorder()
	RemoveMediaHandler(svc)(rec, draftRequest(http.MethodDelete, "/drafts/x/media/two", nil, map[string]string{"index": "two"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}

	svc.err = compose.ErrIndexOutOfRange
	rec = httptest.NewRecorder()
	RemoveMediaHandler(svc)(rec, draftRequest(http.MethodDelete, "/drafts/x/media/9", nil, map[string]string{"index": "9"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestSetActiveHandler(t *testing.T) {
	svc := &mockComposer{}
	rec := httptest.NewRecorder()
	SetActiveHandler(svc)(rec, draftRequest(http.MethodPut, "/drafts/x/active", strings.NewReader(`{"index":0}`), nil))
	if rec.Code != http.StatusOK || svc.called != "active" || svc.index != 0 {
		t.Fatalf("status = %d, called = %q", rec.Code, svc.called)
	}

	rec = httptest.NewRecorder()
	SetActiveHandler(svc)(rec, draftRequest(http.MethodPut, "/drafts/x/active", strings.NewReader(`{"index":-1}`), nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestSubmitDraftHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"empty", compose.ErrEmptyPost, http.StatusBadRequest},
		{"in progress", compose.ErrSubmitInProgress, http.StatusConflict},
		{"upload failed", compose.ErrUploadFailed, http.StatusBadGateway},
		{"unknown draft", compose.ErrDraftNotFound, http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockComposer{post: model.Post{ID: "p1"}, err: tc.err}
			rec := httptest.NewRecorder()
			SubmitDraftHandler(svc)(rec, draftRequest(http.MethodPost, "/drafts/x/submit", nil, nil))
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestDiscardDraftHandler(t *testing.T) {
	svc := &mockComposer{}
	rec := httptest.NewRecorder()
	DiscardDraftHandler(svc)(rec, draftRequest(http.MethodDelete, "/drafts/x", nil, nil))
	if rec.Code != http.StatusNoContent || svc.called != "discard" {
		t.Fatalf("status = %d, called = %q", rec.Code, svc.called)
	}
}

func TestPreviewMediaHandler(t *testing.T) {
	mediaID := uuid.NewUUID()
	svc := &mockComposer{url: "https://staging.example.com/drafts/x/y.webp"}
	rec := httptest.NewRecorder()
	PreviewMediaHandler(svc)(rec, draftRequest(http.MethodGet, "/drafts/x/media/y/preview?poster=1", nil, map[string]string{"mediaID": mediaID.String()}))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d; want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != svc.url {
		t.Errorf("Location = %q", loc)
	}
	if !svc.preview.Poster || svc.preview.MediaID != mediaID || svc.preview.DraftID != testDraftID {
		t.Errorf("unexpected input %+v", svc.preview)
	}

	rec = httptest.NewRecorder()
	PreviewMediaHandler(svc)(rec, draftRequest(http.MethodGet, "/drafts/x/media/bad/preview", nil, map[string]string{"mediaID": "bad"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestDraftHandlers_MissingDraftID(t *testing.T) {
	svc := &mockComposer{}
	rec := httptest.NewRecorder()
	GetDraftHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/drafts/x", nil))
	if rec.Code != http.StatusInternalServerError || svc.called != "" {
		t.Fatalf("status = %d, called = %q", rec.Code, svc.called)
	}
}
