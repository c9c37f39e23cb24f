package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/mock"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/usecase/profile"
)

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		loginErr     error
		wantStatus   int
		wantErrorMap map[string]string
	}{
		{"success", `{"email":"a@b.com","password":"secret"}`, nil, http.StatusOK, nil},
		{"bad email", `{"email":"nope","password":"secret"}`, nil, http.StatusBadRequest, map[string]string{"email": "email"}},
		{"missing password", `{"email":"a@b.com"}`, nil, http.StatusBadRequest, map[string]string{"password": "required"}},
		{"wrong credentials", `{"email":"a@b.com","password":"bad"}`, &backend.APIError{Status: http.StatusBadRequest, Message: "Invalid credentials"}, http.StatusBadRequest, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mock.UsersAPI{Session: model.Session{Token: "tok", User: model.User{ID: "u1"}}, LoginErr: tc.loginErr}
			rec := httptest.NewRecorder()
			LoginHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d (body=%s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantStatus == http.StatusOK {
				var s model.Session
				if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil || s.Token != "tok" {
					t.Errorf("session = %+v (%v)", s, err)
				}
				if rec.Header().Get("Cache-Control") != "no-store" {
					t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
				}
			}
			for k, want := range tc.wantErrorMap {
				var errs map[string]string
				_ = json.Unmarshal(rec.Body.Bytes(), &errs)
				if errs[k] != want {
					t.Errorf("errs[%q] = %q; want %q", k, errs[k], want)
				}
			}
		})
	}
}

func TestSignupHandler(t *testing.T) {
	svc := &mock.UsersAPI{}
	rec := httptest.NewRecorder()
	body := `{"email":"a@b.com","password":"secret","username":"jane.doe","inviteCode":"XYZ"}`
	SignupHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if len(svc.Signups) != 1 || svc.Signups[0].InviteCode != "XYZ" || svc.Signups[0].Username != "jane.doe" {
		t.Errorf("signups = %+v", svc.Signups)
	}

	rec = httptest.NewRecorder()
	body = `{"email":"a@b.com","password":"secret","username":"jane doe"}`
	SignupHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest || len(svc.Signups) != 1 {
		t.Errorf("status = %d, signups = %d", rec.Code, len(svc.Signups))
	}
}

func TestMeHandler(t *testing.T) {
	svc := &mock.UsersAPI{MeUser: model.User{ID: "u1", Username: "jane"}}
	rec := httptest.NewRecorder()
	MeHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"jane"`) {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}

	svc.MeErr = backend.ErrUnauthenticated
	rec = httptest.NewRecorder()
	MeHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", rec.Code)
	}
}

func TestResetPasswordHandler(t *testing.T) {
	svc := &mock.UsersAPI{}
	rec := httptest.NewRecorder()
	ResetPasswordHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"email":"a@b.com","newPassword":"longer"}`)))
	if rec.Code != http.StatusNoContent || len(svc.Resets) != 1 {
		t.Fatalf("status = %d, resets = %d", rec.Code, len(svc.Resets))
	}

	rec = httptest.NewRecorder()
	ResetPasswordHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"email":"a@b.com","newPassword":"x"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

type mockProfileUpdater struct {
	in      port.UpdateProfileInput
	picture string
	err     error
}

func (m *mockProfileUpdater) UpdateProfile(ctx context.Context, in port.UpdateProfileInput) (model.User, error) {
	m.in = in
	if in.Picture != nil {
		rc, err := in.Picture.Open()
		if err != nil {
			return model.User{}, err
		}
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		m.picture = string(data)
	}
	if m.err != nil {
		return model.User{}, m.err
	}
	return model.User{ID: "u1", Username: in.Username}, nil
}

func profileForm(t *testing.T, username string, picture []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("username", username); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if picture != nil {
		fw, err := mw.CreateFormFile("profilePicture", "me.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(picture)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpdateProfileHandler(t *testing.T) {
	t.Run("username and picture", func(t *testing.T) {
		svc := &mockProfileUpdater{}
		body, ct := profileForm(t, "jane", []byte("JPEGDATA"))
		req := httptest.NewRequest(http.MethodPatch, "/users/me", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		UpdateProfileHandler(svc)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
		}
		if svc.in.Username != "jane" || svc.in.Picture == nil || svc.in.Picture.Name != "me.jpg" || svc.picture != "JPEGDATA" {
			t.Errorf("unexpected input %+v picture=%q", svc.in, svc.picture)
		}
		var resp map[string]model.User
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["user"].Username != "jane" {
			t.Errorf("body = %s (%v)", rec.Body.String(), err)
		}
	})

	t.Run("username only", func(t *testing.T) {
		svc := &mockProfileUpdater{}
		body, ct := profileForm(t, "jane", nil)
		req := httptest.NewRequest(http.MethodPatch, "/users/me", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		UpdateProfileHandler(svc)(rec, req)
		if rec.Code != http.StatusOK || svc.in.Picture != nil {
			t.Errorf("status = %d, picture = %v", rec.Code, svc.in.Picture)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		svc := &mockProfileUpdater{}
		req := httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(`{"username":"jane"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		UpdateProfileHandler(svc)(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
	})

	t.Run("service errors", func(t *testing.T) {
		cases := map[error]int{
			profile.ErrEmptyProfile:       http.StatusBadRequest,
			profile.ErrUnsupportedPicture: http.StatusUnsupportedMediaType,
			profile.ErrUploadFailed:       http.StatusBadGateway,
		}
		for svcErr, want := range cases {
			svc := &mockProfileUpdater{err: svcErr}
			body, ct := profileForm(t, "jane", []byte("x"))
			req := httptest.NewRequest(http.MethodPatch, "/users/me", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			UpdateProfileHandler(svc)(rec, req)
			if rec.Code != want {
				t.Errorf("%v: status = %d; want %d", svcErr, rec.Code, want)
			}
		}
	})
}
