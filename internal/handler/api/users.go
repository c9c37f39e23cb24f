package api

import (
	"io"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

const maxAvatarBytes = 20 << 20

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Username   string `json:"username" validate:"required,max=30,username"`
	InviteCode string `json:"inviteCode" validate:"omitempty,max=64"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func LoginHandler(svc port.UsersAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := svc.Login(r.Context(), model.Credentials(req))
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		RespondJSON(r.Context(), w, http.StatusOK, session)
	}
}

func SignupHandler(svc port.UsersAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.Signup(r.Context(), model.SignupInput(req)); err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		logger.Infof(r.Context(), "✅  Signed up %q", req.Username)
	}
}

func MeHandler(svc port.UsersAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := svc.Me(r.Context())
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		RespondJSON(r.Context(), w, http.StatusOK, me)
	}
}

func ResetPasswordHandler(svc port.UsersAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.ResetPassword(r.Context(), model.PasswordReset(req)); err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateProfileHandler takes a multipart form with "username" and an optional "profilePicture".
func UpdateProfileHandler(svc port.ProfileUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			WriteError(r.Context(), w, http.StatusBadRequest, "Invalid multipart body", err)
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logger.Warnf(r.Context(), "failed to remove multipart temp files: %v", err)
			}
		}()

		in := port.UpdateProfileInput{
			Username: r.FormValue("username"),
			SaveData: api_context.SaveDataFromContext(r.Context()),
		}
		if fhs := r.MultipartForm.File["profilePicture"]; len(fhs) > 0 {
			fh := fhs[0]
			in.Picture = &port.IngestFile{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Open:        func() (io.ReadCloser, error) { return fh.Open() },
			}
		}

		user, err := svc.UpdateProfile(r.Context(), in)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, map[string]model.User{"user": user})
	}
}
