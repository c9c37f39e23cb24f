package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/go-chi/chi/v5"
)

const multipartMemory = 32 << 20

type OpenDraftRequest struct {
	PostID string `json:"post_id" validate:"omitempty,max=64"`
}

type UpdateDraftRequest struct {
	Content *string `json:"content" validate:"required,max=2200"`
}

type SetActiveRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

func draftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := api_context.DraftIDFromContext(r.Context())
	if !ok {
		WriteError(r.Context(), w, http.StatusInternalServerError, "Draft ID missing in context", nil)
	}
	return id, ok
}

func OpenDraftHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenDraftRequest
		if r.ContentLength != 0 {
			if !decodeJSON(w, r, &req) {
				return
			}
		}

		view, err := svc.Open(r.Context(), port.OpenDraftInput{PostID: req.PostID})
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}

		RespondJSON(r.Context(), w, http.StatusCreated, view)
		logger.Infof(r.Context(), "✅  Successfully opened draft #%s", view.ID)
	}
}

func GetDraftHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		RespondJSON(r.Context(), w, http.StatusOK, view)
	}
}

func UpdateDraftHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		var req UpdateDraftRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := svc.SetContent(r.Context(), id, *req.Content)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, view)
	}
}

// IngestMediaHandler accepts a multipart batch under the "files" field.
func IngestMediaHandler(svc port.DraftComposer, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			WriteError(r.Context(), w, http.StatusBadRequest, "Invalid multipart body", err)
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logger.Warnf(r.Context(), "failed to remove multipart temp files: %v", err)
			}
		}()

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			WriteError(r.Context(), w, http.StatusBadRequest, "No files selected", nil)
			return
		}

		view, err := svc.Ingest(r.Context(), port.IngestInput{
			DraftID:  id,
			Files:    ingestFiles(headers),
			SaveData: api_context.SaveDataFromContext(r.Context()),
		})
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, view)
		logger.Infof(r.Context(), "✅  Draft #%s now holds %d media", id, len(view.Media))
	}
}

func ingestFiles(headers []*multipart.FileHeader) []port.IngestFile {
	files := make([]port.IngestFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, port.IngestFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files
}

func RemoveMediaHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		index, err := intParam(r, "index")
		if err != nil {
			WriteError(r.Context(), w, http.StatusBadRequest, "Invalid media index", err)
			return
		}
		view, err := svc.RemoveMedia(r.Context(), id, index)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, view)
	}
}

func SetActiveHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		var req SetActiveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := svc.SetActive(r.Context(), id, *req.Index)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, view)
	}
}

func SubmitDraftHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		post, err := svc.Submit(r.Context(), id)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusCreated, post)
		logger.Infof(r.Context(), "✅  Successfully submitted draft #%s as post #%s", id, post.ID)
	}
}

func DiscardDraftHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		if err := svc.Discard(r.Context(), id); err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PreviewMediaHandler redirects to a fresh preview URL. ?poster=1 targets the poster.
func PreviewMediaHandler(svc port.DraftComposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := draftID(w, r)
		if !ok {
			return
		}
		mediaID, err := uuid.Parse(chi.URLParam(r, "mediaID"))
		if err != nil {
			WriteError(r.Context(), w, http.StatusBadRequest, fmt.Sprintf("media ID %q is not a valid UUID", chi.URLParam(r, "mediaID")), nil)
			return
		}
		url, err := svc.PreviewURL(r.Context(), port.PreviewInput{
			DraftID: id,
			MediaID: mediaID,
			Poster:  r.URL.Query().Get("poster") == "1",
		})
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, url, http.StatusFound)
	}
}
