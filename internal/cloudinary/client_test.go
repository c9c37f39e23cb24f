package cloudinary

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fhuszti/levigram-go/internal/port"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient("demo", "unsigned_preset", srv.Client())
	c.baseURL = srv.URL
	return c
}

func TestUpload_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s; want POST", r.Method)
		}
		if r.URL.Path != "/demo/auto/upload" {
			t.Errorf("path = %s; want /demo/auto/upload", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		want := map[string]string{
			"upload_preset":   "unsigned_preset",
			"folder":          FolderPosts,
			"use_filename":    "true",
			"unique_filename": "true",
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("field %s = %q; want %q", k, got, v)
			}
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		body, _ := io.ReadAll(f)
		if string(body) != "webp-bytes" || hdr.Filename != "photo.webp" {
			t.Errorf("file = %q (%s)", body, hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/webp" {
			t.Errorf("part content type = %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/uploads/posts/photo_x.webp","public_id":"uploads/posts/photo_x","resource_type":"image","width":1600,"height":900,"bytes":10,"format":"webp"}`)
	})

	res, err := c.Upload(context.Background(), port.UploadInput{
		Folder:       FolderPosts,
		Name:         "photo.webp",
		ContentType:  "image/webp",
		ResourceType: port.ResourceAuto,
		Body:         strings.NewReader("webp-bytes"),
		Size:         10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.URL != "https://res.cloudinary.com/demo/image/upload/v1/uploads/posts/photo_x.webp" {
		t.Errorf("url = %q", res.URL)
	}
	if res.PublicID != "uploads/posts/photo_x" || res.ResourceType != "image" {
		t.Errorf("result = %+v", res)
	}
}

func TestUpload_PosterUsesImageEndpoint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/upload" {
			t.Errorf("path = %s; want /demo/image/upload", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"secure_url":"https://res.cloudinary.com/demo/image/upload/p.jpg"}`)
	})

	_, err := c.Upload(context.Background(), port.UploadInput{
		Folder:       FolderPosters,
		Name:         "poster.jpg",
		ResourceType: port.ResourceImage,
		Body:         strings.NewReader("jpg"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error object", http.StatusBadRequest, `{"error":{"message":"Upload preset not found"}}`, "Upload preset not found"},
		{"top-level message", http.StatusUnauthorized, `{"message":"nope"}`, "nope"},
		{"ok without url", http.StatusOK, `{}`, "Upload failed"},
		{"not json", http.StatusBadGateway, `<html>`, "undecodable body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := c.Upload(context.Background(), port.UploadInput{
				Folder: FolderPosts,
				Name:   "a.jpg",
				Body:   strings.NewReader("x"),
			})
			if !errors.Is(err, ErrUploadRejected) {
				t.Fatalf("error = %v; want ErrUploadRejected", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error = %q; want it to contain %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"a.jpg":            "a.jpg",
		`C:\tmp\b.jpg`:     "b.jpg",
		"../../etc/passwd": "passwd",
		`we"ird.png`:       "we_ird.png",
		"":                 "upload",
	}
	for in, want := range tests {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q) = %q; want %q", in, got, want)
		}
	}
}
