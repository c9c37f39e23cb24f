package cloudinary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

const DefaultBaseURL = "https://api.cloudinary.com/v1_1"

var ErrUploadRejected = errors.New("cloudinary: upload rejected")

// Client performs unsigned uploads against an upload preset.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cloudName  string
	preset     string
}

// compile-time check: *Client must satisfy port.Uploader
var _ port.Uploader = (*Client)(nil)

func NewClient(cloudName, preset string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		cloudName:  cloudName,
		preset:     preset,
	}
}

type uploadResponse struct {
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int64  `json:"bytes"`
	Format       string `json:"format"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// Upload streams in.Body as a multipart form to the upload endpoint of the resource type.
func (c *Client) Upload(ctx context.Context, in port.UploadInput) (port.UploadResult, error) {
	resource := in.ResourceType
	if resource == "" {
		resource = port.ResourceAuto
	}
	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, c.cloudName, resource)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(c.writeForm(mw, in))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return port.UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	logger.Debugf(ctx, "uploading %q to folder %q...", in.Name, in.Folder)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = pr.Close()
		return port.UploadResult{}, fmt.Errorf("upload request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return port.UploadResult{}, fmt.Errorf("%w: status %d, undecodable body: %v", ErrUploadRejected, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || out.SecureURL == "" {
		msg := out.Message
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		if msg == "" {
			msg = "Upload failed"
		}
		return port.UploadResult{}, fmt.Errorf("%w: %s", ErrUploadRejected, msg)
	}

	return port.UploadResult{
		URL:          out.SecureURL,
		PublicID:     out.PublicID,
		ResourceType: out.ResourceType,
	}, nil
}

func (c *Client) writeForm(mw *multipart.Writer, in port.UploadInput) error {
	fields := [][2]string{
		{"upload_preset", c.preset},
		{"folder", in.Folder},
		{"use_filename", "true"},
		{"unique_filename", "true"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, sanitizeName(in.Name)))
	if in.ContentType != "" {
		h.Set("Content-Type", in.ContentType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return err
	}
	return mw.Close()
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
