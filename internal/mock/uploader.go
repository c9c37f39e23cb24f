package mock

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fhuszti/levigram-go/internal/port"
)

// Uploader implements port.Uploader for tests. URLs are derived from the uploaded body.
type Uploader struct {
	mu sync.Mutex

	// captured inputs
	Inputs []port.UploadInput
	Bodies []string

	// errors
	Err error
	// FailOn makes uploads of a body with this exact content fail.
	FailOn string

	// Hook runs before each upload, outside the lock.
	Hook func(in port.UploadInput)
}

func (u *Uploader) Upload(ctx context.Context, in port.UploadInput) (port.UploadResult, error) {
	if u.Hook != nil {
		u.Hook(in)
	}
	if err := ctx.Err(); err != nil {
		return port.UploadResult{}, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return port.UploadResult{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.Inputs = append(u.Inputs, in)
	u.Bodies = append(u.Bodies, string(data))
	if u.Err != nil {
		return port.UploadResult{}, u.Err
	}
	if u.FailOn != "" && string(data) == u.FailOn {
		return port.UploadResult{}, fmt.Errorf("upload of %q rejected", in.Name)
	}
	resource := in.ResourceType
	if resource == port.ResourceAuto {
		resource = "image"
	}
	return port.UploadResult{
		URL:          fmt.Sprintf("https://res.cloudinary.com/demo/%s/upload/v1/%s/%s", resource, in.Folder, string(data)),
		PublicID:     in.Folder + "/" + string(data),
		ResourceType: resource,
	}, nil
}

// Calls returns the number of uploads attempted.
func (u *Uploader) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Inputs)
}
