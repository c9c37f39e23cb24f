package optimiser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fhuszti/levigram-go/internal/logger"
)

var ErrNoFrame = errors.New("ffmpeg produced no output")

const heicJPEGQuality = 92

// FFmpeg shells out to an ffmpeg binary for frame grabs and HEIC decoding.
type FFmpeg struct {
	path string
}

var (
	_ FrameGrabber  = (*FFmpeg)(nil)
	_ HEICConverter = (*FFmpeg)(nil)
)

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path}
}

// Available reports whether the configured binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.path)
	return err == nil
}

func (f *FFmpeg) Grab(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	return f.run(ctx, args...)
}

func (f *FFmpeg) Convert(ctx context.Context, data []byte) ([]byte, error) {
	in, err := os.CreateTemp("", "heic_in_*.heic")
	if err != nil {
		return nil, fmt.Errorf("could not create temp input file: %w", err)
	}
	defer func(name string) {
		if err := os.Remove(name); err != nil {
			logger.Warnf(ctx, "failed to remove temp file %q: %v", name, err)
		}
	}(in.Name())

	if _, err := in.Write(data); err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("could not write temp input file: %w", err)
	}
	_ = in.Close()

	frame, err := f.run(ctx,
		"-hide_banner", "-loglevel", "error",
		"-i", in.Name(),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-pix_fmt", "rgb24",
		"-",
	)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(heicJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *FFmpeg) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, ErrNoFrame
	}
	return stdout.Bytes(), nil
}
