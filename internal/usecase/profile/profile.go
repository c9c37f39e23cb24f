package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/cloudinary"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/optimiser"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

var (
	ErrEmptyProfile       = errors.New("nothing to update")
	ErrUnsupportedPicture = errors.New("profile picture must be an image")
	ErrUploadFailed       = errors.New("profile picture upload failed")
)

const stagingPrefix = "profiles/"

// Publisher uploads one staged blob to a folder of the object store.
type Publisher interface {
	Publish(ctx context.Context, owner uuid.UUID, lf model.LocalFile, folder string) (port.UploadResult, error)
}

type Service struct {
	users     port.UsersAPI
	opt       port.MediaOptimiser
	staging   port.Storage
	publisher Publisher
	newID     port.UUIDGen
}

// compile-time check: *Service must satisfy port.ProfileUpdater
var _ port.ProfileUpdater = (*Service)(nil)

func NewService(users port.UsersAPI, opt port.MediaOptimiser, staging port.Storage, publisher Publisher, newID port.UUIDGen) *Service {
	if newID == nil {
		newID = uuid.NewUUID
	}
	return &Service{users: users, opt: opt, staging: staging, publisher: publisher, newID: newID}
}

func (s *Service) UpdateProfile(ctx context.Context, in port.UpdateProfileInput) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" && in.Picture == nil {
		return model.User{}, ErrEmptyProfile
	}

	userID, _ := api_context.AuthUserIDFromContext(ctx)
	if userID == "" || username == "" {
		me, err := s.users.Me(ctx)
		if err != nil {
			return model.User{}, fmt.Errorf("load current user: %w", err)
		}
		if userID == "" {
			userID = me.ID
		}
		if username == "" {
			username = me.Username
		}
	}

	payload := model.ProfilePayload{Username: username}
	if in.Picture != nil {
		url, err := s.publishPicture(ctx, *in.Picture, in.SaveData)
		if err != nil {
			return model.User{}, err
		}
		payload.ProfilePicture = url
	}

	user, err := s.users.UpdateProfile(ctx, userID, payload)
	if err != nil {
		return model.User{}, err
	}
	logger.Infof(ctx, "✅  Updated profile of user %s", userID)
	return user, nil
}

// publishPicture runs the avatar through the image pipeline, stages it and uploads it.
func (s *Service) publishPicture(ctx context.Context, f port.IngestFile, saveData bool) (string, error) {
	if kind, ok := model.KindOf(f.ContentType, f.Name); ok && kind != model.MediaKindImage {
		return "", ErrUnsupportedPicture
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open picture: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}

	norm, err := s.opt.Normalize(ctx, f.Name, f.ContentType, data)
	if err != nil {
		metrics.PipelineFallbacksTotal.WithLabelValues(metrics.FallbackHEICDropped).Inc()
		return "", fmt.Errorf("%w: %v", ErrUnsupportedPicture, err)
	}

	out, ct, ext := norm.Data, norm.ContentType, strings.ToLower(filepath.Ext(norm.Name))
	comp, err := s.opt.Compress(ctx, norm.Data, optimiser.MaxAvatarDim, saveData)
	if err != nil {
		metrics.PipelineFallbacksTotal.WithLabelValues(metrics.FallbackCompressPassthrough).Inc()
		logger.Warnf(ctx, "⚠️  avatar compression failed, keeping original: %v", err)
	} else {
		out, ct, ext = comp.Data, comp.ContentType, comp.Ext
	}
	if ext == "" {
		ext = ".jpg"
	}

	id := s.newID()
	key := stagingPrefix + id.String() + ext
	if err := s.staging.SaveFile(ctx, key, bytes.NewReader(out), int64(len(out)), map[string]string{"Content-Type": ct}); err != nil {
		return "", fmt.Errorf("stage picture: %w", err)
	}
	defer func() {
		if err := s.staging.RemoveFile(context.WithoutCancel(ctx), key); err != nil {
			logger.Warnf(ctx, "⚠️  failed to remove staged avatar %q: %v", key, err)
		}
	}()

	lf := model.LocalFile{Key: key, Name: "avatar_" + id.String() + ext, ContentType: ct, SizeBytes: int64(len(out))}
	res, err := s.publisher.Publish(ctx, id, lf, cloudinary.FolderProfiles)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return res.URL, nil
}
