package compose

import "time"

const (
	stagingPrefix = "drafts/"

	defaultDraftTTL      = 30 * time.Minute
	defaultPreviewTTL    = 15 * time.Minute
	defaultPosterTimeout = 2 * time.Minute
	defaultSubmitTimeout = 5 * time.Minute
	janitorInterval      = time.Minute
)

type Config struct {
	// DraftTTL is the idle time after which a draft is discarded.
	DraftTTL time.Duration
	// PreviewTTL bounds the presigned preview URLs of staged media.
	PreviewTTL time.Duration
	// PosterTimeout bounds one background poster extraction.
	PosterTimeout time.Duration
	// SubmitTimeout bounds a submission once started. A submission outlives
	// the request that started it.
	SubmitTimeout time.Duration
	// TempDir holds videos while their poster is extracted. Empty means os.TempDir.
	TempDir string
}

func (c Config) withDefaults() Config {
	if c.DraftTTL <= 0 {
		c.DraftTTL = defaultDraftTTL
	}
	if c.PreviewTTL <= 0 {
		c.PreviewTTL = defaultPreviewTTL
	}
	if c.PosterTimeout <= 0 {
		c.PosterTimeout = defaultPosterTimeout
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = defaultSubmitTimeout
	}
	return c
}
