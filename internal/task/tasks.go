package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TypeBackfillPoster = "post:backfill-poster"

type BackfillPosterPayload struct {
	PostID string `json:"post_id" validate:"required,max=64"`
}

// NewBackfillPosterTask creates an Asynq task filling in the missing video posters of a post.
func NewBackfillPosterTask(postID string) (*asynq.Task, error) {
	if postID == "" {
		return nil, fmt.Errorf("post ID is required")
	}
	p := BackfillPosterPayload{PostID: postID}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal backfill-poster payload: %w", err)
	}
	return asynq.NewTask(TypeBackfillPoster, data), nil
}

// ParseBackfillPosterPayload parses the task payload to BackfillPosterPayload.
func ParseBackfillPosterPayload(t *asynq.Task) (BackfillPosterPayload, error) {
	var p BackfillPosterPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return BackfillPosterPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	if p.PostID == "" {
		return BackfillPosterPayload{}, fmt.Errorf("payload has no post_id")
	}
	return p, nil
}
