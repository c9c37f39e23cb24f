package backend

import (
	"context"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/model"
)

func (c *Client) SubscribePush(ctx context.Context, sub model.PushSubscription) error {
	return c.do(ctx, http.MethodPost, "push/subscribe", sub, nil)
}
