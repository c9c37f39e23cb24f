package push

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

var ErrInvalidSubscription = errors.New("invalid push subscription")

const (
	p256dhLen = 65
	authLen   = 16
)

type Service struct {
	api      port.PushAPI
	vapidKey string
}

// compile-time check: *Service must satisfy port.PushSubscriber
var _ port.PushSubscriber = (*Service)(nil)

func NewService(api port.PushAPI, vapidKey string) *Service {
	return &Service{api: api, vapidKey: vapidKey}
}

func (s *Service) VAPIDPublicKey() string {
	return s.vapidKey
}

func (s *Service) Subscribe(ctx context.Context, sub model.PushSubscription) error {
	if err := Validate(sub); err != nil {
		return err
	}
	if err := s.api.SubscribePush(ctx, sub); err != nil {
		return err
	}
	logger.Info(ctx, "✅  Registered push subscription")
	return nil
}

// Validate checks the endpoint and the client keys of a Web Push subscription.
func Validate(sub model.PushSubscription) error {
	u, err := url.Parse(sub.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("%w: endpoint must be an absolute URL", ErrInvalidSubscription)
	}

	key, err := decodeKey(sub.Keys.P256dh)
	if err != nil || len(key) != p256dhLen || key[0] != 0x04 {
		return fmt.Errorf("%w: p256dh must be an uncompressed P-256 point", ErrInvalidSubscription)
	}
	auth, err := decodeKey(sub.Keys.Auth)
	if err != nil || len(auth) != authLen {
		return fmt.Errorf("%w: auth must be %d bytes", ErrInvalidSubscription, authLen)
	}
	return nil
}

// decodeKey accepts base64url with or without padding.
func decodeKey(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
