package api

import (
	"net/http"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

type PushKeysRequest struct {
	P256dh string `json:"p256dh" validate:"required,b64url"`
	Auth   string `json:"auth" validate:"required,b64url"`
}

type SubscribePushRequest struct {
	Endpoint       string          `json:"endpoint" validate:"required,url"`
	ExpirationTime *int64          `json:"expirationTime"`
	Keys           PushKeysRequest `json:"keys" validate:"required"`
}

func SubscribePushHandler(svc port.PushSubscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubscribePushRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		sub := model.PushSubscription{
			Endpoint:       req.Endpoint,
			ExpirationTime: req.ExpirationTime,
			Keys:           model.PushKeys(req.Keys),
		}
		if err := svc.Subscribe(r.Context(), sub); err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func VAPIDKeyHandler(svc port.PushSubscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := svc.VAPIDPublicKey()
		if key == "" {
			WriteError(r.Context(), w, http.StatusNotFound, "Push notifications are not configured", nil)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		RespondJSON(r.Context(), w, http.StatusOK, map[string]string{"publicKey": key})
	}
}
