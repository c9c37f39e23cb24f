package main

import (
	"github.com/fhuszti/levigram-go/internal/config"
	"github.com/fhuszti/levigram-go/internal/handler/api"
	cMiddleware "github.com/fhuszti/levigram-go/internal/middleware"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type services struct {
	composer port.DraftComposer
	reader   port.FeedReader
	writer   port.FeedWriter
	users    port.UsersAPI
	profile  port.ProfileUpdater
	push     port.PushSubscriber
}

// mountRoutes registers the public routes at the top level and everything
// acting on a user's behalf behind bearer auth.
func mountRoutes(r chi.Router, cfg *config.Settings, svc services) {
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/users/login", api.LoginHandler(svc.users))
	r.Post("/users/signup", api.SignupHandler(svc.users))
	r.Post("/users/reset-password", api.ResetPasswordHandler(svc.users))
	r.Get("/push/vapid-key", api.VAPIDKeyHandler(svc.push))

	r.Group(func(r chi.Router) {
		r.Use(cMiddleware.WithBearerAuth(cfg.JWTPublicKey))

		r.Route("/drafts", func(r chi.Router) {
			r.Use(cMiddleware.RateLimit("drafts", cfg.RateLimitPerMin, cfg.RateLimitBurst))
			r.Post("/", api.OpenDraftHandler(svc.composer))
			r.Route("/{id}", func(r chi.Router) {
				r.Use(cMiddleware.WithDraftID())
				r.Get("/", api.GetDraftHandler(svc.composer))
				r.Patch("/", api.UpdateDraftHandler(svc.composer))
				r.Delete("/", api.DiscardDraftHandler(svc.composer))
				r.Post("/media", api.IngestMediaHandler(svc.composer, cfg.MaxUploadBytes))
				r.Delete("/media/{index}", api.RemoveMediaHandler(svc.composer))
				r.Get("/media/{mediaID}/preview", api.PreviewMediaHandler(svc.composer))
				r.Put("/active", api.SetActiveHandler(svc.composer))
				r.Post("/submit", api.SubmitDraftHandler(svc.composer))
			})
		})

		r.Get("/feed", api.GetFeedHandler(svc.reader))
		r.Get("/posts/search", api.SearchPostsHandler(svc.reader))
		r.Get("/posts/{id}", api.GetPostHandler(svc.reader))
		r.Delete("/posts/{id}", api.DeletePostHandler(svc.writer))
		r.Post("/posts/{id}/like", api.ToggleLikeHandler(svc.writer))
		r.Get("/posts/{id}/likes", api.GetLikesHandler(svc.reader))
		r.Get("/posts/{id}/comments", api.GetCommentsHandler(svc.reader))
		r.Post("/comments", api.AddCommentHandler(svc.writer))
		r.Patch("/comments/{id}", api.EditCommentHandler(svc.writer))
		r.Delete("/comments/{id}", api.DeleteCommentHandler(svc.writer))

		r.Get("/users/me", api.MeHandler(svc.users))
		r.With(cMiddleware.RateLimit("profile", cfg.RateLimitPerMin, cfg.RateLimitBurst)).
			Patch("/users/profile", api.UpdateProfileHandler(svc.profile))

		r.Post("/push/subscribe", api.SubscribePushHandler(svc.push))
	})
}
