package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gnotes/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// When authEnabled is set every route requires "Authorization: Bearer <token>".
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Post("/notes/*", h.AddNote)
	r.Delete("/notes/*", h.DeleteNote)

	r.Get("/tags", h.ListTags)
	r.Get("/tags/{tag}", h.SearchTag)
	r.Put("/tags/{tag}/*", h.TagNote)
	r.Delete("/tags/{tag}/*", h.UntagNote)

	r.Get("/find", h.Find)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
