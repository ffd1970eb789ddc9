package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the chat API routes
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.config.WriteTimeout))
	r.Use(requestID)
	r.Use(requestLogger(h.log))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID, HeaderUser},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Get("/stats", h.Stats)

	r.Route("/participants", func(pr chi.Router) {
		pr.Post("/", h.Join)
		pr.Get("/", h.ListParticipants)
	})

	r.Post("/status", h.Heartbeat)

	r.Route("/messages", func(mr chi.Router) {
		mr.Post("/", h.SendMessage)
		mr.Get("/", h.ListMessages)
		mr.Put("/{id}", h.EditMessage)
		mr.Delete("/{id}", h.DeleteMessage)
	})

	return r
}
