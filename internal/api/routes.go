package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voice-appointments-go/internal/logger"
)

type Router struct {
	handler    *Handler
	middleware *Middleware
}

func NewRouter(runner Runner, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(runner, log),
		middleware: NewMiddleware(log),
	}
}

func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)

	router.Get("/", r.handler.Index)
	router.Get("/healthz", r.handler.Health)
	router.Post("/make_call", r.handler.MakeCall)

	return router
}
