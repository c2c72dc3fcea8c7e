package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"voice-appointments-go/internal/logger"
)

type Middleware struct {
	log *logger.Logger
}

func NewMiddleware(log *logger.Logger) *Middleware {
	return &Middleware{log: log.Component("api.middleware")}
}

// Logger writes one line per request once the handler returns.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			m.log.WithRequest(r).WithFields(logrus.Fields{
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

func (m *Middleware) Recoverer(next http.Handler) http.Handler {
	return middleware.Recoverer(next)
}
