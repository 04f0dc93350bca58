package api

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

func NewRouter(l *zap.Logger, h *StatusHandler) http.Handler {
	l = l.With(zap.String("component", "http"))

	r := chi.NewRouter()
	r.Use(accessLog(l))
	h.Register(r)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(l)),
		handlers.PrintRecoveryStack(true))

	return recovery(r)
}

func accessLog(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			l.Debug("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("code", m.Code),
				zap.Int64("written", m.Written),
				zap.Duration("duration", m.Duration))
		})
	}
}
