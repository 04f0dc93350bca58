package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type StatusHandler struct {
	l *zap.Logger
	s StatusService
	g prometheus.Gatherer
}

func NewStatusHandler(l *zap.Logger, s StatusService, g prometheus.Gatherer) *StatusHandler {
	return &StatusHandler{
		l: l.With(zap.String("component", "status_handler")),
		s: s,
		g: g,
	}
}

func (h *StatusHandler) Register(r chi.Router) {
	r.Get("/status", h.statusHandler)
	r.Get("/watch", h.watchHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.g, promhttp.HandlerOpts{}))
}

func (h *StatusHandler) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.s.Status()); err != nil {
		h.l.Error("status encoding error", zap.Error(err))
	}
}

// watchHandler streams rendered samples until the client leaves or, with
// ?limit=n, after n samples.
func (h *StatusHandler) watchHandler(w http.ResponseWriter, r *http.Request) {
	var limit uint64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.l.Error("invalid limit",
				zap.String("limit", raw),
				zap.Error(err))
			http.Error(w, fmt.Sprintf("invalid limit: %v", err), http.StatusBadRequest)
			return
		}
		limit = n
	}

	feed, cancel := h.s.Subscribe()
	defer cancel()

	sw := newStreamWriter(h.l, w)
	w.WriteHeader(http.StatusOK)
	if err := sw.rc.Flush(); err != nil {
		h.l.Error("flush failed", zap.Error(err))
		return
	}

	for limit == 0 || sw.Sent() < limit {
		select {
		case <-r.Context().Done():
			h.l.Debug("watcher left", zap.Uint64("sent", sw.Sent()))
			return
		case s := <-feed:
			if err := sw.Send(SampleEvent{Seq: sw.Sent() + 1, Lux: s}); err != nil {
				return
			}
		}
	}
}
