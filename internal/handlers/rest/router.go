// Package rest exposes the marketplace, lifecycle, and trigger-cycle
// operations over HTTP.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

// customerIDHeader carries the caller identity on watcher endpoints. Absent
// or empty means the anonymous customer.
const customerIDHeader = "X-Customer-Id"

type handler struct {
	marketplace marketplace.Service
	trigger     trigger.Service
	evaluators  evaluator.Registry
}

// NewRouter builds the HTTP routing table over the given services.
func NewRouter(m marketplace.Service, t trigger.Service, evaluators evaluator.Registry) http.Handler {
	h := &handler{
		marketplace: m,
		trigger:     t,
		evaluators:  evaluators,
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)

	router.Get("/health", h.health)

	router.Route("/v1", func(r chi.Router) {
		r.Post("/operators", h.registerOperator)
		r.Get("/operators", h.listOperators)

		r.Post("/watcher-types", h.createWatcherType)
		r.Get("/watcher-types", h.listWatcherTypes)
		r.Get("/watcher-types/{watcherTypeID}", h.getWatcherType)
		r.Post("/watcher-types/{watcherTypeID}/deprecate", h.deprecateWatcherType)

		r.Post("/watchers", h.createWatcher)
		r.Get("/watchers", h.listWatchers)
		r.Get("/watchers/{watcherID}", h.getWatcher)
		r.Post("/watchers/{watcherID}/pause", h.pauseWatcher)
		r.Post("/watchers/{watcherID}/resume", h.resumeWatcher)
		r.Post("/watchers/{watcherID}/expire", h.expireWatcher)

		r.Get("/evaluators", h.listEvaluators)

		r.Post("/cycles/run", h.runCycle)
	})

	return router
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger emits one structured log line per handled request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Info(r.Context(), "http request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
