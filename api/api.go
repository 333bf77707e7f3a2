// Package api exposes the inactivity monitor over a local HTTP control API.
//
// The client UI reports activity and blocking views here, reads the lock
// status, and changes the timeout preference. The API is meant to listen on
// a loopback address only.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmcleod/ironlock/activity"
	"github.com/jmcleod/ironlock/monitor"
	"github.com/jmcleod/ironlock/views"
)

const maxSmallBodySize = 4 << 10

// API holds the dependencies needed by the REST handlers.
type API struct {
	monitor  *monitor.Monitor
	activity *activity.Recorder
	views    *views.Tracker
	logger   *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// New creates a new API instance.
func New(m *monitor.Monitor, rec *activity.Recorder, tracker *views.Tracker, opts ...Option) *API {
	a := &API{
		monitor:  m,
		activity: rec,
		views:    tracker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "api")
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.LocalOnly)
	r.Use(RequestLogger(a.logger))
	r.Use(SecurityHeaders)

	r.Get("/activity", a.LastActivity)
	r.Post("/activity", a.RecordActivity)
	r.Get("/status", a.Status)
	r.Put("/timeout", a.SetTimeout)
	r.Post("/lock", a.Lock)
	r.Delete("/pin", a.ClearPin)

	r.Get("/views", a.ListViews)
	r.Post("/views/{name}", a.OpenView)
	r.Delete("/views/{name}", a.CloseView)

	return r
}

// Handler returns the full handler tree: health, metrics and the API
// mounted under /api/v1.
func (a *API) Handler(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			a.logger.Debug("writing health response failed", "error", err)
		}
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Mount("/api/v1", a.Router())
	return r
}
