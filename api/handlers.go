package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RecordActivity stores the current time as the last user activity.
func (a *API) RecordActivity(w http.ResponseWriter, r *http.Request) {
	at, err := a.activity.Touch(r.Context())
	if err != nil {
		a.mapError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, ActivityResponse{LastActive: at.UTC()})
}

// LastActivity returns the recorded last user activity.
func (a *API) LastActivity(w http.ResponseWriter, r *http.Request) {
	at, ok, err := a.activity.LastActive(r.Context())
	if err != nil {
		a.mapError(w, err)
		return
	}
	if !ok {
		a.writeError(w, http.StatusNotFound, "no activity recorded")
		return
	}
	a.writeJSON(w, http.StatusOK, ActivityResponse{LastActive: at.UTC()})
}

// Status reports the monitor's current inputs.
func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	st, err := a.monitor.Status(r.Context())
	if err != nil {
		a.mapError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, StatusResponse{Status: st, Views: a.views.Names()})
}

// SetTimeout stores a new timeout preference.
func (a *API) SetTimeout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSmallBodySize)
	var req TimeoutRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			a.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Minutes == nil {
		a.writeError(w, http.StatusBadRequest, "minutes is required")
		return
	}
	if err := a.monitor.SetTimeoutOption(r.Context(), *req.Minutes); err != nil {
		a.mapError(w, err)
		return
	}
	a.logger.Info("timeout changed via api", "minutes", *req.Minutes)
	w.WriteHeader(http.StatusNoContent)
}

// Lock logs out the current session immediately.
func (a *API) Lock(w http.ResponseWriter, r *http.Request) {
	if err := a.monitor.TriggerLogout(r.Context()); err != nil {
		a.mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearPin removes the PIN-protected key.
func (a *API) ClearPin(w http.ResponseWriter, r *http.Request) {
	if err := a.monitor.Clear(r.Context()); err != nil {
		a.mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListViews returns the open blocking views.
func (a *API) ListViews(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, ViewsResponse{Views: a.views.Names()})
}

// OpenView marks a blocking view as open.
func (a *API) OpenView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.views.Open(name)
	a.writeJSON(w, http.StatusOK, ViewsResponse{Views: a.views.Names()})
}

// CloseView releases one opener of a blocking view.
func (a *API) CloseView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.views.Close(name)
	a.writeJSON(w, http.StatusOK, ViewsResponse{Views: a.views.Names()})
}
