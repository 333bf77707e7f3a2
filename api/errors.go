package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/ironlock/keys"
	"github.com/jmcleod/ironlock/storage"
)

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Debug("writing response failed", "status", status, "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (a *API) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, keys.ErrNoKey):
		a.writeError(w, http.StatusConflict, err.Error())
	default:
		a.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
