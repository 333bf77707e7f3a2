package api

import (
	"time"

	"github.com/jmcleod/ironlock/monitor"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ActivityResponse is returned from POST /activity.
type ActivityResponse struct {
	LastActive time.Time `json:"last_active"`
}

// TimeoutRequest is the JSON body for PUT /timeout.
type TimeoutRequest struct {
	Minutes *int `json:"minutes"`
}

// StatusResponse is returned from GET /status.
type StatusResponse struct {
	monitor.Status
	Views []string `json:"views"`
}

// ViewsResponse is returned from the /views endpoints.
type ViewsResponse struct {
	Views []string `json:"views"`
}
