package monitor

import "errors"

var (
	// ErrMissingCollaborator is returned by New when a required dependency is nil.
	ErrMissingCollaborator = errors.New("missing collaborator")
)
