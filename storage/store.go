// Package storage provides the key-value storage abstraction used by the
// inactivity monitor and its collaborators.
package storage

import (
	"context"
	"errors"
)

// Persisted keys read and written by the lock subsystem.
const (
	// KeyLockOption holds the user's lock timeout preference in minutes.
	// Negative values disable automatic locking.
	KeyLockOption = "lockOption"
	// KeyLastActive holds the epoch-millisecond time of the last recorded activity.
	KeyLastActive = "lastActive"
	// KeyProtectedPin holds the PIN-protected key envelope.
	KeyProtectedPin = "protectedPin"
)

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("not found")
	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("empty key")
)

// Store defines the interface for durable key-value storage.
// Values are opaque byte slices; callers encode them (see GetInt, SaveInt).
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Save stores value under key, overwriting any prior value.
	Save(ctx context.Context, key string, value []byte) error
	// Remove deletes the value under key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
