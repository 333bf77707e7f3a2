// Package activity records user activity for the inactivity monitor.
package activity

import (
	"context"
	"time"

	"github.com/jmcleod/ironlock/storage"
)

// Recorder writes the last-active timestamp to storage.
type Recorder struct {
	store storage.Store
	now   func() time.Time
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store storage.Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// WithClock replaces the recorder's time source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Touch records the current time as the last activity.
func (r *Recorder) Touch(ctx context.Context) (time.Time, error) {
	now := r.now()
	if err := storage.SaveInt(ctx, r.store, storage.KeyLastActive, now.UnixMilli()); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// LastActive returns the recorded last activity. ok is false when nothing
// has been recorded yet.
func (r *Recorder) LastActive(ctx context.Context) (t time.Time, ok bool, err error) {
	ms, ok, err := storage.GetInt(ctx, r.store, storage.KeyLastActive)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}
