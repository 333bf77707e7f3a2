package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/jmcleod/ironlock/storage"
)

// Status is a read-only view of the monitor's inputs.
type Status struct {
	Authenticated    bool       `json:"authenticated"`
	Locked           bool       `json:"locked"`
	BlockingViewOpen bool       `json:"blocking_view_open"`
	TimeoutMinutes   *int       `json:"timeout_minutes,omitempty"`
	LastActive       *time.Time `json:"last_active,omitempty"`
	// LockIn is the time left before the idle timeout, when one applies.
	LockIn *time.Duration `json:"lock_in,omitempty"`
}

// Status queries every collaborator without short-circuiting and without
// triggering logout.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	var st Status
	var err error

	if st.BlockingViewOpen, err = m.c.Views.IsBlockingViewOpen(ctx); err != nil {
		return st, fmt.Errorf("checking blocking views: %w", err)
	}
	if st.Authenticated, err = m.c.Auth.IsAuthenticated(ctx); err != nil {
		return st, fmt.Errorf("checking authentication: %w", err)
	}
	if st.Locked, err = m.IsLocked(ctx); err != nil {
		return st, fmt.Errorf("checking lock state: %w", err)
	}

	minutes, ok, err := m.EffectiveTimeout(ctx)
	if err != nil {
		return st, err
	}
	if ok {
		st.TimeoutMinutes = &minutes
	}

	ms, ok, err := storage.GetInt(ctx, m.c.Store, storage.KeyLastActive)
	if err != nil {
		return st, fmt.Errorf("reading last active: %w", err)
	}
	if ok {
		last := time.UnixMilli(ms).UTC()
		st.LastActive = &last
	}

	if st.TimeoutMinutes != nil && *st.TimeoutMinutes >= 0 && st.LastActive != nil {
		elapsed := m.now().Sub(*st.LastActive)
		if elapsed < 0 {
			elapsed = 0
		}
		threshold, _ := timeoutThreshold(*st.TimeoutMinutes)
		left := threshold - elapsed
		if left < 0 {
			left = 0
		}
		st.LockIn = &left
	}
	return st, nil
}
