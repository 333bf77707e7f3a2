// Package monitor implements the inactivity monitor that locks the client
// after a period without user activity.
//
// On every check the monitor asks, in order: is a blocking view open, is the
// session authenticated, is the key already gone, what is the effective
// timeout, and when was the user last active. The answers are reduced to a
// Decision by Decide; a TriggerLogout decision invokes the logout callback.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmcleod/ironlock/storage"
)

// DefaultInterval is the period between scheduled evaluations.
const DefaultInterval = 10 * time.Second

// KeyService reports and rotates the resident decryption key.
type KeyService interface {
	HasKey(ctx context.Context) (bool, error)
	RotateKey(ctx context.Context) error
}

// AuthState reports whether the client holds an authenticated session.
type AuthState interface {
	IsAuthenticated(ctx context.Context) (bool, error)
}

// ViewState reports whether a view that suppresses locking is open.
type ViewState interface {
	IsBlockingViewOpen(ctx context.Context) (bool, error)
}

// PlatformPolicy supplies a timeout that takes precedence over the stored
// preference. ok is false when the platform does not override it.
type PlatformPolicy interface {
	OverrideTimeoutMinutes(ctx context.Context) (minutes int, ok bool, err error)
}

// PolicyFunc adapts a function to PlatformPolicy.
type PolicyFunc func(ctx context.Context) (int, bool, error)

func (f PolicyFunc) OverrideTimeoutMinutes(ctx context.Context) (int, bool, error) {
	return f(ctx)
}

// FixedOverride returns a PlatformPolicy that always overrides with minutes.
func FixedOverride(minutes int) PlatformPolicy {
	return PolicyFunc(func(context.Context) (int, bool, error) {
		return minutes, true, nil
	})
}

// LogoutFunc performs the lock/logout side effect.
type LogoutFunc func(ctx context.Context) error

// Collaborators are the monitor's dependencies. Policy is optional.
type Collaborators struct {
	Store  storage.Store
	Keys   KeyService
	Auth   AuthState
	Views  ViewState
	Policy PlatformPolicy
	Logout LogoutFunc
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the period between scheduled evaluations.
// Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithClock replaces the monitor's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

// Monitor periodically decides whether an idle session must be logged out.
type Monitor struct {
	c        Collaborators
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *Metrics

	evaluating atomic.Bool

	mu              sync.Mutex
	inited          bool
	pinProtectedKey *storage.Envelope

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New returns a Monitor. Store, Keys, Auth, Views and Logout are required.
func New(c Collaborators, opts ...Option) (*Monitor, error) {
	switch {
	case c.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingCollaborator)
	case c.Keys == nil:
		return nil, fmt.Errorf("%w: keys", ErrMissingCollaborator)
	case c.Auth == nil:
		return nil, fmt.Errorf("%w: auth", ErrMissingCollaborator)
	case c.Views == nil:
		return nil, fmt.Errorf("%w: views", ErrMissingCollaborator)
	case c.Logout == nil:
		return nil, fmt.Errorf("%w: logout callback", ErrMissingCollaborator)
	}
	m := &Monitor{
		c:        c,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "monitor")
	return m, nil
}

// Initialize starts the monitor. Only the first call has any effect, and
// after Stop it does nothing.
//
// With enablePeriodicCheck set, one evaluation runs before Initialize
// returns and further evaluations run every interval until Stop is called
// or ctx is canceled. Evaluation errors are logged, never returned.
func (m *Monitor) Initialize(ctx context.Context, enablePeriodicCheck bool) {
	m.mu.Lock()
	if m.inited || m.stoppedLocked() {
		m.mu.Unlock()
		return
	}
	m.inited = true
	m.mu.Unlock()

	if !enablePeriodicCheck {
		return
	}

	m.tick(ctx)

	m.mu.Lock()
	if m.stoppedLocked() {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.tick(ctx)
			}
		}
	}()
}

// Stop halts scheduled evaluations and waits for the loop to exit.
// It is safe to call more than once, and before Initialize. A stopped
// monitor cannot be started again.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.mu.Unlock()
	m.wg.Wait()
}

// stoppedLocked reports whether Stop has been called. m.mu must be held.
func (m *Monitor) stoppedLocked() bool {
	select {
	case <-m.stopCh:
		return true
	default:
		return false
	}
}

func (m *Monitor) tick(ctx context.Context) {
	d, err := m.Evaluate(ctx)
	if err != nil {
		m.logger.Warn("lock evaluation failed", "error", err)
		return
	}
	if d.Reason == ReasonInProgress {
		m.metrics.recordSkip()
		m.logger.Debug("skipping lock evaluation, previous one still running")
	}
}

// IsLocked reports whether the decryption key is absent.
func (m *Monitor) IsLocked(ctx context.Context) (bool, error) {
	has, err := m.c.Keys.HasKey(ctx)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// EffectiveTimeout resolves the timeout in minutes: the platform override
// when present, otherwise the stored preference. ok is false when neither
// is set.
func (m *Monitor) EffectiveTimeout(ctx context.Context) (minutes int, ok bool, err error) {
	if m.c.Policy != nil {
		minutes, ok, err = m.c.Policy.OverrideTimeoutMinutes(ctx)
		if err != nil {
			return 0, false, fmt.Errorf("reading platform timeout: %w", err)
		}
		if ok {
			return minutes, true, nil
		}
	}
	stored, ok, err := storage.GetInt(ctx, m.c.Store, storage.KeyLockOption)
	if err != nil {
		return 0, false, fmt.Errorf("reading timeout preference: %w", err)
	}
	return int(stored), ok, nil
}

// Evaluate runs one lock check and triggers logout when it is due.
// If another evaluation is in flight it returns immediately with
// ReasonInProgress. Collaborator errors are returned unchanged in meaning
// and leave the session untouched.
func (m *Monitor) Evaluate(ctx context.Context) (Decision, error) {
	if !m.evaluating.CompareAndSwap(false, true) {
		return deferFor(ReasonInProgress), nil
	}
	defer m.evaluating.Store(false)

	in, err := m.gather(ctx)
	if err != nil {
		m.metrics.recordError()
		return Decision{}, err
	}
	d := Decide(in)
	m.metrics.recordDecision(d)

	if d.Outcome != TriggerLogout {
		return d, nil
	}
	m.logger.Info("idle timeout reached, logging out",
		"elapsed", d.Elapsed.Round(time.Second).String(),
		"timeout_minutes", in.TimeoutMinutes,
	)
	if err := m.TriggerLogout(ctx); err != nil {
		return d, err
	}
	return d, nil
}

// gather queries collaborators in decision order and stops at the first
// answer that defers the decision.
func (m *Monitor) gather(ctx context.Context) (Inputs, error) {
	var in Inputs
	var err error

	if in.BlockingViewOpen, err = m.c.Views.IsBlockingViewOpen(ctx); err != nil {
		return in, fmt.Errorf("checking blocking views: %w", err)
	}
	if in.BlockingViewOpen {
		return in, nil
	}

	if in.Authenticated, err = m.c.Auth.IsAuthenticated(ctx); err != nil {
		return in, fmt.Errorf("checking authentication: %w", err)
	}
	if !in.Authenticated {
		return in, nil
	}

	if in.Locked, err = m.IsLocked(ctx); err != nil {
		return in, fmt.Errorf("checking lock state: %w", err)
	}
	if in.Locked {
		return in, nil
	}

	if in.TimeoutMinutes, in.HasTimeout, err = m.EffectiveTimeout(ctx); err != nil {
		return in, err
	}
	if !in.HasTimeout || in.TimeoutMinutes < 0 {
		return in, nil
	}

	lastActive, ok, err := storage.GetInt(ctx, m.c.Store, storage.KeyLastActive)
	if err != nil {
		return in, fmt.Errorf("reading last active: %w", err)
	}
	in.HasLastActive = ok
	in.LastActive = time.UnixMilli(lastActive)
	in.Now = m.now()
	return in, nil
}

// TriggerLogout invokes the logout callback if the session is still
// authenticated. The callback's error is returned as is.
func (m *Monitor) TriggerLogout(ctx context.Context) error {
	authed, err := m.c.Auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("checking authentication: %w", err)
	}
	if !authed {
		return nil
	}
	m.metrics.recordLogout()
	return m.c.Logout(ctx)
}

// SetTimeoutOption stores a new timeout preference and then rotates the
// resident key. Rotation is skipped if the preference could not be saved.
func (m *Monitor) SetTimeoutOption(ctx context.Context, minutes int) error {
	if err := storage.SaveInt(ctx, m.c.Store, storage.KeyLockOption, int64(minutes)); err != nil {
		return fmt.Errorf("saving timeout preference: %w", err)
	}
	if err := m.c.Keys.RotateKey(ctx); err != nil {
		return fmt.Errorf("rotating key: %w", err)
	}
	m.logger.Info("timeout preference changed", "minutes", minutes)
	return nil
}

// SetPinProtectedKey caches the PIN-protected key envelope.
func (m *Monitor) SetPinProtectedKey(env *storage.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinProtectedKey = env
}

// PinProtectedKey returns the cached PIN-protected key envelope, or nil.
func (m *Monitor) PinProtectedKey() *storage.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pinProtectedKey
}

// Clear drops the cached PIN-protected key and removes the stored one.
func (m *Monitor) Clear(ctx context.Context) error {
	m.SetPinProtectedKey(nil)
	return m.c.Store.Remove(ctx, storage.KeyProtectedPin)
}
