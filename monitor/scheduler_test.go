package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestInitializeRunsImmediateCheck(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	h.setIdle(t, 20*time.Minute)
	m := h.monitor(t, WithInterval(time.Hour))

	m.Initialize(context.Background(), true)
	assert.Equal(t, int64(1), h.views.calls.Load())
	assert.Equal(t, int64(1), h.logouts.Load())

	m.Stop()
}

func TestInitializeIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	m := h.monitor(t, WithInterval(time.Hour))

	m.Initialize(context.Background(), true)
	m.Initialize(context.Background(), true)
	assert.Equal(t, int64(1), h.views.calls.Load(), "second Initialize must not evaluate or schedule again")

	m.Stop()
}

func TestInitializeWithoutPeriodicCheck(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	m := h.monitor(t, WithInterval(5*time.Millisecond))

	m.Initialize(context.Background(), false)
	// A later call with periodic checks enabled is still a no-op.
	m.Initialize(context.Background(), true)
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, h.views.calls.Load())
	m.Stop()
}

func TestSchedulerTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	m := h.monitor(t, WithInterval(5*time.Millisecond))
	m.Initialize(context.Background(), true)

	require.Eventually(t, func() bool {
		return h.views.calls.Load() >= 3
	}, time.Second, time.Millisecond)

	m.Stop()
	after := h.views.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, h.views.calls.Load(), "no evaluations after Stop")

	// Stop is idempotent.
	m.Stop()
}

func TestSchedulerSurvivesFailingTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	h := newHarness(t)
	h.views.err = errBoom
	m := h.monitor(t, WithInterval(5*time.Millisecond), WithMetrics(metrics))
	m.Initialize(context.Background(), true)

	require.Eventually(t, func() bool {
		return h.views.calls.Load() >= 3
	}, time.Second, time.Millisecond)
	m.Stop()

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.EvaluationErrors), 3.0)
	assert.Zero(t, h.logouts.Load())
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	m := h.monitor(t, WithInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	m.Initialize(ctx, true)

	require.Eventually(t, func() bool {
		return h.views.calls.Load() >= 2
	}, time.Second, time.Millisecond)
	cancel()
	m.Stop()
}

func TestSchedulerSkipsOverlappingTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	h := newHarness(t)
	h.views.block = make(chan struct{})
	h.views.entered = make(chan struct{}, 1)
	m := h.monitor(t, WithInterval(5*time.Millisecond), WithMetrics(metrics))

	// Hold an evaluation open from outside the scheduler.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Evaluate(context.Background())
	}()
	<-h.views.entered

	m.Initialize(context.Background(), true)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.TicksSkipped) >= 2
	}, time.Second, time.Millisecond)

	m.Stop()
	close(h.views.block)
	<-done
	assert.Equal(t, int64(1), h.views.calls.Load())
}

func TestStopBeforeInitialize(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	h.setIdle(t, 20*time.Minute)
	m := h.monitor(t, WithInterval(5*time.Millisecond))
	m.Stop()

	m.Initialize(context.Background(), true)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, h.views.calls.Load(), "a stopped monitor must not evaluate")
	assert.Zero(t, h.logouts.Load())
	m.Stop()
}
