package monitor

import (
	"math"
	"time"
)

// Outcome is the result of a single lock evaluation.
type Outcome int

const (
	// Defer leaves the session as it is for this cycle.
	Defer Outcome = iota
	// TriggerLogout ends the session.
	TriggerLogout
)

func (o Outcome) String() string {
	switch o {
	case Defer:
		return "defer"
	case TriggerLogout:
		return "trigger_logout"
	default:
		return "unknown"
	}
}

// Reason explains an Outcome.
type Reason string

const (
	ReasonBlockingViewOpen Reason = "blocking_view_open"
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonAlreadyLocked    Reason = "already_locked"
	ReasonNoTimeout        Reason = "no_timeout"
	ReasonLockDisabled     Reason = "lock_disabled"
	ReasonNoLastActive     Reason = "no_last_active"
	ReasonNotIdle          Reason = "not_idle"
	ReasonIdleTimeout      Reason = "idle_timeout"
	// ReasonInProgress is reported when another evaluation is still running.
	ReasonInProgress Reason = "evaluation_in_progress"
)

// Decision is the outcome of an evaluation together with its reason.
// Elapsed and Threshold are only set once both are known.
type Decision struct {
	Outcome   Outcome
	Reason    Reason
	Elapsed   time.Duration
	Threshold time.Duration
}

// Inputs is a snapshot of everything a lock decision depends on.
// Fields are consulted in declaration order; a field after the first
// deferring one is never read.
type Inputs struct {
	BlockingViewOpen bool
	Authenticated    bool
	Locked           bool
	HasTimeout       bool
	TimeoutMinutes   int
	HasLastActive    bool
	LastActive       time.Time
	Now              time.Time
}

func deferFor(r Reason) Decision {
	return Decision{Outcome: Defer, Reason: r}
}

// Decide returns the lock decision for in. It has no side effects.
//
// A LastActive later than Now (the wall clock moved backwards) counts as
// zero elapsed time.
func Decide(in Inputs) Decision {
	switch {
	case in.BlockingViewOpen:
		return deferFor(ReasonBlockingViewOpen)
	case !in.Authenticated:
		return deferFor(ReasonNotAuthenticated)
	case in.Locked:
		return deferFor(ReasonAlreadyLocked)
	case !in.HasTimeout:
		return deferFor(ReasonNoTimeout)
	case in.TimeoutMinutes < 0:
		return deferFor(ReasonLockDisabled)
	case !in.HasLastActive:
		return deferFor(ReasonNoLastActive)
	}

	elapsed := in.Now.Sub(in.LastActive)
	if elapsed < 0 {
		elapsed = 0
	}
	threshold, ok := timeoutThreshold(in.TimeoutMinutes)

	d := Decision{Outcome: Defer, Reason: ReasonNotIdle, Elapsed: elapsed, Threshold: threshold}
	if ok && elapsed >= threshold {
		d.Outcome = TriggerLogout
		d.Reason = ReasonIdleTimeout
	}
	return d
}

// maxTimeoutMinutes is the largest timeout whose Duration fits in an int64.
const maxTimeoutMinutes = int64(math.MaxInt64 / int64(time.Minute))

// timeoutThreshold converts a non-negative timeout to a Duration. Timeouts
// too large to represent saturate at the maximum Duration and ok is false:
// such a session can never be idle long enough.
func timeoutThreshold(minutes int) (threshold time.Duration, ok bool) {
	if int64(minutes) > maxTimeoutMinutes {
		return time.Duration(math.MaxInt64), false
	}
	return time.Duration(minutes) * time.Minute, true
}
