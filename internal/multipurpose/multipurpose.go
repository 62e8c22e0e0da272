// Package multipurpose implements the tap-vs-hold state machine: a
// per-trigger mapping Key -> (tap_out, hold_out) with timeout and
// interrupt rules.
package multipurpose

import (
	"time"

	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/keycode"
)

// subState distinguishes a still-pending tap-or-hold decision from one
// that has already committed to Hold.
type subState int

const (
	subPending subState = iota
	subHold
)

// active holds the in-flight trigger state while the manager is not Idle.
type active struct {
	trigger   keycode.Key
	tapOut    keycode.Key
	holdOut   keycode.Key
	pressTime time.Time
	sub       subState
}

// ReleaseKind distinguishes the two ways a Release resolves.
type ReleaseKind int

const (
	ReleaseNone ReleaseKind = iota
	ReleaseTap
	ReleaseHold
)

// ReleaseResult is what Release returns: either no multipurpose state was
// active, a short tap (engine emits Press+Release of Key), or a
// hold-release (engine emits Release of Key, having already emitted its
// Press from Timeout/Interrupt).
type ReleaseResult struct {
	Kind ReleaseKind
	Key  keycode.Key
}

// Manager is the engine's single multipurpose state machine: Idle or
// Active{trigger, ..., sub}; only one trigger can be in-flight at a
// time.
type Manager struct {
	timeout time.Duration
	state   *active
}

// NewManager creates a Manager with the given tap/hold timeout.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{timeout: timeout}
}

// SetTimeout updates the configured timeout.
func (m *Manager) SetTimeout(d time.Duration) { m.timeout = d }

// IsIdle reports whether no trigger is currently in-flight.
func (m *Manager) IsIdle() bool { return m.state == nil }

// ActiveTrigger returns the in-flight trigger key, if any.
func (m *Manager) ActiveTrigger() (keycode.Key, bool) {
	if m.state == nil {
		return 0, false
	}
	return m.state.trigger, true
}

// Start begins tracking a Press of trigger with the given tap/hold
// outputs. The caller (engine) must already have verified: (a) the
// manager is Idle, (b) no other modifier is physically held, and (c) any
// gating condition passed.
func (m *Manager) Start(trigger keycode.Key, entry combo.MultiEntry, now time.Time) {
	m.state = &active{
		trigger:   trigger,
		tapOut:    entry.Tap,
		holdOut:   entry.Hold,
		pressTime: now,
		sub:       subPending,
	}
}

// CheckTimeout transitions a Pending trigger to Hold once the timeout has
// elapsed, returning the hold output to Press. Returns false if nothing
// changed (idle, or not yet pending, or already Hold, or timeout not
// reached).
func (m *Manager) CheckTimeout(now time.Time) (keycode.Key, bool) {
	if m.state == nil || m.state.sub != subPending {
		return 0, false
	}
	if now.Sub(m.state.pressTime) < m.timeout {
		return 0, false
	}
	m.state.sub = subHold
	return m.state.holdOut, true
}

// InterruptWithKey transitions a Pending trigger to Hold because another
// key was pressed while it was still pending. Returns the hold output to
// Press (the caller emits its Press strictly before processing the
// interrupting key) and ok=true; ok=false if there was nothing Pending
// to interrupt.
func (m *Manager) InterruptWithKey() (keycode.Key, bool) {
	if m.state == nil || m.state.sub != subPending {
		return 0, false
	}
	m.state.sub = subHold
	return m.state.holdOut, true
}

// Release resolves the in-flight trigger's Release event:
// Pending within timeout -> Tap; Pending past timeout, or already Hold ->
// HoldRelease. Clears the manager back to Idle.
func (m *Manager) Release(now time.Time) ReleaseResult {
	if m.state == nil {
		return ReleaseResult{Kind: ReleaseNone}
	}
	s := m.state
	m.state = nil
	if s.sub == subPending && now.Sub(s.pressTime) < m.timeout {
		return ReleaseResult{Kind: ReleaseTap, Key: s.tapOut}
	}
	return ReleaseResult{Kind: ReleaseHold, Key: s.holdOut}
}

// RepeatSuppressed reports whether a Repeat of the in-flight trigger
// should be suppressed (still Pending) versus re-emitted as the hold
// output's Repeat (already Hold).
func (m *Manager) RepeatSuppressed() (holdOut keycode.Key, suppress bool) {
	if m.state == nil {
		return 0, true
	}
	if m.state.sub == subPending {
		return 0, true
	}
	return m.state.holdOut, false
}
