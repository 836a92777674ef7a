package models

import "time"

type TimerState string

const (
	// TimerActive suppresses the whole ticket until the timer expires.
	TimerActive TimerState = "active"

	// TimerExpiredPending marks an expired timer that has not yet been
	// reported to the pipeline.
	TimerExpiredPending TimerState = "expired_pending"

	// TimerExpiredConsumed marks an expired timer that was already reported.
	// The originating rule stays suppressed until the snapshot invalidates.
	TimerExpiredConsumed TimerState = "expired_consumed"
)

// TimerRecord is one persisted suppression window for a (ticket, rule) pair.
// The assignee/status snapshot taken at start time doubles as the
// invalidation condition: any change on the ticket clears the timer.
type TimerRecord struct {
	TicketKey string
	RuleId    string

	StartedAt time.Time
	Duration  time.Duration

	AssigneeSnapshot string
	StatusSnapshot   string

	State TimerState
}

func (t TimerRecord) ExpiresAt() time.Time {
	return t.StartedAt.Add(t.Duration)
}

// SnapshotInvalidated reports whether the ticket moved on since the timer
// started. An invalidated record is treated as absent and deleted.
func (t TimerRecord) SnapshotInvalidated(currentAssignee, currentStatus string) bool {
	return t.AssigneeSnapshot != currentAssignee || t.StatusSnapshot != currentStatus
}

// ObserveState returns the record's state as of now, without mutating it:
// an active record past its expiry reads as expired_pending.
func (t TimerRecord) ObserveState(now time.Time) TimerState {
	if t.State == TimerActive && !now.Before(t.ExpiresAt()) {
		return TimerExpiredPending
	}
	return t.State
}

// TimerObservation is the outcome of observing all timers of one ticket at
// the start of a processing cycle.
type TimerObservation struct {
	// TicketSuppressed is true while any timer for the ticket is active; no
	// rule may win during that window.
	TicketSuppressed bool

	// ExpiredRuleIds lists every rule whose timer has expired and whose
	// snapshot still holds. These rules may not win again, and the list
	// feeds the timer_expired_for signal.
	ExpiredRuleIds []string

	// NewlyExpiredRuleIds is the subset of ExpiredRuleIds reported for the
	// first time this cycle.
	NewlyExpiredRuleIds []string
}

type TimerRequest struct {
	RuleId   string
	Duration time.Duration
}
