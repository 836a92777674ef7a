package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerRecordObserveState(t *testing.T) {
	started := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	record := TimerRecord{
		TicketKey: "FAULT-1",
		RuleId:    "wait_rule",
		StartedAt: started,
		Duration:  10 * time.Minute,
		State:     TimerActive,
	}

	assert.Equal(t, TimerActive, record.ObserveState(started.Add(5*time.Minute)))
	// Expiry boundary itself reads as expired.
	assert.Equal(t, TimerExpiredPending, record.ObserveState(started.Add(10*time.Minute)))
	assert.Equal(t, TimerExpiredPending, record.ObserveState(started.Add(time.Hour)))

	record.State = TimerExpiredConsumed
	assert.Equal(t, TimerExpiredConsumed, record.ObserveState(started))
}

func TestTimerRecordSnapshotInvalidated(t *testing.T) {
	record := TimerRecord{
		AssigneeSnapshot: "alice",
		StatusSnapshot:   "Open",
	}

	assert.False(t, record.SnapshotInvalidated("alice", "Open"))
	assert.True(t, record.SnapshotInvalidated("bob", "Open"))
	assert.True(t, record.SnapshotInvalidated("alice", "In Review"))
}
