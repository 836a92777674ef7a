package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorEventField(t *testing.T) {
	attempts := 3
	event := ErrorEvent{
		TicketKey:       "FAULT-7",
		Platform:        "atlas",
		Attempts:        &attempts,
		FailedTestcases: []string{"tc_boot", "tc_soak"},
		Extra: map[string]any{
			"bench": map[string]any{
				"slot": 4,
			},
			"flaky": true,
		},
	}

	t.Run("schema fields", func(t *testing.T) {
		value, present, known := event.Field("platform")
		assert.True(t, known)
		assert.True(t, present)
		assert.Equal(t, "atlas", value)

		value, present, known = event.Field("attempts")
		assert.True(t, known)
		assert.True(t, present)
		assert.Equal(t, "3", value)

		value, present, known = event.Field("failed_testcases")
		assert.True(t, known)
		assert.True(t, present)
		assert.Equal(t, "tc_boot, tc_soak", value)
	})

	t.Run("known but absent", func(t *testing.T) {
		_, present, known := event.Field("serial")
		assert.True(t, known)
		assert.False(t, present)

		other := ErrorEvent{}
		_, present, known = other.Field("attempts")
		assert.True(t, known)
		assert.False(t, present)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, present, known := event.Field("no_such_field")
		assert.False(t, known)
		assert.False(t, present)
	})

	t.Run("extra fields by dotted path", func(t *testing.T) {
		value, present, known := event.Field("bench.slot")
		assert.True(t, known)
		assert.True(t, present)
		assert.Equal(t, "4", value)

		value, present, known = event.Field("flaky")
		assert.True(t, known)
		assert.True(t, present)
		assert.Equal(t, "true", value)

		_, _, known = event.Field("bench.missing")
		assert.False(t, known)
	})

	t.Run("field names are case insensitive", func(t *testing.T) {
		value, _, known := event.Field("Platform")
		assert.True(t, known)
		assert.Equal(t, "atlas", value)
	})
}

func TestErrorEventFieldValues(t *testing.T) {
	event := ErrorEvent{
		Status:          "Open",
		FailedTestcases: []string{"tc_boot", "tc_fan"},
		Extra:           map[string]any{"labels": []any{"hw", "lab-3"}},
	}

	values, present, known := event.FieldValues("failed_testcases")
	assert.True(t, known)
	assert.True(t, present)
	assert.Equal(t, []string{"tc_boot", "tc_fan"}, values)

	values, present, known = event.FieldValues("status")
	assert.True(t, known)
	assert.True(t, present)
	assert.Equal(t, []string{"Open"}, values)

	values, _, _ = event.FieldValues("labels")
	assert.Equal(t, []string{"hw", "lab-3"}, values)

	_, present, known = event.FieldValues("assignee")
	assert.True(t, known)
	assert.False(t, present)
}

func TestErrorEventWithTimerSignals(t *testing.T) {
	event := ErrorEvent{TicketKey: "FAULT-7"}
	enriched := event.WithTimerSignals([]string{"wait_rule"})

	assert.Empty(t, event.TimerExpiredFor)

	value, present, known := enriched.Field("timer_expired_for")
	assert.True(t, known)
	assert.True(t, present)
	assert.Equal(t, "wait_rule", value)
}
