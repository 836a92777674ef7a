package dbmodels

import (
	"time"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

type DbTimer struct {
	TicketKey        string    `db:"ticket_key"`
	RuleId           string    `db:"rule_id"`
	StartedAt        time.Time `db:"started_at"`
	DurationSeconds  int       `db:"duration_seconds"`
	AssigneeSnapshot string    `db:"assignee_snapshot"`
	StatusSnapshot   string    `db:"status_snapshot"`
	State            string    `db:"state"`
}

const TABLE_TIMERS = "timers"

var SelectTimerColumn = utils.ColumnList[DbTimer]()

func AdaptTimer(db DbTimer) (models.TimerRecord, error) {
	return models.TimerRecord{
		TicketKey:        db.TicketKey,
		RuleId:           db.RuleId,
		StartedAt:        db.StartedAt,
		Duration:         time.Duration(db.DurationSeconds) * time.Second,
		AssigneeSnapshot: db.AssigneeSnapshot,
		StatusSnapshot:   db.StatusSnapshot,
		State:            models.TimerState(db.State),
	}, nil
}
