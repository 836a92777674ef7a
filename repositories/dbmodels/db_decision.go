package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

type DbDecision struct {
	Id              uuid.UUID       `db:"id"`
	TicketKey       string          `db:"ticket_key"`
	WinningRuleId   string          `db:"winning_rule_id"`
	RuleName        string          `db:"rule_name"`
	Confidence      float64         `db:"confidence"`
	RenderedComment string          `db:"rendered_comment"`
	Suppressed      bool            `db:"suppressed"`
	StepResults     json.RawMessage `db:"step_results"`
	Directives      json.RawMessage `db:"directives"`
	CreatedAt       time.Time       `db:"created_at"`
}

const TABLE_DECISIONS = "decisions"

var SelectDecisionColumn = utils.ColumnList[DbDecision]()

func AdaptDecision(db DbDecision) (models.Decision, error) {
	decision := models.Decision{
		Id:              db.Id,
		TicketKey:       db.TicketKey,
		WinningRuleId:   db.WinningRuleId,
		RuleName:        db.RuleName,
		Confidence:      db.Confidence,
		RenderedComment: db.RenderedComment,
		Suppressed:      db.Suppressed,
		CreatedAt:       db.CreatedAt,
	}

	if len(db.StepResults) > 0 {
		if err := json.Unmarshal(db.StepResults, &decision.CommandStepResults); err != nil {
			return models.Decision{}, errors.Wrap(err, "unmarshalling decision step results")
		}
	}
	if len(db.Directives) > 0 {
		if err := json.Unmarshal(db.Directives, &decision.Directives); err != nil {
			return models.Decision{}, errors.Wrap(err, "unmarshalling decision directives")
		}
	}
	return decision, nil
}
