package repositories

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/repositories/dbmodels"
)

// DecisionRepository persists the decision record of every processed ticket.
type DecisionRepository struct {
	transactionFactory TransactionFactory
}

func NewDecisionRepository(transactionFactory TransactionFactory) *DecisionRepository {
	return &DecisionRepository{transactionFactory: transactionFactory}
}

func (repo *DecisionRepository) StoreDecision(ctx context.Context, decision models.Decision) error {
	stepResults, err := json.Marshal(decision.CommandStepResults)
	if err != nil {
		return errors.Wrap(err, "marshalling decision step results")
	}
	directives, err := json.Marshal(decision.Directives)
	if err != nil {
		return errors.Wrap(err, "marshalling decision directives")
	}

	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_DECISIONS).
		Columns("id", "ticket_key", "winning_rule_id", "rule_name", "confidence",
			"rendered_comment", "suppressed", "step_results", "directives", "created_at").
		Values(
			decision.Id,
			decision.TicketKey,
			decision.WinningRuleId,
			decision.RuleName,
			decision.Confidence,
			decision.RenderedComment,
			decision.Suppressed,
			stepResults,
			directives,
			decision.CreatedAt,
		)

	return ExecBuilder(ctx, repo.transactionFactory.GetExecutor(), query)
}

func (repo *DecisionRepository) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	if limit <= 0 {
		limit = 50
	}

	query := NewQueryBuilder().
		Select(dbmodels.SelectDecisionColumn...).
		From(dbmodels.TABLE_DECISIONS).
		OrderBy("created_at desc").
		Limit(uint64(limit))

	return SqlToListOfModels(ctx, repo.transactionFactory.GetExecutor(), query, dbmodels.AdaptDecision)
}
