package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/repositories/dbmodels"
)

// TransactionFactory is the part of ExecutorGetter repositories need.
type TransactionFactory interface {
	Transaction(ctx context.Context, fn func(tx Transaction) error) error
	GetExecutor() Executor
}

// TimerRepository is the persistent suppression store. All read-then-write
// sequences for a ticket happen inside one transaction with the rows locked,
// so concurrent workers observe each timer transition exactly once.
type TimerRepository struct {
	transactionFactory TransactionFactory
}

func NewTimerRepository(transactionFactory TransactionFactory) *TimerRepository {
	return &TimerRepository{transactionFactory: transactionFactory}
}

// ObserveTicket advances every timer of the ticket and reports the outcome:
// invalidated snapshots are deleted, an unexpired active timer suppresses the
// whole ticket, expired timers are reported once and then consumed.
func (repo *TimerRepository) ObserveTicket(
	ctx context.Context,
	ticketKey string,
	currentAssignee string,
	currentStatus string,
	now time.Time,
) (models.TimerObservation, error) {
	var observation models.TimerObservation

	err := repo.transactionFactory.Transaction(ctx, func(tx Transaction) error {
		timers, err := repo.listTicketTimersForUpdate(ctx, tx, ticketKey)
		if err != nil {
			return err
		}

		for _, timer := range timers {
			if timer.SnapshotInvalidated(currentAssignee, currentStatus) {
				if err := repo.deleteTimer(ctx, tx, timer); err != nil {
					return err
				}
				continue
			}

			switch timer.ObserveState(now) {
			case models.TimerActive:
				observation.TicketSuppressed = true

			case models.TimerExpiredPending:
				if timer.State == models.TimerActive {
					// First observation past expiry: report it and leave it
					// pending until the next cycle consumes it.
					observation.NewlyExpiredRuleIds = append(observation.NewlyExpiredRuleIds, timer.RuleId)
					if err := repo.setTimerState(ctx, tx, timer, models.TimerExpiredPending); err != nil {
						return err
					}
				} else {
					if err := repo.setTimerState(ctx, tx, timer, models.TimerExpiredConsumed); err != nil {
						return err
					}
				}
				observation.ExpiredRuleIds = append(observation.ExpiredRuleIds, timer.RuleId)

			case models.TimerExpiredConsumed:
				observation.ExpiredRuleIds = append(observation.ExpiredRuleIds, timer.RuleId)
			}
		}
		return nil
	})
	if err != nil {
		return models.TimerObservation{}, errors.Wrap(err, "observing ticket timers")
	}
	return observation, nil
}

// StartTimer creates or overwrites the suppression window for a (ticket,
// rule) pair, snapshotting the current assignee and status.
func (repo *TimerRepository) StartTimer(
	ctx context.Context,
	ticketKey string,
	ruleId string,
	duration time.Duration,
	assignee string,
	status string,
	now time.Time,
) error {
	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_TIMERS).
		Columns("ticket_key", "rule_id", "started_at", "duration_seconds",
			"assignee_snapshot", "status_snapshot", "state").
		Values(
			ticketKey,
			ruleId,
			now,
			int(duration/time.Second),
			assignee,
			status,
			string(models.TimerActive),
		).
		Suffix("on conflict (ticket_key, rule_id) do update set").
		Suffix("started_at = excluded.started_at,").
		Suffix("duration_seconds = excluded.duration_seconds,").
		Suffix("assignee_snapshot = excluded.assignee_snapshot,").
		Suffix("status_snapshot = excluded.status_snapshot,").
		Suffix("state = excluded.state")

	return ExecBuilder(ctx, repo.transactionFactory.GetExecutor(), query)
}

// ListTimers returns every persisted timer for operator visibility.
func (repo *TimerRepository) ListTimers(ctx context.Context) ([]models.TimerRecord, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectTimerColumn...).
		From(dbmodels.TABLE_TIMERS).
		OrderBy("started_at desc")

	return SqlToListOfModels(ctx, repo.transactionFactory.GetExecutor(), query, dbmodels.AdaptTimer)
}

func (repo *TimerRepository) listTicketTimersForUpdate(
	ctx context.Context,
	tx Transaction,
	ticketKey string,
) ([]models.TimerRecord, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectTimerColumn...).
		From(dbmodels.TABLE_TIMERS).
		Where(squirrel.Eq{"ticket_key": ticketKey}).
		OrderBy("rule_id").
		Suffix("for update")

	timers, err := SqlToListOfModels(ctx, tx, query, dbmodels.AdaptTimer)
	if err != nil {
		return nil, errors.Wrap(err, "listing ticket timers")
	}
	return timers, nil
}

func (repo *TimerRepository) deleteTimer(ctx context.Context, tx Transaction, timer models.TimerRecord) error {
	query := NewQueryBuilder().
		Delete(dbmodels.TABLE_TIMERS).
		Where(squirrel.Eq{"ticket_key": timer.TicketKey, "rule_id": timer.RuleId})

	return ExecBuilder(ctx, tx, query)
}

func (repo *TimerRepository) setTimerState(
	ctx context.Context,
	tx Transaction,
	timer models.TimerRecord,
	state models.TimerState,
) error {
	query := NewQueryBuilder().
		Update(dbmodels.TABLE_TIMERS).
		Set("state", string(state)).
		Where(squirrel.Eq{"ticket_key": timer.TicketKey, "rule_id": timer.RuleId})

	return ExecBuilder(ctx, tx, query)
}
