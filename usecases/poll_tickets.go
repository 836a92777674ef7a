package usecases

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/faultline/faultline/infra"
	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

const DefaultMaxWorkers = 4

// RecordSupplier lists the error events to triage in this cycle. Sources are
// interchangeable: a ticket tracker, a directory of exported payloads.
type RecordSupplier interface {
	ListRecords(ctx context.Context) ([]models.ErrorEvent, error)
}

// ActionApplier takes a finished decision back to the outside world: posting
// the comment, reassigning, transitioning the ticket.
type ActionApplier interface {
	Apply(ctx context.Context, decision models.Decision) error
}

type PollTicketsUsecase struct {
	suppliers     []RecordSupplier
	processTicket *ProcessTicketUsecase
	applier       ActionApplier
	maxWorkers    int
}

func NewPollTicketsUsecase(
	suppliers []RecordSupplier,
	processTicket *ProcessTicketUsecase,
	applier ActionApplier,
	maxWorkers int,
) *PollTicketsUsecase {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &PollTicketsUsecase{
		suppliers:     suppliers,
		processTicket: processTicket,
		applier:       applier,
		maxWorkers:    maxWorkers,
	}
}

// RunCycle gathers records from all suppliers, dedupes by ticket key and
// dispatches each ticket onto a bounded worker pool. Per-ticket failures are
// counted and logged, never fatal: one poisoned ticket must not take the
// cycle down.
func (uc *PollTicketsUsecase) RunCycle(ctx context.Context) (models.CycleReport, error) {
	logger := utils.LoggerFromContext(ctx)
	start := time.Now()

	events, err := uc.collectRecords(ctx)
	if err != nil {
		return models.CycleReport{}, err
	}

	report := models.CycleReport{Queued: len(events)}
	results := make(chan ticketOutcome, len(events))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.maxWorkers)

	for _, event := range events {
		// A cancelled cycle stops dispatching but lets in-flight tickets
		// finish: a half-applied decision is worse than a late one.
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			results <- uc.runOne(context.WithoutCancel(groupCtx), event)
			return nil
		})
	}

	_ = group.Wait()
	close(results)

	for outcome := range results {
		report.Processed++
		switch {
		case outcome.failed:
			report.Failed++
		case outcome.decided:
			report.Decided++
		default:
			report.Skipped++
		}
	}
	report.Duration = time.Since(start)
	infra.CycleDuration.Observe(report.Duration.Seconds())

	logger.InfoContext(ctx, "poll cycle finished",
		"queued", report.Queued,
		"processed", report.Processed,
		"decided", report.Decided,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration.String())
	return report, ctx.Err()
}

type ticketOutcome struct {
	decided bool
	failed  bool
}

func (uc *PollTicketsUsecase) runOne(ctx context.Context, event models.ErrorEvent) ticketOutcome {
	logger := utils.LoggerFromContext(ctx).With("ticket", event.TicketKey)

	decision, err := uc.processTicket.ProcessTicket(ctx, event)
	if err != nil {
		logger.ErrorContext(ctx, "processing ticket failed", "error", err.Error())
		infra.TicketsProcessed.WithLabelValues(infra.OutcomeFailed).Inc()
		return ticketOutcome{failed: true}
	}
	if decision == nil || decision.Suppressed {
		return ticketOutcome{}
	}

	if uc.applier != nil {
		if err := uc.applier.Apply(ctx, *decision); err != nil {
			logger.ErrorContext(ctx, "applying decision failed",
				"rule", decision.WinningRuleId, "error", err.Error())
			return ticketOutcome{failed: true}
		}
	}
	return ticketOutcome{decided: true}
}

// collectRecords merges all suppliers, first occurrence of a ticket key wins.
func (uc *PollTicketsUsecase) collectRecords(ctx context.Context) ([]models.ErrorEvent, error) {
	logger := utils.LoggerFromContext(ctx)

	var events []models.ErrorEvent
	seen := make(map[string]struct{})

	for _, supplier := range uc.suppliers {
		records, err := supplier.ListRecords(ctx)
		if err != nil {
			// A dead supplier degrades the cycle, the others still run.
			logger.ErrorContext(ctx, "record supplier failed", "error", err.Error())
			continue
		}
		for _, record := range records {
			if record.TicketKey == "" {
				continue
			}
			if _, duplicate := seen[record.TicketKey]; duplicate {
				continue
			}
			seen[record.TicketKey] = struct{}{}
			events = append(events, record)
		}
	}
	return events, nil
}
