package repositories

import (
	"context"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

// LogActionApplier reports decisions to the log instead of a tracker. It is
// the applier of record for dry runs and local development.
type LogActionApplier struct{}

func (a LogActionApplier) Apply(ctx context.Context, decision models.Decision) error {
	logger := utils.LoggerFromContext(ctx)

	if decision.Suppressed {
		logger.InfoContext(ctx, "decision suppressed, no comment will be posted",
			"ticket", decision.TicketKey, "rule", decision.WinningRuleId)
		return nil
	}

	logger.InfoContext(ctx, "decision ready",
		"ticket", decision.TicketKey,
		"rule", decision.WinningRuleId,
		"confidence", decision.Confidence,
		"comment_length", len(decision.RenderedComment),
		"timers", len(decision.TimerRequests),
		"directives", !decision.Directives.IsZero(),
	)
	return nil
}
