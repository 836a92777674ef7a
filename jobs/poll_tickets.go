package jobs

import (
	"context"
	"log/slog"

	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

// PollTickets runs one triage cycle over every configured record source.
func PollTickets(ctx context.Context, uc usecases.Usecases) error {
	return executeWithMonitoring(ctx, uc, "poll_tickets",
		func(ctx context.Context, uc usecases.Usecases) error {
			logger := utils.LoggerFromContext(ctx)

			report, err := uc.NewPollTicketsUsecase().RunCycle(ctx)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "triage cycle done",
				slog.Int("queued", report.Queued),
				slog.Int("decided", report.Decided),
				slog.Int("failed", report.Failed),
			)
			return nil
		})
}
