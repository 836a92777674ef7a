package jobs

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"

	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

func executeWithMonitoring(
	ctx context.Context,
	uc usecases.Usecases,
	jobName string,
	fn func(context.Context, usecases.Usecases) error,
) error {
	logger := utils.LoggerFromContext(ctx)
	logger.InfoContext(ctx, fmt.Sprintf("Starting triage job %s", jobName))

	// The check-in id ties the start and end of one cron run together in
	// Sentry, so a poll cycle that dies mid-flight shows up as missed.
	checkinId := sentry.CaptureCheckIn(
		&sentry.CheckIn{
			MonitorSlug: jobName,
			Status:      sentry.CheckInStatusInProgress,
		},
		nil,
	)

	err := fn(ctx, uc)
	if err != nil {
		sentry.CaptureCheckIn(
			&sentry.CheckIn{
				ID:          *checkinId,
				MonitorSlug: jobName,
				Status:      sentry.CheckInStatusError,
			},
			nil,
		)
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		return errors.Wrap(err, fmt.Sprintf("triage job %s failed", jobName))
	}

	sentry.CaptureCheckIn(
		&sentry.CheckIn{
			ID:          *checkinId,
			MonitorSlug: jobName,
			Status:      sentry.CheckInStatusOK,
		},
		nil,
	)

	logger.InfoContext(ctx, fmt.Sprintf("Finished triage job %s", jobName))
	return nil
}
