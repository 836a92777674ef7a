package cmd

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/faultline/faultline/infra"
	"github.com/faultline/faultline/jobs"
	"github.com/faultline/faultline/utils"
)

// RunPoller runs triage cycles: one cycle with once set, otherwise on the
// configured cron schedule until interrupted.
func RunPoller(once bool) error {
	config := loadAppConfig()

	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	infra.SetupSentry(config.sentryDsn, config.env)
	defer sentry.Flush(3 * time.Second)

	uc, err := buildUsecases(ctx, config, logger)
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}

	if once {
		return jobs.PollTickets(ctx, uc)
	}

	jobs.RunScheduler(ctx, uc, config.pollCron)
	return nil
}
