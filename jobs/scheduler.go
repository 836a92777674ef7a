package jobs

import (
	"context"

	"github.com/adhocore/gronx/pkg/tasker"

	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

func errToReturnCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

// RunScheduler blocks, running the poll job on the configured cron schedule.
func RunScheduler(ctx context.Context, uc usecases.Usecases, pollCron string) {
	taskr := tasker.New(tasker.Option{
		Verbose: true,
		Tz:      "UTC",
	}).WithContext(ctx)

	notConcurrent := false
	taskr.Task(pollCron, func(ctx context.Context) (int, error) {
		logger := utils.LoggerFromContext(ctx).With("job", "poll_tickets")
		ctx = utils.StoreLoggerInContext(ctx, logger)
		err := PollTickets(ctx, uc)
		return errToReturnCode(err), err
	}, notConcurrent)

	taskr.Run()
}
