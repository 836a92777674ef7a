package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
)

// LogAndReportSentryError logs the error and forwards it to Sentry. Triage
// cycles are cancellation-heavy, so deadline and cancellation errors only get
// logged: their cause was already reported where the context was cut short.
func LogAndReportSentryError(ctx context.Context, err error) {
	logger := LoggerFromContext(ctx)
	logger.ErrorContext(ctx, fmt.Sprintf("%+v", err))

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.DebugContext(ctx, fmt.Sprintf("deadline exceeded or context canceled: %v", err))
		return
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
}
