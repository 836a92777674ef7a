package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/faultline/faultline/api"
	"github.com/faultline/faultline/infra"
	"github.com/faultline/faultline/utils"
)

// RunServer serves the ops API until interrupted.
func RunServer() error {
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

	router := api.InitRouter()
	server := api.NewServer(router, api.Configuration{
		Host: config.apiHost,
		Port: config.apiPort,
	}, uc)

	notify, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.InfoContext(ctx, "starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "error serving the api: "+err.Error())
		}
		logger.InfoContext(ctx, "server returned")
	}()

	<-notify.Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
