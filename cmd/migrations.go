package cmd

import (
	"context"
	"fmt"

	"github.com/faultline/faultline/repositories"
	"github.com/faultline/faultline/utils"
)

func RunMigrations() error {
	config := loadAppConfig()

	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	if err := repositories.RunMigrations(config.pgConfig, logger); err != nil {
		logger.ErrorContext(ctx, fmt.Sprintf("error running migrations: %v", err))
		return err
	}
	return nil
}
