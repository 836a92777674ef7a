package cmd

import (
	"context"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/infra"
	"github.com/faultline/faultline/repositories"
	"github.com/faultline/faultline/repositories/clock"
	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

type appConfig struct {
	env           string
	appName       string
	loggingFormat string
	sentryDsn     string

	pgConfig infra.PgConfig

	rulesPath   string
	recordsPath string
	logsPath    string

	requiredMarker  string
	allowedStatuses []string
	minConfidence   float64
	commandTimeout  time.Duration

	pollCron   string
	maxWorkers int

	apiHost string
	apiPort string
}

func loadAppConfig() appConfig {
	var allowedStatuses []string
	if raw := utils.GetEnv("ALLOWED_STATUSES", ""); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			allowedStatuses = append(allowedStatuses, strings.TrimSpace(status))
		}
	}

	var minConfidence float64
	if raw := utils.GetEnv("TRIAGE_MIN_CONFIDENCE", ""); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatalf("invalid TRIAGE_MIN_CONFIDENCE %q", raw)
		}
		minConfidence = parsed
	}

	return appConfig{
		env:           utils.GetEnv("ENV", "development"),
		appName:       "faultline",
		loggingFormat: utils.GetEnv("LOGGING_FORMAT", utils.LoggingFormatText),
		sentryDsn:     utils.GetEnv("SENTRY_DSN", ""),
		pgConfig: infra.PgConfig{
			ConnectionString:   utils.GetEnv("PG_CONNECTION_STRING", ""),
			Database:           utils.GetEnv("PG_DATABASE", "faultline"),
			Hostname:           utils.GetEnv("PG_HOSTNAME", ""),
			Password:           utils.GetEnv("PG_PASSWORD", ""),
			Port:               utils.GetEnv("PG_PORT", "5432"),
			User:               utils.GetEnv("PG_USER", ""),
			SslMode:            utils.GetEnv("PG_SSL_MODE", "prefer"),
			MaxPoolConnections: utils.GetEnv("PG_MAX_POOL_SIZE", infra.DEFAULT_MAX_CONNECTIONS),
		},
		rulesPath:       utils.GetEnv("RULES_PATH", ""),
		recordsPath:     utils.GetEnv("RECORDS_PATH", ""),
		logsPath:        utils.GetEnv("LOGS_PATH", ""),
		requiredMarker:  utils.GetEnv("REQUIRED_MARKER", ""),
		allowedStatuses: allowedStatuses,
		minConfidence:   minConfidence,
		commandTimeout:  utils.GetEnv("COMMAND_TIMEOUT", 60*time.Second),
		pollCron:        utils.GetEnv("POLL_CRON", "*/5 * * * *"),
		maxWorkers:      utils.GetEnv("MAX_WORKERS", usecases.DefaultMaxWorkers),
		apiHost:         utils.GetEnv("HOST", "0.0.0.0"),
		apiPort:         utils.GetEnv("PORT", "8080"),
	}
}

// buildUsecases assembles repositories and the usecase container from the
// configuration. The postgres pool is shared by every repository.
func buildUsecases(ctx context.Context, config appConfig, logger *slog.Logger) (usecases.Usecases, error) {
	pool, err := infra.NewPostgresConnectionPool(ctx, config.pgConfig)
	if err != nil {
		return usecases.Usecases{}, err
	}

	executorGetter := repositories.NewExecutorGetter(pool)

	if config.rulesPath == "" {
		return usecases.Usecases{}, errors.New("RULES_PATH is not set")
	}
	rules, err := repositories.RuleFileRepository{}.LoadRules(ctx, config.rulesPath)
	if err != nil {
		return usecases.Usecases{}, err
	}
	logger.InfoContext(ctx, "rules loaded", slog.Int("count", len(rules)))

	var suppliers []usecases.RecordSupplier
	if config.recordsPath != "" {
		suppliers = append(suppliers, repositories.NewFileRecordSupplier(config.recordsPath))
	}

	var snippetFetcher *repositories.FileLogSnippetFetcher
	if config.logsPath != "" {
		snippetFetcher = repositories.NewFileLogSnippetFetcher(config.logsPath)
	}

	uc := usecases.Usecases{
		Rules:              rules,
		ExecutorGetter:     executorGetter,
		TimerRepository:    repositories.NewTimerRepository(executorGetter),
		DecisionRepository: repositories.NewDecisionRepository(executorGetter),
		Suppliers:          suppliers,
		CommandExecutor:    repositories.LocalShellExecutor{},
		Applier:            repositories.LogActionApplier{},
		Clock:              clock.New(),
		Config: usecases.ProcessingConfig{
			RequiredMarker:  config.requiredMarker,
			AllowedStatuses: config.allowedStatuses,
			MinConfidence:   config.minConfidence,
			CommandTimeout:  config.commandTimeout,
		},
		MaxWorkers: config.maxWorkers,
	}
	if snippetFetcher != nil {
		uc.SnippetFetcher = snippetFetcher
	}
	return uc, nil
}
