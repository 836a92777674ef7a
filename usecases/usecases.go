package usecases

import (
	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/repositories"
	"github.com/faultline/faultline/repositories/clock"
	"github.com/faultline/faultline/usecases/command_steps"
	"github.com/faultline/faultline/usecases/testview"
)

// Usecases bundles the repositories and shared services every usecase is
// built from.
type Usecases struct {
	Rules              []models.Rule
	ExecutorGetter     repositories.ExecutorGetter
	TimerRepository    *repositories.TimerRepository
	DecisionRepository *repositories.DecisionRepository
	Suppliers          []RecordSupplier
	CommandExecutor    command_steps.CommandExecutionPort
	SnippetFetcher     testview.LogSnippetFetcher
	Applier            ActionApplier
	Clock              clock.Clock
	Config             ProcessingConfig
	MaxWorkers         int
}

func (u Usecases) NewProcessTicketUsecase() *ProcessTicketUsecase {
	return NewProcessTicketUsecase(
		u.Rules,
		u.CommandExecutor,
		u.SnippetFetcher,
		u.TimerRepository,
		u.DecisionRepository,
		u.Clock,
		u.Config,
	)
}

func (u Usecases) NewPollTicketsUsecase() *PollTicketsUsecase {
	return NewPollTicketsUsecase(
		u.Suppliers,
		u.NewProcessTicketUsecase(),
		u.Applier,
		u.MaxWorkers,
	)
}
