package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/infra"
	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/repositories/clock"
	"github.com/faultline/faultline/usecases/command_steps"
	"github.com/faultline/faultline/usecases/evaluate_rules"
	"github.com/faultline/faultline/usecases/render_comment"
	"github.com/faultline/faultline/usecases/testview"
	"github.com/faultline/faultline/usecases/text_extract"
	"github.com/faultline/faultline/utils"
)

// TimerStore is the persistent suppression state consulted and mutated by
// every ticket pipeline.
type TimerStore interface {
	ObserveTicket(ctx context.Context, ticketKey, currentAssignee, currentStatus string,
		now time.Time) (models.TimerObservation, error)
	StartTimer(ctx context.Context, ticketKey, ruleId string, duration time.Duration,
		assignee, status string, now time.Time) error
}

// DecisionStore persists decision records for the ops surface.
type DecisionStore interface {
	StoreDecision(ctx context.Context, decision models.Decision) error
}

// ProcessingConfig are the per-deployment knobs of the pipeline.
type ProcessingConfig struct {
	// RequiredMarker must appear in the ticket description for the ticket to
	// be processed at all; empty disables the gate.
	RequiredMarker string

	// AllowedStatuses limits processing to tickets in one of these statuses;
	// empty disables the gate.
	AllowedStatuses []string

	MinConfidence   float64
	RepeatThreshold int
	MaxAttempts     int

	CommandTimeout time.Duration
}

type ProcessTicketUsecase struct {
	rules         []models.Rule
	evaluator     evaluate_rules.Evaluator
	commandRunner command_steps.Runner
	testView      *testview.Usecase
	timerStore    TimerStore
	decisionStore DecisionStore
	clock         clock.Clock
	config        ProcessingConfig
}

func NewProcessTicketUsecase(
	rules []models.Rule,
	executor command_steps.CommandExecutionPort,
	snippetFetcher testview.LogSnippetFetcher,
	timerStore TimerStore,
	decisionStore DecisionStore,
	c clock.Clock,
	config ProcessingConfig,
) *ProcessTicketUsecase {
	evaluator := evaluate_rules.NewEvaluator()
	if config.MinConfidence > 0 {
		evaluator.MinConfidence = config.MinConfidence
	}
	if config.RepeatThreshold > 0 {
		evaluator.RepeatThreshold = config.RepeatThreshold
	}
	if config.MaxAttempts > 0 {
		evaluator.MaxAttempts = config.MaxAttempts
	}

	var testViewUsecase *testview.Usecase
	if snippetFetcher != nil {
		testViewUsecase = testview.NewUsecase(snippetFetcher)
	}

	return &ProcessTicketUsecase{
		rules:         rules,
		evaluator:     evaluator,
		commandRunner: command_steps.NewRunner(executor, config.CommandTimeout),
		testView:      testViewUsecase,
		timerStore:    timerStore,
		decisionStore: decisionStore,
		clock:         c,
		config:        config,
	}
}

// ProcessTicket runs the whole pipeline for one ticket and returns the
// decision, or nil when the ticket was skipped (gates, active timer, no
// matching rule). Every step degrades rather than aborts: only timer store
// failures propagate.
func (uc *ProcessTicketUsecase) ProcessTicket(ctx context.Context, event models.ErrorEvent) (*models.Decision, error) {
	logger := utils.LoggerFromContext(ctx).With("ticket", event.TicketKey)
	ctx = utils.StoreLoggerInContext(ctx, logger)
	now := uc.clock.Now()

	if skip, reason := uc.gated(event); skip {
		logger.DebugContext(ctx, "skipping ticket", "reason", reason)
		infra.TicketsProcessed.WithLabelValues(infra.OutcomeSkipped).Inc()
		return nil, nil
	}

	// Timers are observed before matching: an active window suppresses the
	// whole ticket, expired windows exclude their rule and feed the
	// timer_expired_for signal.
	observation, err := uc.timerStore.ObserveTicket(ctx, event.TicketKey, event.Assignee, event.Status, now)
	if err != nil {
		// Suppression state is unavailable: do not guess, surface it.
		return nil, errors.Wrap(err, "timer store unavailable")
	}
	if observation.TicketSuppressed {
		logger.InfoContext(ctx, "ticket suppressed by active timer")
		infra.TicketsProcessed.WithLabelValues(infra.OutcomeSkipped).Inc()
		return nil, nil
	}
	infra.TimersExpired.Add(float64(len(observation.NewlyExpiredRuleIds)))

	excluded := make(map[string]struct{}, len(observation.ExpiredRuleIds))
	for _, ruleId := range observation.ExpiredRuleIds {
		excluded[ruleId] = struct{}{}
	}
	event = event.WithTimerSignals(observation.ExpiredRuleIds)

	match := uc.evaluator.Evaluate(ctx, event, uc.rules, excluded)
	if match == nil {
		logger.DebugContext(ctx, "no rule matched")
		infra.TicketsProcessed.WithLabelValues(infra.OutcomeNoMatch).Inc()
		return nil, nil
	}
	logger.InfoContext(ctx, "rule won",
		"rule", match.Rule.Id, "confidence", match.Confidence)
	infra.RulesMatched.WithLabelValues(match.Rule.Id).Inc()

	decision := uc.expandAction(ctx, event, *match)
	decision.Id = uuid.New()
	decision.CreatedAt = now

	if err := uc.applyTimers(ctx, event, decision); err != nil {
		return nil, err
	}

	if uc.decisionStore != nil {
		if err := uc.decisionStore.StoreDecision(ctx, *decision); err != nil {
			// The decision log is an ops surface, losing one row must not
			// fail the ticket.
			logger.ErrorContext(ctx, "storing decision failed", "error", err.Error())
		}
	}

	if decision.Suppressed {
		infra.TicketsProcessed.WithLabelValues(infra.OutcomeSuppressed).Inc()
	} else {
		infra.TicketsProcessed.WithLabelValues(infra.OutcomeDecided).Inc()
	}
	return decision, nil
}

func (uc *ProcessTicketUsecase) gated(event models.ErrorEvent) (bool, string) {
	if uc.config.RequiredMarker != "" &&
		!strings.Contains(strings.ToLower(event.Description), strings.ToLower(uc.config.RequiredMarker)) {
		return true, "marker absent"
	}

	if len(uc.config.AllowedStatuses) > 0 {
		allowed := false
		for _, status := range uc.config.AllowedStatuses {
			if strings.EqualFold(status, event.Status) {
				allowed = true
				break
			}
		}
		if !allowed {
			return true, "status not processable"
		}
	}
	return false, ""
}

// expandAction runs the winning rule's action: extractions, command steps,
// testview selection, rendering and directive resolution.
func (uc *ProcessTicketUsecase) expandAction(
	ctx context.Context,
	event models.ErrorEvent,
	match evaluate_rules.RuleMatch,
) *models.Decision {
	action := match.Rule.Action

	extracts := make(map[string][]string, len(action.TextExtracts))
	for _, spec := range action.TextExtracts {
		source, _, _ := event.Field(spec.SourceField())
		extracts[spec.Name] = text_extract.Extract(source, spec)
	}

	renderContext := render_comment.BuildContext(event, match.Rule, match.Confidence, extracts)

	decision := &models.Decision{
		TicketKey:     event.TicketKey,
		WinningRuleId: match.Rule.Id,
		RuleName:      match.Rule.Name,
		Confidence:    match.Confidence,
	}

	commentTemplate := action.CommentTemplate

	if len(action.CommandSteps) > 0 {
		run := uc.commandRunner.Run(ctx, action.CommandSteps, renderContext, extracts)
		decision.CommandStepResults = run.Results
		renderContext["command_history"] = render_comment.FormatCommandHistory(run.Results)

		for _, result := range run.Results {
			if result.Executed {
				infra.CommandStepsRun.WithLabelValues(boolLabel(result.Passed)).Inc()
			}
		}

		for _, seconds := range run.TimerSeconds {
			decision.TimerRequests = appendTimerRequest(decision.TimerRequests,
				match.Rule.Id, time.Duration(seconds)*time.Second)
		}
		if run.CommentOverride != "" {
			commentTemplate = run.CommentOverride
		}
	}

	if action.TestView != nil && uc.testView != nil {
		snippet := uc.testView.Fetch(ctx, event, *action.TestView)
		selection := testview.SelectCase(*action.TestView, event, snippet)

		if selection.Suppress {
			decision.Suppressed = true
			decision.TimerRequests = nil
			return decision
		}
		if selection.CommentTemplate != "" {
			commentTemplate = selection.CommentTemplate
		}
		renderContext["testview_selected"] = strings.Join(selection.Selected, "\n")
	}

	if action.TimerAfterSeconds > 0 {
		decision.TimerRequests = appendTimerRequest(decision.TimerRequests,
			match.Rule.Id, time.Duration(action.TimerAfterSeconds)*time.Second)
	}

	// An empty template with a pending timer is a silent wait: no comment,
	// the timer still starts.
	if commentTemplate != "" {
		decision.RenderedComment = render_comment.Render(commentTemplate, renderContext)
	}

	decision.Directives = uc.resolveDirectives(event, action)
	return decision
}

func (uc *ProcessTicketUsecase) resolveDirectives(event models.ErrorEvent, action models.RuleAction) models.ActionDirectives {
	directives := models.ActionDirectives{
		TransitionTo: action.TransitionTo,
		Close:        action.Close,
		LinkIssue:    action.LinkIssue,
	}

	switch {
	case action.AssignTo != "":
		directives.AssignTo = action.AssignTo
	case action.AssignToTester && event.TesterEmail != "":
		directives.AssignTo = event.TesterEmail
	}
	return directives
}

// applyTimers starts the longest requested window for the winning rule,
// snapshotting the ticket state for invalidation.
func (uc *ProcessTicketUsecase) applyTimers(ctx context.Context, event models.ErrorEvent, decision *models.Decision) error {
	if decision.Suppressed || len(decision.TimerRequests) == 0 {
		return nil
	}

	longest := decision.TimerRequests[0]
	for _, request := range decision.TimerRequests[1:] {
		if request.Duration > longest.Duration {
			longest = request
		}
	}
	decision.TimerRequests = []models.TimerRequest{longest}

	err := uc.timerStore.StartTimer(ctx, event.TicketKey, longest.RuleId, longest.Duration,
		event.Assignee, event.Status, uc.clock.Now())
	if err != nil {
		return errors.Wrap(err, "starting suppression timer")
	}
	infra.TimersStarted.Inc()
	return nil
}

func appendTimerRequest(requests []models.TimerRequest, ruleId string, duration time.Duration) []models.TimerRequest {
	return append(requests, models.TimerRequest{RuleId: ruleId, Duration: duration})
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
