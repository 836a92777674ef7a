package models

import (
	"time"

	"github.com/google/uuid"
)

// CommandOutput is what the command execution port returns for one call.
type CommandOutput struct {
	Stdout string
	Stderr string
	Status int
}

// CommandStepResult records one command step execution (or skip) for the
// render context and the decision record.
type CommandStepResult struct {
	Id            string
	Cmd           string
	Context       string
	Status        int
	Stdout        string
	Stderr        string
	SelectedLines string
	Passed        bool
	Executed      bool
}

// ActionDirectives are the structured side effects a winning rule requests
// from the tracker, resolved by the pipeline and applied externally.
type ActionDirectives struct {
	AssignTo     string
	TransitionTo string
	Close        bool
	LinkIssue    string
}

func (d ActionDirectives) IsZero() bool {
	return d == ActionDirectives{}
}

// Decision is the outcome of one processing cycle for one ticket: which rule
// won, what was rendered, and which side effects are requested.
type Decision struct {
	Id        uuid.UUID
	TicketKey string

	WinningRuleId string
	RuleName      string
	Confidence    float64

	RenderedComment string

	// Suppressed is true when a declared case list matched no case, so no
	// comment may be posted for this cycle.
	Suppressed bool

	TimerRequests      []TimerRequest
	CommandStepResults []CommandStepResult
	Directives         ActionDirectives

	CreatedAt time.Time
}

// LogSnippet is the log-viewer payload fetched for TestView enrichment.
type LogSnippet struct {
	FullText string
	Snippet  string
	Error    string
	Metadata map[string]string
}

// CycleReport summarizes one polling cycle.
type CycleReport struct {
	Queued    int
	Processed int
	Decided   int
	Skipped   int
	Failed    int
	Duration  time.Duration
}
