// Package command_steps runs a winning rule's diagnostic command sequence
// against an injected execution port. Steps run strictly sequentially for a
// ticket: later steps may gate on earlier stdout.
package command_steps

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/usecases/render_comment"
	"github.com/faultline/faultline/usecases/text_extract"
	"github.com/faultline/faultline/utils"
)

const DefaultCommandTimeout = 60 * time.Second

// CommandExecutionPort abstracts how commands reach their target. The context
// string selects the execution environment; the transport behind it is not
// this package's concern.
type CommandExecutionPort interface {
	Execute(ctx context.Context, execContext string, command string, timeout time.Duration) (models.CommandOutput, error)
}

// knownContexts are the execution environments a command may address with a
// "name::" prefix. Anything else runs in the default context.
var knownContexts = map[string]bool{
	"local": true,
	"root":  true,
	"user":  true,
	"diag":  true,
}

const DefaultExecutionContext = "local"

type Runner struct {
	executor CommandExecutionPort
	timeout  time.Duration
}

func NewRunner(executor CommandExecutionPort, timeout time.Duration) Runner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return Runner{executor: executor, timeout: timeout}
}

// RunResult is everything a command sequence produced for the pipeline.
type RunResult struct {
	Results []models.CommandStepResult

	// TimerSeconds collects per-step timer requests from passed steps; the
	// pipeline keeps the maximum.
	TimerSeconds []int

	// CommentOverride is the last pass/fail comment template decided by a
	// step; empty means the rule's own template stands.
	CommentOverride string

	Stopped bool
}

// Run executes the steps in order, mutating renderContext with each step's
// outputs so later command templates can reference them. extracts provides
// the loop sources for for_each steps.
func (r Runner) Run(
	ctx context.Context,
	steps []models.CommandStep,
	renderContext map[string]string,
	extracts map[string][]string,
) RunResult {
	logger := utils.LoggerFromContext(ctx)

	var run RunResult
	previousStdout := ""

	for position, step := range steps {
		stepId := models.AutoStepId(step, position)

		if step.IfPreviousContains != nil &&
			!strings.Contains(strings.ToLower(previousStdout), strings.ToLower(*step.IfPreviousContains)) {
			logger.DebugContext(ctx, "skipping command step, gate not met", "step", stepId)
			run.Results = append(run.Results, models.CommandStepResult{Id: stepId, Executed: false})
			continue
		}

		items := []string{""}
		looped := false
		if step.ForEachExtract != "" {
			items = extracts[step.ForEachExtract]
			looped = true
			if len(items) == 0 {
				// An empty loop is a failed step: the fail comment and
				// stop_on_decision apply as if an iteration had failed.
				logger.DebugContext(ctx, "looped command step has no items",
					"step", stepId, "extract", step.ForEachExtract)
				result := models.CommandStepResult{
					Id:       stepId + "_empty",
					Cmd:      render_comment.Render(step.CommandTemplate, renderContext),
					Status:   1,
					Stderr:   "for_each_extract '" + step.ForEachExtract + "' produced 0 items",
					Passed:   false,
					Executed: true,
				}
				run.Results = append(run.Results, result)
				render_comment.MergeStepResult(renderContext, result)

				if step.OnFailComment != "" {
					run.CommentOverride = step.OnFailComment
				}
				if run.CommentOverride != "" && step.StopOnDecision {
					run.Stopped = true
					break
				}
				continue
			}
		}

		decided := false
		for i, item := range items {
			iterationId := stepId
			if looped {
				iterationId = stepId + "_" + strconv.Itoa(i+1)
			}

			result := r.runOne(ctx, iterationId, step, renderContext, item)
			run.Results = append(run.Results, result)
			render_comment.MergeStepResult(renderContext, result)

			if result.Executed {
				previousStdout = result.Stdout
			}

			if result.Passed && step.TimerAfterSeconds > 0 {
				run.TimerSeconds = append(run.TimerSeconds, step.TimerAfterSeconds)
			}

			if result.Passed && step.OnPassComment != "" {
				run.CommentOverride = step.OnPassComment
				decided = true
			} else if !result.Passed && step.OnFailComment != "" {
				run.CommentOverride = step.OnFailComment
				decided = true
			}
		}

		if decided && step.StopOnDecision {
			run.Stopped = true
			break
		}
	}

	return run
}

func (r Runner) runOne(
	ctx context.Context,
	id string,
	step models.CommandStep,
	renderContext map[string]string,
	item string,
) models.CommandStepResult {
	logger := utils.LoggerFromContext(ctx)

	if item != "" {
		renderContext["item"] = item
	}
	command := render_comment.Render(step.CommandTemplate, renderContext)
	delete(renderContext, "item")

	execContext, command := SplitExecutionContext(command)

	output, err := r.executor.Execute(ctx, execContext, command, r.timeout)
	if err != nil {
		// A failed or timed-out call is a failed step, never a pipeline abort.
		logger.WarnContext(ctx, "command execution failed",
			"step", id, "context", execContext, "error", err.Error())
		return models.CommandStepResult{
			Id:       id,
			Cmd:      command,
			Context:  execContext,
			Status:   -1,
			Stderr:   err.Error(),
			Passed:   false,
			Executed: true,
		}
	}

	passed := evaluateExpectations(step, output)

	return models.CommandStepResult{
		Id:            id,
		Cmd:           command,
		Context:       execContext,
		Status:        output.Status,
		Stdout:        output.Stdout,
		Stderr:        output.Stderr,
		SelectedLines: text_extract.SelectOutput(output.Stdout, step.Selection),
		Passed:        passed,
		Executed:      true,
	}
}

func evaluateExpectations(step models.CommandStep, output models.CommandOutput) bool {
	if !step.HasExpectations() {
		return true
	}

	stdout := strings.ToLower(output.Stdout)

	if step.ExpectStatus != nil && output.Status != *step.ExpectStatus {
		return false
	}
	if step.ExpectContains != "" && !strings.Contains(stdout, strings.ToLower(step.ExpectContains)) {
		return false
	}
	if step.ExpectNotContains != "" && strings.Contains(stdout, strings.ToLower(step.ExpectNotContains)) {
		return false
	}
	return true
}

// SplitExecutionContext parses an optional "context::" prefix off a resolved
// command string.
func SplitExecutionContext(command string) (string, string) {
	prefix, rest, found := strings.Cut(command, "::")
	if found && knownContexts[strings.TrimSpace(strings.ToLower(prefix))] {
		return strings.TrimSpace(strings.ToLower(prefix)), strings.TrimSpace(rest)
	}
	return DefaultExecutionContext, strings.TrimSpace(command)
}

