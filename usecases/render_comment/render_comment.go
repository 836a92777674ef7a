// Package render_comment assembles the per-cycle render context and resolves
// placeholder templates against it. Rendering is total: an unresolved
// placeholder becomes a marked fallback string, never an error.
package render_comment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/faultline/faultline/models"
)

var placeholderRegex = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// Render substitutes {name} placeholders by exact lookup in the context.
// Missing names render as <missing:name> and processing continues.
func Render(template string, context map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := context[name]; ok {
			return value
		}
		return "<missing:" + name + ">"
	})
}

// BuildContext merges event fields, rule metadata and extraction results into
// the placeholder context. Command step and case selector results are merged
// in later, as they are produced.
func BuildContext(
	event models.ErrorEvent,
	rule models.Rule,
	confidence float64,
	extracts map[string][]string,
) map[string]string {
	context := map[string]string{
		"ticket_key":            event.TicketKey,
		"summary":               event.Summary,
		"description":           event.Description,
		"status":                event.Status,
		"assignee":              event.Assignee,
		"reporter":              event.Reporter,
		"tester_email":          event.TesterEmail,
		"model":                 event.Model,
		"serial":                event.Serial,
		"rack_serial":           event.RackSerial,
		"platform":              event.Platform,
		"customer_ipn":          event.CustomerIpn,
		"testcase":              event.Testcase,
		"failed_testset":        event.FailedTestset,
		"latest_testset":        event.LatestTestset,
		"failure_message":       event.FailureMessage,
		"error_details":         event.ErrorDetails,
		"console_command":       event.ConsoleCommand,
		"latest_comment_text":   event.LatestCommentText,
		"latest_comment_author": event.LatestCommentAuthor,
		"log_error":             event.LogError,

		"rule_id":    rule.Id,
		"rule_name":  rule.Name,
		"confidence": fmt.Sprintf("%.2f", confidence),
	}

	for name, fragments := range extracts {
		context[name] = strings.Join(fragments, "\n")
	}

	return context
}

// MergeStepResult records one command step's outputs under its id, the way
// templates reference them.
func MergeStepResult(context map[string]string, result models.CommandStepResult) {
	prefix := "command_" + result.Id + "_"
	context[prefix+"cmd"] = result.Cmd
	context[prefix+"stdout"] = result.Stdout
	context[prefix+"stderr"] = result.Stderr
	context[prefix+"status"] = fmt.Sprintf("%d", result.Status)
	context[prefix+"selected_lines"] = result.SelectedLines
	context[prefix+"passed"] = strconv.FormatBool(result.Passed)
}

// FormatCommandHistory renders executed steps into the command_history
// placeholder.
func FormatCommandHistory(results []models.CommandStepResult) string {
	var b strings.Builder
	for _, result := range results {
		if !result.Executed {
			continue
		}
		fmt.Fprintf(&b, "$ %s\n", result.Cmd)
		fmt.Fprintf(&b, "(status %d)\n", result.Status)
		if result.SelectedLines != "" {
			b.WriteString(result.SelectedLines)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
