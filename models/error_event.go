package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorEvent is the enriched snapshot of one failure ticket, built once per
// processing cycle. All downstream components only read it.
//
// Field lookup distinguishes three outcomes: the field is not part of the
// schema at all (unknown), the field is part of the schema but carries no
// value (absent), or the field resolves to a value. Scope predicates ignore
// unknown fields but fail on absent ones, so the distinction matters.
type ErrorEvent struct {
	TicketKey   string
	Summary     string
	Description string
	Status      string
	Assignee    string
	Reporter    string
	TesterEmail string

	Model       string
	Serial      string
	RackSerial  string
	Platform    string
	CustomerIpn string

	Testcase       string
	FailedTestset  string
	LatestTestset  string
	FailureMessage string
	ErrorDetails   string
	ConsoleCommand string

	// CombinedText is the canonical summary+description haystack that
	// patterns match against when they name no other source.
	CombinedText string

	CommentsText        string
	LatestCommentText   string
	LatestCommentAuthor string

	FailedTestcases []string

	Attempts         *int
	SameFailureCount *int

	LogText    string
	LogSnippet string
	LogError   string

	// TimerExpiredFor lists rule ids whose suppression timer has expired for
	// this ticket, set by the pipeline before matching.
	TimerExpiredFor []string

	// Extra carries forward-compatible fields not in the schema above. A key
	// present here counts as known.
	Extra map[string]any
}

const CombinedTextField = "combined_text"

// Field resolves a dotted field path against the event. It returns the value
// as its canonical string form, whether a value is present, and whether the
// field is part of the schema at all. Empty strings and nil pointers count as
// absent.
func (e ErrorEvent) Field(path string) (value string, present bool, known bool) {
	name, _, nested := strings.Cut(path, ".")

	if nested {
		return e.extraField(path)
	}

	switch strings.ToLower(name) {
	case "ticket_key":
		return stringField(e.TicketKey)
	case "summary":
		return stringField(e.Summary)
	case "description":
		return stringField(e.Description)
	case "status":
		return stringField(e.Status)
	case "assignee":
		return stringField(e.Assignee)
	case "reporter":
		return stringField(e.Reporter)
	case "tester_email":
		return stringField(e.TesterEmail)
	case "model":
		return stringField(e.Model)
	case "serial":
		return stringField(e.Serial)
	case "rack_serial":
		return stringField(e.RackSerial)
	case "platform":
		return stringField(e.Platform)
	case "customer_ipn":
		return stringField(e.CustomerIpn)
	case "testcase":
		return stringField(e.Testcase)
	case "failed_testset":
		return stringField(e.FailedTestset)
	case "latest_testset":
		return stringField(e.LatestTestset)
	case "failure_message":
		return stringField(e.FailureMessage)
	case "error_details":
		return stringField(e.ErrorDetails)
	case "console_command":
		return stringField(e.ConsoleCommand)
	case CombinedTextField:
		return stringField(e.CombinedText)
	case "comments_text":
		return stringField(e.CommentsText)
	case "latest_comment_text":
		return stringField(e.LatestCommentText)
	case "latest_comment_author":
		return stringField(e.LatestCommentAuthor)
	case "failed_testcases":
		return listField(e.FailedTestcases)
	case "attempts":
		return intField(e.Attempts)
	case "same_failure_count":
		return intField(e.SameFailureCount)
	case "log_text":
		return stringField(e.LogText)
	case "log_snippet":
		return stringField(e.LogSnippet)
	case "log_error":
		return stringField(e.LogError)
	case "timer_expired_for":
		return listField(e.TimerExpiredFor)
	}

	return e.extraField(path)
}

func (e ErrorEvent) extraField(path string) (string, bool, bool) {
	raw, ok := e.extraRaw(path)
	if !ok {
		return "", false, false
	}
	return anyFieldValue(raw)
}

func (e ErrorEvent) extraRaw(path string) (any, bool) {
	var current any = e.Extra
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// FieldValues resolves a field path to its individual values: list fields
// yield one entry per element, scalar fields a single-entry slice. A ticket
// with several failed testcases counts as failing each of them, so equality
// predicates check every element rather than the joined string.
func (e ErrorEvent) FieldValues(path string) (values []string, present bool, known bool) {
	if !strings.Contains(path, ".") {
		switch strings.ToLower(path) {
		case "failed_testcases":
			return e.FailedTestcases, len(e.FailedTestcases) > 0, true
		case "timer_expired_for":
			return e.TimerExpiredFor, len(e.TimerExpiredFor) > 0, true
		}
	}
	if raw, ok := e.extraRaw(path); ok {
		switch list := raw.(type) {
		case []string:
			return list, len(list) > 0, true
		case []any:
			parts := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok, _ := anyFieldValue(item); ok {
					parts = append(parts, s)
				}
			}
			return parts, len(parts) > 0, true
		}
	}
	value, present, known := e.Field(path)
	if !present || !known {
		return nil, present, known
	}
	return []string{value}, true, true
}

// WithTimerSignals returns a copy of the event carrying the expired-timer
// rule ids, so scope predicates can gate on them.
func (e ErrorEvent) WithTimerSignals(expiredRuleIds []string) ErrorEvent {
	e.TimerExpiredFor = expiredRuleIds
	return e
}

func (e ErrorEvent) AttemptCount() int {
	if e.Attempts == nil {
		return 0
	}
	return *e.Attempts
}

func (e ErrorEvent) RepeatCount() int {
	if e.SameFailureCount == nil {
		return 0
	}
	return *e.SameFailureCount
}

func stringField(v string) (string, bool, bool) {
	return v, v != "", true
}

func listField(v []string) (string, bool, bool) {
	return strings.Join(v, ", "), len(v) > 0, true
}

func intField(v *int) (string, bool, bool) {
	if v == nil {
		return "", false, true
	}
	return strconv.Itoa(*v), true, true
}

func anyFieldValue(v any) (string, bool, bool) {
	switch value := v.(type) {
	case nil:
		return "", false, true
	case string:
		return value, value != "", true
	case bool:
		return strconv.FormatBool(value), true, true
	case int:
		return strconv.Itoa(value), true, true
	case int64:
		return strconv.FormatInt(value, 10), true, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true, true
	case []string:
		return listField(value)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok, _ := anyFieldValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), len(parts) > 0, true
	default:
		s := fmt.Sprint(value)
		return s, s != "", true
	}
}
