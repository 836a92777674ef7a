package models

import (
	"fmt"
	"regexp"
)

// Rule is one declarative triage rule: scope filters deciding whether the
// rule applies at all, patterns scored into a confidence, and the action to
// run when the rule wins.
type Rule struct {
	Id          string
	Name        string
	Description string

	// Priority orders winner selection; higher wins. Defaults to 0.
	Priority int

	// AllowOnSameFailure keeps the rule eligible when the ticket repeats the
	// same failure beyond the repeat threshold.
	AllowOnSameFailure bool

	// AllowHighAttempts keeps the rule eligible when the ticket's attempt
	// count exceeds the hard ceiling.
	AllowHighAttempts bool

	Scope    []ScopePredicate
	Patterns []Pattern
	Action   RuleAction
}

func (r Rule) Validate() error {
	if r.Id == "" {
		return ErrRuleWithoutId
	}
	if len(r.Patterns) == 0 {
		return ErrRuleWithoutPatterns
	}
	return nil
}

// ScopePredicate filters on one event field before pattern scoring. Exactly
// one of the match modes is set: Exact, OneOf, or any combination of
// Contains/NotContains/Regex. All comparisons are case-insensitive.
type ScopePredicate struct {
	Field string

	Exact       string
	OneOf       []string
	Contains    string
	NotContains string
	Regex       *regexp.Regexp
}

type PatternType string

const (
	PatternContains    PatternType = "contains"
	PatternNotContains PatternType = "not_contains"
	PatternRegex       PatternType = "regex"
)

// Pattern is one text matcher contributing to a rule's confidence score.
// Source names the event field to match against; empty means the combined
// summary+description text.
type Pattern struct {
	Type   PatternType
	Value  string
	Regex  *regexp.Regexp
	Source string
}

func (p Pattern) SourceField() string {
	if p.Source == "" {
		return CombinedTextField
	}
	return p.Source
}

// RuleAction is what a winning rule does: render a comment, pull text
// fragments, run diagnostic commands, consult the log viewer, start a
// suppression timer, and emit tracker directives.
type RuleAction struct {
	CommentTemplate string
	TextExtracts    []TextExtract
	CommandSteps    []CommandStep
	TestView        *TestViewSpec

	TimerAfterSeconds int

	AssignTo       string
	AssignToTester bool
	TransitionTo   string
	Close          bool
	LinkIssue      string
}

type TakeMode string

const (
	TakeFirst TakeMode = "first"
	TakeLast  TakeMode = "last"
	TakeAll   TakeMode = "all"
)

// TextSelection narrows free-form text down to fragments: an optional
// between-markers block, an optional line filter with context lines, and an
// optional inline extraction that takes precedence over the block result.
type TextSelection struct {
	BetweenStartContains string
	BetweenEndContains   string

	LineFilter  string
	LinesBefore int
	LinesAfter  int

	Inline *InlineExtraction
}

func (s TextSelection) IsZero() bool {
	return s.BetweenStartContains == "" && s.BetweenEndContains == "" &&
		s.LineFilter == "" && s.LinesBefore == 0 && s.LinesAfter == 0 && s.Inline == nil
}

// InlineExtraction pulls a fragment out of a single line, either between two
// same-line markers or as the text following a marker (AfterChars characters,
// or the rest of the line when zero).
type InlineExtraction struct {
	StartContains string
	EndContains   string

	AfterContains string
	AfterChars    int
}

// TextExtract is a named fragment specification evaluated against one event
// field.
type TextExtract struct {
	Name   string
	Source string

	TextSelection

	Take    TakeMode
	Default string
}

func (e TextExtract) SourceField() string {
	if e.Source == "" {
		return CombinedTextField
	}
	return e.Source
}

func (e TextExtract) TakeMode() TakeMode {
	if e.Take == "" {
		return TakeFirst
	}
	return e.Take
}

// CommandStep is one gated, externally executed diagnostic command.
type CommandStep struct {
	// Id keys the step's results in the render context; auto-assigned
	// cmd_1, cmd_2, ... when empty.
	Id string

	CommandTemplate string

	ExpectStatus      *int
	ExpectContains    string
	ExpectNotContains string

	Selection TextSelection

	// ForEachExtract names a TextExtract whose full result list drives one
	// execution per item.
	ForEachExtract string

	// IfPreviousContains skips the step when the previous step's stdout does
	// not contain the substring.
	IfPreviousContains *string

	TimerAfterSeconds int

	// StopOnDecision stops the runner once this step decided a comment
	// override. By default remaining steps still run.
	StopOnDecision bool

	OnPassComment string
	OnFailComment string
}

func (s CommandStep) HasExpectations() bool {
	return s.ExpectStatus != nil || s.ExpectContains != "" || s.ExpectNotContains != ""
}

// AutoStepId returns the step id, falling back to the positional cmd_N name.
func AutoStepId(step CommandStep, position int) string {
	if step.Id != "" {
		return step.Id
	}
	return fmt.Sprintf("cmd_%d", position+1)
}

type SnippetSource string

const (
	SnippetSourceAuto    SnippetSource = "auto"
	SnippetSourceLogText SnippetSource = "log_text"
	SnippetSourceSnippet SnippetSource = "snippet"
)

// TestViewSpec drives log-viewer enrichment for the winning rule: which
// testcase log to fetch, how to select from it, and an ordered case list
// evaluated first-match.
type TestViewSpec struct {
	Testcase        string
	TestsetOverride string
	Source          SnippetSource

	Select          *TextExtract
	CommentTemplate string

	Cases []TestViewCase
}

// TestViewCase is one entry of the ordered case list. The first case whose
// condition matches the fetched text wins; when cases are declared and none
// match, the comment is suppressed entirely.
type TestViewCase struct {
	WhenContains    string
	WhenNotContains string
	WhenRegex       *regexp.Regexp

	Source          SnippetSource
	Select          *TextExtract
	CommentTemplate string
}
