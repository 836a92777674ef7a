package repositories

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

// RuleFileRepository loads rule sets from a directory of YAML files, in file
// name order. An invalid rule is disabled with a warning; an unparseable
// file fails the load.
type RuleFileRepository struct{}

type ruleFile struct {
	Rules []ruleDto `yaml:"rules"`
}

type ruleDto struct {
	Id                 string               `yaml:"id"`
	Name               string               `yaml:"name"`
	Description        string               `yaml:"description"`
	Priority           int                  `yaml:"priority"`
	AllowOnSameFailure bool                 `yaml:"allow_on_same_failure"`
	AllowHighAttempts  bool                 `yaml:"allow_high_attempts"`
	Disabled           bool                 `yaml:"disabled"`
	Scope              map[string]yaml.Node `yaml:"scope"`
	Patterns           []patternDto         `yaml:"patterns"`
	Action             actionDto            `yaml:"action"`
}

type scopeTripleDto struct {
	Contains    string `yaml:"contains"`
	NotContains string `yaml:"not_contains"`
	Regex       string `yaml:"regex"`
}

type patternDto struct {
	Contains    string `yaml:"contains"`
	NotContains string `yaml:"not_contains"`
	Regex       string `yaml:"regex"`
	Source      string `yaml:"source"`
}

type actionDto struct {
	CommentTemplate   string           `yaml:"comment_template"`
	TextExtracts      []textExtractDto `yaml:"text_extracts"`
	CommandSteps      []commandStepDto `yaml:"command_steps"`
	TestView          *testViewDto     `yaml:"testview"`
	TimerAfterSeconds int              `yaml:"timer_after_seconds"`
	AssignTo          string           `yaml:"assign_to"`
	AssignToTester    bool             `yaml:"assign_to_tester"`
	TransitionTo      string           `yaml:"transition_to"`
	Close             bool             `yaml:"close"`
	LinkIssue         string           `yaml:"link_issue"`
}

type selectionDto struct {
	BetweenStartContains string     `yaml:"between_start_contains"`
	BetweenEndContains   string     `yaml:"between_end_contains"`
	LineFilter           string     `yaml:"line_filter"`
	LinesBefore          int        `yaml:"lines_before"`
	LinesAfter           int        `yaml:"lines_after"`
	Inline               *inlineDto `yaml:"inline"`
}

type inlineDto struct {
	StartContains string `yaml:"start_contains"`
	EndContains   string `yaml:"end_contains"`
	AfterContains string `yaml:"after_contains"`
	AfterChars    int    `yaml:"after_chars"`
}

type textExtractDto struct {
	Name    string       `yaml:"name"`
	Source  string       `yaml:"source"`
	Select  selectionDto `yaml:",inline"`
	Take    string       `yaml:"take"`
	Default string       `yaml:"default"`
}

type commandStepDto struct {
	Id                 string        `yaml:"id"`
	Cmd                string        `yaml:"cmd"`
	ExpectStatus       *int          `yaml:"expect_status"`
	ExpectContains     string        `yaml:"expect_contains"`
	ExpectNotContains  string        `yaml:"expect_not_contains"`
	Select             *selectionDto `yaml:"select"`
	ForEachExtract     string        `yaml:"for_each_extract"`
	IfPreviousContains *string       `yaml:"if_previous_contains"`
	TimerAfterSeconds  int           `yaml:"timer_after_seconds"`
	StopOnDecision     bool          `yaml:"stop_on_decision"`
	OnPassComment      string        `yaml:"on_expect_pass_comment"`
	OnFailComment      string        `yaml:"on_expect_fail_comment"`
}

type testViewDto struct {
	Testcase        string            `yaml:"testcase"`
	TestsetOverride string            `yaml:"testset_override"`
	Source          string            `yaml:"source"`
	Select          *textExtractDto   `yaml:"select"`
	CommentTemplate string            `yaml:"comment_template"`
	Cases           []testViewCaseDto `yaml:"cases"`
}

type testViewCaseDto struct {
	WhenContains    string          `yaml:"when_contains"`
	WhenNotContains string          `yaml:"when_not_contains"`
	WhenRegex       string          `yaml:"when_regex"`
	Source          string          `yaml:"source"`
	Select          *textExtractDto `yaml:"select"`
	CommentTemplate string          `yaml:"comment_template"`
}

// LoadRules reads every .yaml/.yml file under path and returns the enabled,
// valid rules in deterministic load order.
func (repo RuleFileRepository) LoadRules(ctx context.Context, path string) ([]models.Rule, error) {
	logger := utils.LoggerFromContext(ctx)

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading rules directory")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var rules []models.Rule
	seen := make(map[string]bool)
	for _, file := range files {
		raw, err := os.ReadFile(filepath.Join(path, file))
		if err != nil {
			return nil, errors.Wrapf(err, "reading rule file %s", file)
		}

		var parsed ruleFile
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			return nil, errors.Wrapf(err, "parsing rule file %s", file)
		}

		for _, dto := range parsed.Rules {
			if dto.Disabled {
				continue
			}
			rule, err := adaptRule(dto)
			if err != nil {
				logger.WarnContext(ctx, "disabling invalid rule",
					"file", file, "rule", dto.Id, "error", err.Error())
				continue
			}
			if seen[rule.Id] {
				logger.WarnContext(ctx, "disabling duplicate rule id", "file", file, "rule", rule.Id)
				continue
			}
			seen[rule.Id] = true
			rules = append(rules, rule)
		}
	}

	logger.InfoContext(ctx, "loaded triage rules", "count", len(rules), "files", len(files))
	return rules, nil
}

func adaptRule(dto ruleDto) (models.Rule, error) {
	rule := models.Rule{
		Id:                 dto.Id,
		Name:               dto.Name,
		Description:        dto.Description,
		Priority:           dto.Priority,
		AllowOnSameFailure: dto.AllowOnSameFailure,
		AllowHighAttempts:  dto.AllowHighAttempts,
	}

	scope, err := adaptScope(dto.Scope)
	if err != nil {
		return models.Rule{}, err
	}
	rule.Scope = scope

	for _, p := range dto.Patterns {
		pattern, err := adaptPattern(p)
		if err != nil {
			return models.Rule{}, err
		}
		rule.Patterns = append(rule.Patterns, pattern)
	}

	action, err := adaptAction(dto.Action)
	if err != nil {
		return models.Rule{}, err
	}
	rule.Action = action

	if err := rule.Validate(); err != nil {
		return models.Rule{}, err
	}
	return rule, nil
}

func adaptScope(scope map[string]yaml.Node) ([]models.ScopePredicate, error) {
	if len(scope) == 0 {
		return nil, nil
	}

	fields := make([]string, 0, len(scope))
	for field := range scope {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	predicates := make([]models.ScopePredicate, 0, len(fields))
	for _, field := range fields {
		node := scope[field]
		predicate := models.ScopePredicate{Field: field}

		switch node.Kind {
		case yaml.ScalarNode:
			predicate.Exact = node.Value

		case yaml.SequenceNode:
			if err := node.Decode(&predicate.OneOf); err != nil {
				return nil, errors.Wrapf(err, "scope field %s", field)
			}

		case yaml.MappingNode:
			var triple scopeTripleDto
			if err := node.Decode(&triple); err != nil {
				return nil, errors.Wrapf(err, "scope field %s", field)
			}
			predicate.Contains = triple.Contains
			predicate.NotContains = triple.NotContains
			if triple.Regex != "" {
				re, err := compileFold(triple.Regex)
				if err != nil {
					return nil, errors.Wrapf(models.ErrInvalidRuleRegex, "scope field %s: %s", field, err.Error())
				}
				predicate.Regex = re
			}

		default:
			return nil, errors.Wrapf(models.BadParameterError, "scope field %s has an unsupported shape", field)
		}

		predicates = append(predicates, predicate)
	}
	return predicates, nil
}

func adaptPattern(dto patternDto) (models.Pattern, error) {
	pattern := models.Pattern{Source: dto.Source}

	switch {
	case dto.Contains != "":
		pattern.Type = models.PatternContains
		pattern.Value = dto.Contains
	case dto.NotContains != "":
		pattern.Type = models.PatternNotContains
		pattern.Value = dto.NotContains
	case dto.Regex != "":
		pattern.Type = models.PatternRegex
		pattern.Value = dto.Regex
		re, err := compileFold(dto.Regex)
		if err != nil {
			return models.Pattern{}, errors.Wrapf(models.ErrInvalidRuleRegex, "pattern: %s", err.Error())
		}
		pattern.Regex = re
	default:
		return models.Pattern{}, errors.Wrap(models.BadParameterError, "pattern declares no matcher")
	}

	return pattern, nil
}

func adaptAction(dto actionDto) (models.RuleAction, error) {
	action := models.RuleAction{
		CommentTemplate:   dto.CommentTemplate,
		TimerAfterSeconds: dto.TimerAfterSeconds,
		AssignTo:          dto.AssignTo,
		AssignToTester:    dto.AssignToTester,
		TransitionTo:      dto.TransitionTo,
		Close:             dto.Close,
		LinkIssue:         dto.LinkIssue,
	}

	for _, e := range dto.TextExtracts {
		extract, err := adaptTextExtract(e)
		if err != nil {
			return models.RuleAction{}, err
		}
		action.TextExtracts = append(action.TextExtracts, extract)
	}

	for _, s := range dto.CommandSteps {
		step := models.CommandStep{
			Id:                 s.Id,
			CommandTemplate:    s.Cmd,
			ExpectStatus:       s.ExpectStatus,
			ExpectContains:     s.ExpectContains,
			ExpectNotContains:  s.ExpectNotContains,
			ForEachExtract:     s.ForEachExtract,
			IfPreviousContains: s.IfPreviousContains,
			TimerAfterSeconds:  s.TimerAfterSeconds,
			StopOnDecision:     s.StopOnDecision,
			OnPassComment:      s.OnPassComment,
			OnFailComment:      s.OnFailComment,
		}
		if s.Cmd == "" {
			return models.RuleAction{}, errors.Wrap(models.BadParameterError, "command step declares no cmd")
		}
		if s.Select != nil {
			step.Selection = adaptSelection(*s.Select)
		}
		action.CommandSteps = append(action.CommandSteps, step)
	}

	if dto.TestView != nil {
		testView, err := adaptTestView(*dto.TestView)
		if err != nil {
			return models.RuleAction{}, err
		}
		action.TestView = testView
	}

	return action, nil
}

func adaptTextExtract(dto textExtractDto) (models.TextExtract, error) {
	if dto.Name == "" {
		return models.TextExtract{}, errors.Wrap(models.BadParameterError, "text extract declares no name")
	}
	return models.TextExtract{
		Name:          dto.Name,
		Source:        dto.Source,
		TextSelection: adaptSelection(dto.Select),
		Take:          models.TakeMode(dto.Take),
		Default:       dto.Default,
	}, nil
}

func adaptSelection(dto selectionDto) models.TextSelection {
	selection := models.TextSelection{
		BetweenStartContains: dto.BetweenStartContains,
		BetweenEndContains:   dto.BetweenEndContains,
		LineFilter:           dto.LineFilter,
		LinesBefore:          dto.LinesBefore,
		LinesAfter:           dto.LinesAfter,
	}
	if dto.Inline != nil {
		selection.Inline = &models.InlineExtraction{
			StartContains: dto.Inline.StartContains,
			EndContains:   dto.Inline.EndContains,
			AfterContains: dto.Inline.AfterContains,
			AfterChars:    dto.Inline.AfterChars,
		}
	}
	return selection
}

func adaptTestView(dto testViewDto) (*models.TestViewSpec, error) {
	spec := models.TestViewSpec{
		Testcase:        dto.Testcase,
		TestsetOverride: dto.TestsetOverride,
		Source:          models.SnippetSource(dto.Source),
		CommentTemplate: dto.CommentTemplate,
	}

	if dto.Select != nil {
		extract, err := adaptTextExtract(withDefaultName(*dto.Select))
		if err != nil {
			return nil, err
		}
		spec.Select = &extract
	}

	for _, c := range dto.Cases {
		testViewCase := models.TestViewCase{
			WhenContains:    c.WhenContains,
			WhenNotContains: c.WhenNotContains,
			Source:          models.SnippetSource(c.Source),
			CommentTemplate: c.CommentTemplate,
		}
		if c.WhenRegex != "" {
			re, err := compileFold(c.WhenRegex)
			if err != nil {
				return nil, errors.Wrapf(models.ErrInvalidRuleRegex, "testview case: %s", err.Error())
			}
			testViewCase.WhenRegex = re
		}
		if c.Select != nil {
			extract, err := adaptTextExtract(withDefaultName(*c.Select))
			if err != nil {
				return nil, err
			}
			testViewCase.Select = &extract
		}
		spec.Cases = append(spec.Cases, testViewCase)
	}

	return &spec, nil
}

func withDefaultName(dto textExtractDto) textExtractDto {
	if dto.Name == "" {
		dto.Name = "testview_selected"
	}
	return dto
}

// Rule regexes match case-insensitively, like every other matcher.
func compileFold(expr string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}
