// Package evaluate_rules selects the single winning rule for a ticket:
// global gating, scope filtering, pattern confidence scoring, then a
// deterministic priority/confidence tie-break.
package evaluate_rules

import (
	"context"
	"strings"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

const (
	// MinimumConfidence is the fraction of patterns a rule must satisfy to
	// be eligible.
	MinimumConfidence = 0.5

	// DefaultRepeatThreshold is the same-failure count from which only rules
	// with allow_on_same_failure remain eligible.
	DefaultRepeatThreshold = 2

	// DefaultMaxAttempts is the attempt count above which only rules with
	// allow_high_attempts remain eligible.
	DefaultMaxAttempts = 15
)

type RuleMatch struct {
	Rule       models.Rule
	Confidence float64
}

type Evaluator struct {
	MinConfidence   float64
	RepeatThreshold int
	MaxAttempts     int
}

func NewEvaluator() Evaluator {
	return Evaluator{
		MinConfidence:   MinimumConfidence,
		RepeatThreshold: DefaultRepeatThreshold,
		MaxAttempts:     DefaultMaxAttempts,
	}
}

// Evaluate returns the winning rule for the event, or nil when no rule is
// eligible. Rules in excludedRuleIds (timer suppression) cannot win. The
// winner is the eligible rule with the highest priority, then the highest
// confidence, then the earliest position in the loaded rule order.
func (e Evaluator) Evaluate(
	ctx context.Context,
	event models.ErrorEvent,
	rules []models.Rule,
	excludedRuleIds map[string]struct{},
) *RuleMatch {
	logger := utils.LoggerFromContext(ctx)

	var winner *RuleMatch
	for _, rule := range rules {
		if _, excluded := excludedRuleIds[rule.Id]; excluded {
			continue
		}
		if !e.passesGating(event, rule) {
			continue
		}
		if !ScopeMatches(event, rule.Scope) {
			continue
		}
		if len(rule.Patterns) == 0 {
			continue
		}

		confidence := PatternConfidence(event, rule.Patterns)
		if confidence < e.MinConfidence {
			continue
		}

		logger.DebugContext(ctx, "rule is eligible",
			"ticket", event.TicketKey, "rule", rule.Id, "confidence", confidence)

		if winner == nil ||
			rule.Priority > winner.Rule.Priority ||
			(rule.Priority == winner.Rule.Priority && confidence > winner.Confidence) {
			winner = &RuleMatch{Rule: rule, Confidence: confidence}
		}
	}
	return winner
}

func (e Evaluator) passesGating(event models.ErrorEvent, rule models.Rule) bool {
	if e.RepeatThreshold > 0 && event.RepeatCount() >= e.RepeatThreshold && !rule.AllowOnSameFailure {
		return false
	}
	if e.MaxAttempts > 0 && event.AttemptCount() > e.MaxAttempts && !rule.AllowHighAttempts {
		return false
	}
	return true
}

// ScopeMatches evaluates every scope predicate against the event. A field
// unknown to the schema passes its predicate; a known field without a value
// fails it. All predicates must pass.
func ScopeMatches(event models.ErrorEvent, scope []models.ScopePredicate) bool {
	for _, predicate := range scope {
		values, present, known := event.FieldValues(predicate.Field)
		if !known {
			continue
		}
		if !present {
			return false
		}
		if !predicateMatches(values, predicate) {
			return false
		}
	}
	return true
}

func predicateMatches(values []string, predicate models.ScopePredicate) bool {
	// Equality predicates match any element of a list-valued field.
	if predicate.Exact != "" {
		for _, value := range values {
			if strings.EqualFold(value, predicate.Exact) {
				return true
			}
		}
		return false
	}

	if len(predicate.OneOf) > 0 {
		for _, value := range values {
			for _, candidate := range predicate.OneOf {
				if strings.EqualFold(value, candidate) {
					return true
				}
			}
		}
		return false
	}

	// Substring and regex predicates see the joined form so they can span
	// elements.
	joined := strings.Join(values, ", ")
	lowered := strings.ToLower(joined)
	if predicate.Contains != "" && !strings.Contains(lowered, strings.ToLower(predicate.Contains)) {
		return false
	}
	if predicate.NotContains != "" && strings.Contains(lowered, strings.ToLower(predicate.NotContains)) {
		return false
	}
	if predicate.Regex != nil && !predicate.Regex.MatchString(joined) {
		return false
	}
	return true
}

// PatternConfidence scores the fraction of patterns the event satisfies.
func PatternConfidence(event models.ErrorEvent, patterns []models.Pattern) float64 {
	if len(patterns) == 0 {
		return 0
	}

	matched := 0
	for _, pattern := range patterns {
		source, _, _ := event.Field(pattern.SourceField())
		if patternMatches(source, pattern) {
			matched++
		}
	}
	return float64(matched) / float64(len(patterns))
}

func patternMatches(source string, pattern models.Pattern) bool {
	lowered := strings.ToLower(source)

	switch pattern.Type {
	case models.PatternContains:
		return strings.Contains(lowered, strings.ToLower(pattern.Value))
	case models.PatternNotContains:
		return !strings.Contains(lowered, strings.ToLower(pattern.Value))
	case models.PatternRegex:
		return pattern.Regex != nil && pattern.Regex.MatchString(source)
	default:
		return false
	}
}
