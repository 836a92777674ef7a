package evaluate_rules

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline/faultline/models"
)

func intPtr(v int) *int { return &v }

func containsPattern(value string) models.Pattern {
	return models.Pattern{Type: models.PatternContains, Value: value}
}

func TestPatternConfidenceIsMatchedOverTotal(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "link down on port eth0, CRC errors detected"}

	patterns := []models.Pattern{
		containsPattern("link down"),
		containsPattern("crc errors"),
		containsPattern("fan failure"),
		containsPattern("over temperature"),
	}

	assert.InDelta(t, 0.5, PatternConfidence(event, patterns), 1e-9)
	assert.InDelta(t, 1.0, PatternConfidence(event, patterns[:2]), 1e-9)
}

func TestConfidenceExactlyAtThresholdIsEligible(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "link down crc"}

	rule := models.Rule{
		Id: "r1",
		Patterns: []models.Pattern{
			containsPattern("link down"),
			containsPattern("nowhere to be found"),
		},
	}

	match := NewEvaluator().Evaluate(context.Background(), event, []models.Rule{rule}, nil)
	require.NotNil(t, match)
	assert.InDelta(t, 0.5, match.Confidence, 1e-9)
}

func TestScopeUnknownFieldIgnoredKnownNullFails(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "anything", Assignee: ""}

	unknownField := []models.ScopePredicate{{Field: "no_such_field", Exact: "x"}}
	assert.True(t, ScopeMatches(event, unknownField))

	knownButEmpty := []models.ScopePredicate{{Field: "assignee", Exact: "alice"}}
	assert.False(t, ScopeMatches(event, knownButEmpty))
}

func TestScopeModes(t *testing.T) {
	event := models.ErrorEvent{Status: "Open", Platform: "x86", FailureMessage: "Timeout waiting for prompt"}

	assert.True(t, ScopeMatches(event, []models.ScopePredicate{{Field: "status", Exact: "open"}}))
	assert.True(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "platform", OneOf: []string{"ARM", "X86"}},
	}))
	assert.True(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "failure_message", Contains: "timeout", NotContains: "kernel panic"},
	}))
	assert.False(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "failure_message", NotContains: "waiting"},
	}))
	assert.True(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "failure_message", Regex: regexp.MustCompile(`(?i)timeout.*prompt`)},
	}))
}

func TestScopeOnTimerExpiredSignal(t *testing.T) {
	event := models.ErrorEvent{}.WithTimerSignals([]string{"wait_for_reboot"})

	assert.True(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "timer_expired_for", Contains: "wait_for_reboot"},
	}))
}

func TestScopeEqualityMatchesAnyListElement(t *testing.T) {
	event := models.ErrorEvent{FailedTestcases: []string{"tc_boot", "tc_fan", "tc_link"}}

	assert.True(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "failed_testcases", Exact: "tc_fan"},
	}))
	assert.True(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "failed_testcases", OneOf: []string{"tc_psu", "tc_link"}},
	}))
	assert.False(t, ScopeMatches(event, []models.ScopePredicate{
		{Field: "failed_testcases", Exact: "tc_psu"},
	}))

	expired := models.ErrorEvent{}.WithTimerSignals([]string{"wait_for_reboot", "wait_for_rma"})
	assert.True(t, ScopeMatches(expired, []models.ScopePredicate{
		{Field: "timer_expired_for", Exact: "wait_for_rma"},
	}))
}

func TestWinnerSelectionIsDeterministic(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "alpha beta gamma delta euro"}

	// Confidence 0.6 (3/5) vs 0.8 (4/5) at equal priority.
	lower := models.Rule{Id: "lower", Priority: 10, Patterns: []models.Pattern{
		containsPattern("alpha"), containsPattern("beta"), containsPattern("gamma"),
		containsPattern("zz1"), containsPattern("zz2"),
	}}
	higher := models.Rule{Id: "higher", Priority: 10, Patterns: []models.Pattern{
		containsPattern("alpha"), containsPattern("beta"), containsPattern("gamma"),
		containsPattern("delta"), containsPattern("zz3"),
	}}

	match := NewEvaluator().Evaluate(context.Background(), event, []models.Rule{lower, higher}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "higher", match.Rule.Id)

	// Priority 20 with low confidence beats priority 10 with high confidence.
	strong := models.Rule{Id: "strong", Priority: 20, Patterns: []models.Pattern{
		containsPattern("alpha"), containsPattern("zz4"),
	}}
	match = NewEvaluator().Evaluate(context.Background(), event, []models.Rule{higher, strong}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "strong", match.Rule.Id)
}

func TestEqualPriorityAndConfidencePicksLoadOrder(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "alpha"}

	first := models.Rule{Id: "first", Patterns: []models.Pattern{containsPattern("alpha")}}
	second := models.Rule{Id: "second", Patterns: []models.Pattern{containsPattern("alpha")}}

	match := NewEvaluator().Evaluate(context.Background(), event,
		[]models.Rule{first, second}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "first", match.Rule.Id)
}

func TestZeroPatternRuleNeverWins(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "alpha"}

	empty := models.Rule{Id: "empty", Priority: 100}
	fallback := models.Rule{Id: "fallback", Patterns: []models.Pattern{containsPattern("alpha")}}

	match := NewEvaluator().Evaluate(context.Background(), event,
		[]models.Rule{empty, fallback}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "fallback", match.Rule.Id)
}

func TestGating(t *testing.T) {
	evaluator := NewEvaluator()
	pattern := []models.Pattern{containsPattern("alpha")}

	repeated := models.ErrorEvent{CombinedText: "alpha", SameFailureCount: intPtr(2)}
	normal := models.Rule{Id: "normal", Patterns: pattern}
	tolerant := models.Rule{Id: "tolerant", AllowOnSameFailure: true, Patterns: pattern}

	match := evaluator.Evaluate(context.Background(), repeated, []models.Rule{normal, tolerant}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "tolerant", match.Rule.Id)

	exhausted := models.ErrorEvent{CombinedText: "alpha", Attempts: intPtr(16)}
	highAttempts := models.Rule{Id: "high", AllowHighAttempts: true, Patterns: pattern}

	match = evaluator.Evaluate(context.Background(), exhausted, []models.Rule{normal, highAttempts}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "high", match.Rule.Id)

	atCeiling := models.ErrorEvent{CombinedText: "alpha", Attempts: intPtr(15)}
	match = evaluator.Evaluate(context.Background(), atCeiling, []models.Rule{normal}, nil)
	require.NotNil(t, match)
	assert.Equal(t, "normal", match.Rule.Id)
}

func TestExcludedRulesCannotWin(t *testing.T) {
	event := models.ErrorEvent{CombinedText: "alpha"}
	rule := models.Rule{Id: "suppressed", Patterns: []models.Pattern{containsPattern("alpha")}}

	match := NewEvaluator().Evaluate(context.Background(), event, []models.Rule{rule},
		map[string]struct{}{"suppressed": {}})
	assert.Nil(t, match)
}
