package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline/faultline/models"
)

func TestLoadRulesFromDirectory(t *testing.T) {
	rules, err := RuleFileRepository{}.LoadRules(context.Background(), "testdata")
	require.NoError(t, err)

	ids := make([]string, 0, len(rules))
	for _, rule := range rules {
		ids = append(ids, rule.Id)
	}

	// Invalid and disabled rules are dropped at load, in file order.
	assert.Equal(t, []string{"link_flap", "wait_after_reboot"}, ids)
}

func TestLoadedRuleShape(t *testing.T) {
	rules, err := RuleFileRepository{}.LoadRules(context.Background(), "testdata")
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	linkFlap := rules[0]
	assert.Equal(t, 10, linkFlap.Priority)
	require.Len(t, linkFlap.Scope, 3)

	// Scope predicates come out sorted by field name.
	assert.Equal(t, "failure_message", linkFlap.Scope[0].Field)
	assert.Equal(t, "link", linkFlap.Scope[0].Contains)
	assert.Equal(t, "platform", linkFlap.Scope[1].Field)
	assert.Equal(t, []string{"x86", "arm64"}, linkFlap.Scope[1].OneOf)
	assert.Equal(t, "Open", linkFlap.Scope[2].Exact)

	require.Len(t, linkFlap.Patterns, 2)
	assert.Equal(t, models.PatternContains, linkFlap.Patterns[0].Type)
	require.NotNil(t, linkFlap.Patterns[1].Regex)
	assert.True(t, linkFlap.Patterns[1].Regex.MatchString("ETH0"))

	require.Len(t, linkFlap.Action.TextExtracts, 1)
	assert.Equal(t, models.TakeAll, linkFlap.Action.TextExtracts[0].TakeMode())

	require.Len(t, linkFlap.Action.CommandSteps, 1)
	step := linkFlap.Action.CommandSteps[0]
	assert.Equal(t, "ports", step.ForEachExtract)
	assert.Equal(t, 600, step.TimerAfterSeconds)
	assert.Equal(t, 300, linkFlap.Action.TimerAfterSeconds)

	waitRule := rules[1]
	require.NotNil(t, waitRule.Action.TestView)
	require.Len(t, waitRule.Action.TestView.Cases, 1)
	assert.Equal(t, "power cycle", waitRule.Action.TestView.Cases[0].WhenContains)
}

func TestUnparseableRuleFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("rules: ["), 0o600)
	require.NoError(t, err)

	_, err = RuleFileRepository{}.LoadRules(context.Background(), dir)
	assert.Error(t, err)
}

func TestMissingRulesDirectoryIsFatal(t *testing.T) {
	_, err := RuleFileRepository{}.LoadRules(context.Background(), "does-not-exist")
	assert.Error(t, err)
}
