package testview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faultline/faultline/models"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, testcase string, testsetOverride string) (models.LogSnippet, error) {
	args := m.Called(ctx, testcase, testsetOverride)
	return args.Get(0).(models.LogSnippet), args.Error(1)
}

func TestSelectCaseFirstMatchWins(t *testing.T) {
	spec := models.TestViewSpec{
		Cases: []models.TestViewCase{
			{WhenContains: "kernel panic", CommentTemplate: "panic"},
			{WhenContains: "timeout", CommentTemplate: "timeout"},
			{WhenContains: "time", CommentTemplate: "too broad"},
		},
	}

	selection := SelectCase(spec, models.ErrorEvent{},
		models.LogSnippet{Snippet: "read timeout on bus"})

	assert.True(t, selection.Matched)
	assert.False(t, selection.Suppress)
	assert.Equal(t, "timeout", selection.CommentTemplate)
}

func TestDeclaredCasesWithoutMatchSuppress(t *testing.T) {
	spec := models.TestViewSpec{
		CommentTemplate: "default",
		Cases: []models.TestViewCase{
			{WhenContains: "kernel panic", CommentTemplate: "panic"},
		},
	}

	selection := SelectCase(spec, models.ErrorEvent{},
		models.LogSnippet{Snippet: "all good"})

	assert.True(t, selection.Suppress)
	assert.False(t, selection.Matched)
	assert.Empty(t, selection.CommentTemplate)
}

func TestNoCasesDeclaredUsesDefaultTemplate(t *testing.T) {
	spec := models.TestViewSpec{
		CommentTemplate: "default",
		Select: &models.TextExtract{
			TextSelection: models.TextSelection{LineFilter: "error"},
			Take:          models.TakeAll,
		},
	}

	selection := SelectCase(spec, models.ErrorEvent{},
		models.LogSnippet{Snippet: "error: one\nfine\nerror: two"})

	assert.False(t, selection.Suppress)
	assert.Equal(t, "default", selection.CommentTemplate)
	assert.Equal(t, []string{"error: one", "error: two"}, selection.Selected)
}

func TestCaseSourceOverride(t *testing.T) {
	spec := models.TestViewSpec{
		Source: models.SnippetSourceSnippet,
		Cases: []models.TestViewCase{
			{WhenContains: "only in full", Source: models.SnippetSourceLogText, CommentTemplate: "found"},
		},
	}

	selection := SelectCase(spec, models.ErrorEvent{}, models.LogSnippet{
		Snippet:  "short tail",
		FullText: "the marker is only in full text",
	})

	assert.True(t, selection.Matched)
	assert.Equal(t, "found", selection.CommentTemplate)
}

func TestFetchUsesEventTestcaseAndCaches(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("Fetch", mock.Anything, "tc_power", "").
		Return(models.LogSnippet{Snippet: "snip"}, nil).Once()

	uc := NewUsecase(fetcher)
	event := models.ErrorEvent{Testcase: "tc_power"}

	first := uc.Fetch(context.Background(), event, models.TestViewSpec{})
	second := uc.Fetch(context.Background(), event, models.TestViewSpec{})

	assert.Equal(t, "snip", first.Snippet)
	assert.Equal(t, first, second)
	fetcher.AssertExpectations(t)
}

func TestFetchFailureDegradesToEmptySnippet(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("Fetch", mock.Anything, "tc_bad", "").
		Return(models.LogSnippet{}, assert.AnError)

	uc := NewUsecase(fetcher)
	snippet := uc.Fetch(context.Background(), models.ErrorEvent{Testcase: "tc_bad"}, models.TestViewSpec{})

	require.NotEmpty(t, snippet.Error)
	assert.Empty(t, snippet.Snippet)
}
