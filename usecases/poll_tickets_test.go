package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/faultline/faultline/models"
)

type mockRecordSupplier struct {
	mock.Mock
}

func (m *mockRecordSupplier) ListRecords(ctx context.Context) ([]models.ErrorEvent, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ErrorEvent), args.Error(1)
}

type mockActionApplier struct {
	mock.Mock
}

func (m *mockActionApplier) Apply(ctx context.Context, decision models.Decision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func TestPollTicketsCycle(t *testing.T) {
	eventA := matchedEvent()
	eventB := matchedEvent()
	eventB.TicketKey = "FAULT-43"
	eventB.CombinedText = "nothing recognizable"
	eventB.FailureMessage = "nothing recognizable"

	supplier := new(mockRecordSupplier)
	supplier.On("ListRecords", mock.Anything).
		Return([]models.ErrorEvent{eventA, eventB}, nil)

	// The second supplier repeats FAULT-42: the duplicate is dropped.
	duplicated := new(mockRecordSupplier)
	duplicated.On("ListRecords", mock.Anything).
		Return([]models.ErrorEvent{eventA}, nil)

	timers := new(mockTimerStore)
	timers.On("ObserveTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.TimerObservation{}, nil)
	decisions := new(mockDecisionStore)
	decisions.On("StoreDecision", mock.Anything, mock.Anything).Return(nil)

	applier := new(mockActionApplier)
	applier.On("Apply", mock.Anything, mock.MatchedBy(func(d models.Decision) bool {
		return d.TicketKey == "FAULT-42"
	})).Return(nil).Once()

	process := newPipeline(
		[]models.Rule{matchingRule(models.RuleAction{CommentTemplate: "seen it"})},
		nil, nil, timers, decisions)
	uc := NewPollTicketsUsecase([]RecordSupplier{supplier, duplicated}, process, applier, 2)

	report, err := uc.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Queued)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Decided)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	applier.AssertExpectations(t)
}

func TestPollTicketsSupplierFailureDegrades(t *testing.T) {
	broken := new(mockRecordSupplier)
	broken.On("ListRecords", mock.Anything).
		Return([]models.ErrorEvent(nil), assert.AnError)

	healthy := new(mockRecordSupplier)
	healthy.On("ListRecords", mock.Anything).
		Return([]models.ErrorEvent{matchedEvent()}, nil)

	timers := new(mockTimerStore)
	timers.On("ObserveTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.TimerObservation{}, nil)
	decisions := new(mockDecisionStore)
	decisions.On("StoreDecision", mock.Anything, mock.Anything).Return(nil)

	process := newPipeline(
		[]models.Rule{matchingRule(models.RuleAction{CommentTemplate: "seen it"})},
		nil, nil, timers, decisions)
	uc := NewPollTicketsUsecase([]RecordSupplier{broken, healthy}, process, nil, 1)

	report, err := uc.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Queued)
	assert.Equal(t, 1, report.Decided)
}

func TestPollTicketsApplierFailureCountsAsFailed(t *testing.T) {
	supplier := new(mockRecordSupplier)
	supplier.On("ListRecords", mock.Anything).
		Return([]models.ErrorEvent{matchedEvent()}, nil)

	timers := new(mockTimerStore)
	timers.On("ObserveTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.TimerObservation{}, nil)
	decisions := new(mockDecisionStore)
	decisions.On("StoreDecision", mock.Anything, mock.Anything).Return(nil)

	applier := new(mockActionApplier)
	applier.On("Apply", mock.Anything, mock.Anything).Return(assert.AnError)

	process := newPipeline(
		[]models.Rule{matchingRule(models.RuleAction{CommentTemplate: "seen it"})},
		nil, nil, timers, decisions)
	uc := NewPollTicketsUsecase([]RecordSupplier{supplier}, process, applier, 1)

	report, err := uc.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Decided)
}
