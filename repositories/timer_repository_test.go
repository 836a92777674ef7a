package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransactionFactory runs the callback directly against the mock,
// bypassing the real BeginFunc plumbing.
type fakeTransactionFactory struct {
	exec pgxmock.PgxPoolIface
}

func (f fakeTransactionFactory) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	return fn(f.exec)
}

func (f fakeTransactionFactory) GetExecutor() Executor {
	return f.exec
}

var timerColumns = []string{
	"ticket_key", "rule_id", "started_at", "duration_seconds",
	"assignee_snapshot", "status_snapshot", "state",
}

func timerRow(mockPool pgxmock.PgxPoolIface, startedAt time.Time, state string) *pgxmock.Rows {
	return mockPool.NewRows(timerColumns).
		AddRow("T1", "R1", startedAt, 600, "alice", "Open", state)
}

func TestTimerLifecycle(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTimerRepository(fakeTransactionFactory{exec: mockPool})
	ctx := context.Background()

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Start a 600s timer at t=0.
	mockPool.ExpectExec("INSERT INTO timers").
		WithArgs("T1", "R1", t0, 600, "alice", "Open", "active").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.StartTimer(ctx, "T1", "R1", 600*time.Second, "alice", "Open", t0))

	// t=300: still active, whole ticket suppressed.
	mockPool.ExpectQuery("SELECT (.+) FROM timers WHERE ticket_key").
		WithArgs("T1").
		WillReturnRows(timerRow(mockPool, t0, "active"))

	observation, err := repo.ObserveTicket(ctx, "T1", "alice", "Open", t0.Add(300*time.Second))
	require.NoError(t, err)
	assert.True(t, observation.TicketSuppressed)
	assert.Empty(t, observation.ExpiredRuleIds)

	// t=700: expired, reported for the first time, left pending.
	mockPool.ExpectQuery("SELECT (.+) FROM timers WHERE ticket_key").
		WithArgs("T1").
		WillReturnRows(timerRow(mockPool, t0, "active"))
	mockPool.ExpectExec("UPDATE timers SET state").
		WithArgs("expired_pending", "R1", "T1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	observation, err = repo.ObserveTicket(ctx, "T1", "alice", "Open", t0.Add(700*time.Second))
	require.NoError(t, err)
	assert.False(t, observation.TicketSuppressed)
	assert.Equal(t, []string{"R1"}, observation.ExpiredRuleIds)
	assert.Equal(t, []string{"R1"}, observation.NewlyExpiredRuleIds)

	// t=800: already reported, consumed, but the signal still carries R1.
	mockPool.ExpectQuery("SELECT (.+) FROM timers WHERE ticket_key").
		WithArgs("T1").
		WillReturnRows(timerRow(mockPool, t0, "expired_pending"))
	mockPool.ExpectExec("UPDATE timers SET state").
		WithArgs("expired_consumed", "R1", "T1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	observation, err = repo.ObserveTicket(ctx, "T1", "alice", "Open", t0.Add(800*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"R1"}, observation.ExpiredRuleIds)
	assert.Empty(t, observation.NewlyExpiredRuleIds)

	// t=900: assignee changed, the snapshot invalidates the record.
	mockPool.ExpectQuery("SELECT (.+) FROM timers WHERE ticket_key").
		WithArgs("T1").
		WillReturnRows(timerRow(mockPool, t0, "expired_consumed"))
	mockPool.ExpectExec("DELETE FROM timers").
		WithArgs("R1", "T1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	observation, err = repo.ObserveTicket(ctx, "T1", "bob", "Open", t0.Add(900*time.Second))
	require.NoError(t, err)
	assert.False(t, observation.TicketSuppressed)
	assert.Empty(t, observation.ExpiredRuleIds)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestObserveTicketWithoutTimers(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTimerRepository(fakeTransactionFactory{exec: mockPool})

	mockPool.ExpectQuery("SELECT (.+) FROM timers WHERE ticket_key").
		WithArgs("T9").
		WillReturnRows(mockPool.NewRows(timerColumns))

	observation, err := repo.ObserveTicket(context.Background(), "T9", "alice", "Open", time.Now())
	require.NoError(t, err)
	assert.False(t, observation.TicketSuppressed)
	assert.Empty(t, observation.ExpiredRuleIds)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
