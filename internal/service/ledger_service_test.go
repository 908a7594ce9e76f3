package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

func newLedgerFixture(t *testing.T) (*repository.MemoryStore, *TicketService, *DispatchService, *LedgerService) {
	t.Helper()
	clock := newFixedClock(time.Now())
	store, tickets, dispatch := newDispatchFixture(t, clock)
	ledger := NewLedgerService(LedgerDependencies{
		AssignmentRepo: store.Assignments(),
		TicketRepo:     store.Tickets(),
		ServiceRepo:    store.ServiceTypes(),
		Clock:          clock,
		RecentLimit:    5,
	})
	return store, tickets, dispatch, ledger
}

func TestRecentCallsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, tickets, dispatch, ledger := newLedgerFixture(t)
	seedAttendant(t, store, "att-1", []string{"REG", "PAY"}, domain.AvailabilityAvailable)

	var called []string
	for _, code := range []string{"REG", "PAY", "REG"} {
		ticket, err := tickets.IssueTicket(ctx, code)
		require.NoError(t, err)
		_, _, err = dispatch.DispatchNext(ctx, nil)
		require.NoError(t, err)
		called = append(called, ticket.DisplayNumber)

		// Free the attendant for the next call.
		current, err := store.Attendants().GetByID(ctx, "att-1")
		require.NoError(t, err)
		_, err = store.Attendants().UpdateAvailability(ctx, "att-1", domain.AvailabilityAvailable, current.Version)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	records, err := ledger.RecentCalls(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, called[2], records[0].DisplayNumber)
	assert.Equal(t, called[1], records[1].DisplayNumber)
	assert.Equal(t, called[0], records[2].DisplayNumber)
	assert.Equal(t, "Payments", records[1].ServiceName)

	records, err = ledger.RecentCalls(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, called[2], records[0].DisplayNumber)
}

func TestCountPendingToday(t *testing.T) {
	ctx := context.Background()
	store, tickets, dispatch, ledger := newLedgerFixture(t)
	seedAttendant(t, store, "att-1", []string{"REG"}, domain.AvailabilityAvailable)

	for i := 0; i < 3; i++ {
		_, err := tickets.IssueTicket(ctx, "REG")
		require.NoError(t, err)
	}

	count, err := ledger.CountPendingToday(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, _, err = dispatch.DispatchNext(ctx, nil)
	require.NoError(t, err)

	count, err = ledger.CountPendingToday(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAggregateByService(t *testing.T) {
	ctx := context.Background()
	store, tickets, dispatch, ledger := newLedgerFixture(t)
	seedAttendant(t, store, "att-1", []string{"REG", "PAY"}, domain.AvailabilityAvailable)

	for _, code := range []string{"REG", "REG", "PAY"} {
		_, err := tickets.IssueTicket(ctx, code)
		require.NoError(t, err)
		_, _, err = dispatch.DispatchNext(ctx, nil)
		require.NoError(t, err)

		current, err := store.Attendants().GetByID(ctx, "att-1")
		require.NoError(t, err)
		_, err = store.Attendants().UpdateAvailability(ctx, "att-1", domain.AvailabilityAvailable, current.Version)
		require.NoError(t, err)
	}

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	counts, err := ledger.AggregateByService(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Registration", counts[0].ServiceName)
	assert.Equal(t, int64(2), counts[0].Count)
	assert.Equal(t, "Payments", counts[1].ServiceName)
	assert.Equal(t, int64(1), counts[1].Count)
}

func TestAggregateByPeriod(t *testing.T) {
	ctx := context.Background()
	store, tickets, dispatch, ledger := newLedgerFixture(t)
	seedAttendant(t, store, "att-1", []string{"REG"}, domain.AvailabilityAvailable)

	_, err := tickets.IssueTicket(ctx, "REG")
	require.NoError(t, err)
	_, _, err = dispatch.DispatchNext(ctx, nil)
	require.NoError(t, err)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	counts, err := ledger.AggregateByPeriod(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	now := time.Now()
	assert.Equal(t, now.Year(), counts[0].Year)
	assert.Equal(t, now.Month(), counts[0].Month)
	assert.Equal(t, int64(1), counts[0].Count)
	assert.NotEmpty(t, counts[0].Label())
}

func TestAggregateInvalidRange(t *testing.T) {
	_, _, _, ledger := newLedgerFixture(t)

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err := ledger.AggregateByPeriod(context.Background(), &from, &to)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))

	_, err = ledger.AggregateByService(context.Background(), &from, &to)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}
