package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

func day(t time.Time) time.Time {
	return domain.DayOf(t, time.UTC)
}

func TestMemoryTicketSequenceUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := &domain.Ticket{ServiceCode: "REG", SequenceNumber: 1, IssuedDay: day(now), IssuedAt: now}
	require.NoError(t, store.Tickets().Insert(ctx, first))
	assert.NotEmpty(t, first.ID)

	dup := &domain.Ticket{ServiceCode: "REG", SequenceNumber: 1, IssuedDay: day(now), IssuedAt: now}
	err := store.Tickets().Insert(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	// Same number on another day or service is fine.
	otherDay := &domain.Ticket{ServiceCode: "REG", SequenceNumber: 1, IssuedDay: day(now.AddDate(0, 0, 1)), IssuedAt: now.AddDate(0, 0, 1)}
	require.NoError(t, store.Tickets().Insert(ctx, otherDay))
	otherService := &domain.Ticket{ServiceCode: "PAY", SequenceNumber: 1, IssuedDay: day(now), IssuedAt: now}
	require.NoError(t, store.Tickets().Insert(ctx, otherService))

	count, err := store.Tickets().CountForDay(ctx, "REG", day(now))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryAssignAtomicity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	ticket := &domain.Ticket{ServiceCode: "REG", SequenceNumber: 1, IssuedDay: day(now), IssuedAt: now}
	require.NoError(t, store.Tickets().Insert(ctx, ticket))
	attendant := &domain.Attendant{
		ID:               "att-1",
		Name:             "Alex",
		EligibleServices: []string{"REG"},
		Availability:     domain.AvailabilityAvailable,
		Desk:             domain.Desk{Label: "Box", Number: "1"},
	}
	require.NoError(t, store.Attendants().Create(ctx, attendant))

	// Many racing dispatchers; exactly one claims the pair.
	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan *domain.Assignment, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if assignment, err := store.Assignments().Assign(ctx, ticket, attendant); err == nil {
				wins <- assignment
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []*domain.Assignment
	for assignment := range wins {
		winners = append(winners, assignment)
	}
	require.Len(t, winners, 1)
	assert.Equal(t, ticket.ID, winners[0].TicketID)

	stored, err := store.Attendants().GetByID(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityBusy, stored.Availability)

	assigned, err := store.Assignments().HasAssignment(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, assigned)
}

func TestMemoryAssignRejectsUnavailableAttendant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	ticket := &domain.Ticket{ServiceCode: "REG", SequenceNumber: 1, IssuedDay: day(now), IssuedAt: now}
	require.NoError(t, store.Tickets().Insert(ctx, ticket))
	attendant := &domain.Attendant{
		ID:           "att-1",
		Name:         "Alex",
		Availability: domain.AvailabilityBusy,
		Desk:         domain.Desk{Label: "Box", Number: "1"},
	}
	require.NoError(t, store.Attendants().Create(ctx, attendant))

	_, err := store.Assignments().Assign(ctx, ticket, attendant)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	// The failed claim left the ticket pending.
	pending, err := store.Tickets().ListPending(ctx, nil, day(now))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ticket.ID, pending[0].ID)
}

func TestMemoryUpdateAvailabilityOptimistic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	attendant := &domain.Attendant{ID: "att-1", Name: "Alex"}
	require.NoError(t, store.Attendants().Create(ctx, attendant))

	updated, err := store.Attendants().UpdateAvailability(ctx, "att-1", domain.AvailabilityAvailable, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)

	_, err = store.Attendants().UpdateAvailability(ctx, "att-1", domain.AvailabilityOffline, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestMemoryListRecentHonorsLimitAndSince(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		ticket := &domain.Ticket{ServiceCode: "REG", SequenceNumber: i, IssuedDay: day(now), IssuedAt: now}
		require.NoError(t, store.Tickets().Insert(ctx, ticket))
		attendant := &domain.Attendant{
			Name:         "Alex",
			Availability: domain.AvailabilityAvailable,
			Desk:         domain.Desk{Label: "Box", Number: "1"},
		}
		require.NoError(t, store.Attendants().Create(ctx, attendant))
		_, err := store.Assignments().Assign(ctx, ticket, attendant)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := store.Assignments().ListRecent(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))

	future := time.Now().Add(time.Hour)
	none, err := store.Assignments().ListRecent(ctx, 10, &future)
	require.NoError(t, err)
	assert.Empty(t, none)
}
