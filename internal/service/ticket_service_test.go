package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// fixedClock pins the queue day for tests.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now, loc: now.Location()}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Location() *time.Location {
	return c.loc
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func seedService(t *testing.T, store *repository.MemoryStore, code, name string) {
	t.Helper()
	err := store.ServiceTypes().Create(context.Background(), &domain.ServiceType{
		Code:        code,
		DisplayName: name,
	})
	require.NoError(t, err)
}

func newTicketService(store *repository.MemoryStore, clock Clock) *TicketService {
	return NewTicketService(TicketDependencies{
		ServiceRepo: store.ServiceTypes(),
		TicketRepo:  store.Tickets(),
		Dispatcher:  events.NewInMemoryDispatcher(nil),
		Clock:       clock,
	})
}

func TestIssueTicketSequencesPerServicePerDay(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedService(t, store, "REG", "Registration")
	seedService(t, store, "PAY", "Payments")
	clock := newFixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTicketService(store, clock)

	for i := 1; i <= 3; i++ {
		ticket, err := svc.IssueTicket(ctx, "REG")
		require.NoError(t, err)
		assert.Equal(t, i, ticket.SequenceNumber)
		assert.Equal(t, domain.FormatDisplayNumber("REG", i), ticket.DisplayNumber)
	}

	// An independent queue keeps its own counter.
	ticket, err := svc.IssueTicket(ctx, "PAY")
	require.NoError(t, err)
	assert.Equal(t, 1, ticket.SequenceNumber)
	assert.Equal(t, "PAY-1", ticket.DisplayNumber)

	ticket, err = svc.IssueTicket(ctx, "REG")
	require.NoError(t, err)
	assert.Equal(t, 4, ticket.SequenceNumber)
}

func TestIssueTicketUnknownService(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTicketService(store, newFixedClock(time.Now()))

	_, err := svc.IssueTicket(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestIssueTicketBlankService(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTicketService(store, newFixedClock(time.Now()))

	_, err := svc.IssueTicket(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestIssueTicketConcurrentNoGapsNoDuplicates(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedService(t, store, "REG", "Registration")
	svc := newTicketService(store, newFixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	const issuers = 50
	sequences := make(chan int, issuers)
	var wg sync.WaitGroup
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := svc.IssueTicket(ctx, "REG")
			if err != nil {
				t.Error(err)
				return
			}
			sequences <- ticket.SequenceNumber
		}()
	}
	wg.Wait()
	close(sequences)

	seen := map[int]bool{}
	for seq := range sequences {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	require.Len(t, seen, issuers)
	for i := 1; i <= issuers; i++ {
		assert.True(t, seen[i], "missing sequence %d", i)
	}
}

func TestIssueTicketNewDayResetsSequence(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedService(t, store, "REG", "Registration")
	clock := newFixedClock(time.Date(2026, 3, 10, 23, 50, 0, 0, time.UTC))
	svc := newTicketService(store, clock)

	first, err := svc.IssueTicket(ctx, "REG")
	require.NoError(t, err)
	second, err := svc.IssueTicket(ctx, "REG")
	require.NoError(t, err)
	assert.Equal(t, 1, first.SequenceNumber)
	assert.Equal(t, 2, second.SequenceNumber)

	clock.Set(time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC))

	ticket, err := svc.IssueTicket(ctx, "REG")
	require.NoError(t, err)
	assert.Equal(t, 1, ticket.SequenceNumber)
	assert.Equal(t, "REG-1", ticket.DisplayNumber)

	// Yesterday's tickets no longer show in today's pending pool.
	pending, err := svc.ListPending(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ticket.ID, pending[0].ID)
}

func TestListPendingOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedService(t, store, "REG", "Registration")
	seedService(t, store, "PAY", "Payments")
	clock := newFixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTicketService(store, clock)

	first, err := svc.IssueTicket(ctx, "REG")
	require.NoError(t, err)
	clock.Set(clock.Now().Add(time.Minute))
	second, err := svc.IssueTicket(ctx, "PAY")
	require.NoError(t, err)
	clock.Set(clock.Now().Add(time.Minute))
	third, err := svc.IssueTicket(ctx, "REG")
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	assert.Equal(t, third.ID, pending[2].ID)

	reg := "REG"
	pending, err = svc.ListPending(ctx, &reg)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)
}

func TestListPendingUnknownService(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTicketService(store, newFixedClock(time.Now()))

	code := "NOPE"
	_, err := svc.ListPending(context.Background(), &code)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
