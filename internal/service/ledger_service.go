package service

import (
	"context"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// CallRecord is an assignment enriched with board-facing fields.
type CallRecord struct {
	Assignment    domain.Assignment
	DisplayNumber string
	ServiceName   string
}

// LedgerService exposes read-only projections over the assignment
// history for boards and dashboards.
type LedgerService struct {
	assignments repository.AssignmentRepository
	tickets     repository.TicketRepository
	services    repository.ServiceTypeRepository
	clock       Clock
	recentLimit int
}

// LedgerDependencies bundles collaborators.
type LedgerDependencies struct {
	AssignmentRepo repository.AssignmentRepository
	TicketRepo     repository.TicketRepository
	ServiceRepo    repository.ServiceTypeRepository
	Clock          Clock
	RecentLimit    int
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	clock := deps.Clock
	if clock == nil {
		clock = NewSystemClock(time.Local)
	}
	limit := deps.RecentLimit
	if limit <= 0 {
		limit = 5
	}
	return &LedgerService{
		assignments: deps.AssignmentRepo,
		tickets:     deps.TicketRepo,
		services:    deps.ServiceRepo,
		clock:       clock,
		recentLimit: limit,
	}
}

// RecentCalls returns today's latest assignments, most recent first,
// with ticket display numbers resolved for the boards.
func (s *LedgerService) RecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	day := domain.DayOf(s.clock.Now(), s.clock.Location())
	assignments, err := s.assignments.ListRecent(ctx, limit, &day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	records := make([]CallRecord, 0, len(assignments))
	for _, assignment := range assignments {
		record := CallRecord{Assignment: assignment}
		if ticket, err := s.tickets.GetByID(ctx, assignment.TicketID); err == nil {
			record.DisplayNumber = ticket.DisplayNumber
			record.ServiceName = ticket.ServiceCode
			if serviceType, err := s.services.GetByCode(ctx, ticket.ServiceCode); err == nil {
				record.ServiceName = serviceType.DisplayName
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// CountPendingToday reports how many clients are still waiting.
func (s *LedgerService) CountPendingToday(ctx context.Context, serviceCode *string) (int, error) {
	day := domain.DayOf(s.clock.Now(), s.clock.Location())
	pending, err := s.tickets.ListPending(ctx, serviceCode, day)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return len(pending), nil
}

// AggregateByPeriod counts assignments per calendar month over the
// range. Defaults to the trailing twelve months.
func (s *LedgerService) AggregateByPeriod(ctx context.Context, from, to *time.Time) ([]domain.MonthlyCount, error) {
	start, end, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	counts, err := s.assignments.CountByMonth(ctx, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

// AggregateByService counts assignments per service over the range,
// busiest first.
func (s *LedgerService) AggregateByService(ctx context.Context, from, to *time.Time) ([]domain.ServiceCount, error) {
	start, end, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	counts, err := s.assignments.CountByService(ctx, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

func (s *LedgerService) resolveRange(from, to *time.Time) (time.Time, time.Time, error) {
	end := s.clock.Now()
	if to != nil {
		end = *to
	}
	start := end.AddDate(-1, 0, 0)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid date range", map[string]any{
			"from": start.Format(time.RFC3339),
			"to":   end.Format(time.RFC3339),
		})
	}
	return start, end, nil
}
