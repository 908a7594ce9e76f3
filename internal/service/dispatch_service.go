package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// DispatchService matches the oldest pending ticket to an eligible
// available attendant. It holds no state of its own: it reads the
// ticket pool and the attendant registry and writes one assignment.
type DispatchService struct {
	tickets     repository.TicketRepository
	attendants  repository.AttendantRepository
	assignments repository.AssignmentRepository
	services    repository.ServiceTypeRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	clock       Clock
}

// DispatchDependencies bundles collaborators.
type DispatchDependencies struct {
	TicketRepo     repository.TicketRepository
	AttendantRepo  repository.AttendantRepository
	AssignmentRepo repository.AssignmentRepository
	ServiceRepo    repository.ServiceTypeRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Clock          Clock
}

// NewDispatchService constructs the service.
func NewDispatchService(deps DispatchDependencies) *DispatchService {
	clock := deps.Clock
	if clock == nil {
		clock = NewSystemClock(time.Local)
	}
	return &DispatchService{
		tickets:     deps.TicketRepo,
		attendants:  deps.AttendantRepo,
		assignments: deps.AssignmentRepo,
		services:    deps.ServiceRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		clock:       clock,
	}
}

// DispatchNext assigns the oldest pending ticket of the day to the
// first eligible available attendant. Matching policy is
// first-eligible-available in candidate order, not load-balanced. The
// attendant's BUSY transition and the ledger append commit together;
// on any failure the ticket stays pending and is re-attempted on the
// next call.
func (s *DispatchService) DispatchNext(ctx context.Context, serviceCode *string) (*domain.Assignment, *domain.Ticket, error) {
	if serviceCode != nil && strings.TrimSpace(*serviceCode) == "" {
		serviceCode = nil
	}
	day := domain.DayOf(s.clock.Now(), s.clock.Location())

	pending, err := s.tickets.ListPending(ctx, serviceCode, day)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if len(pending) == 0 {
		details := map[string]any{}
		if serviceCode != nil {
			details["service_code"] = *serviceCode
		}
		return nil, nil, apperrors.NewNotFound("pending ticket", details)
	}
	ticket := pending[0]

	candidates, err := s.attendants.ListEligibleAvailable(ctx, ticket.ServiceCode)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	SortCandidates(candidates)
	if len(candidates) == 0 {
		return nil, nil, apperrors.NewNotFound("eligible attendant", map[string]any{
			"service_code": ticket.ServiceCode,
			"ticket_id":    ticket.ID,
		})
	}
	attendant := candidates[0]
	if strings.TrimSpace(attendant.Desk.Label) == "" {
		return nil, nil, apperrors.NewNotFound("desk", map[string]any{
			"attendant_id": attendant.ID,
		})
	}

	assignment, err := s.assignments.Assign(ctx, &ticket, &attendant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("attendant", map[string]any{"attendant_id": attendant.ID})
		}
		return nil, nil, apperrors.MapError(err)
	}

	s.metrics.RecordDispatch()
	s.publishClientCalled(ctx, assignment, &ticket)
	return assignment, &ticket, nil
}

func (s *DispatchService) publishClientCalled(ctx context.Context, assignment *domain.Assignment, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	serviceName := ticket.ServiceCode
	if serviceType, err := s.services.GetByCode(ctx, ticket.ServiceCode); err == nil {
		serviceName = serviceType.DisplayName
	}
	attendantID := assignment.AttendantID
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventClientCalled,
		Actor:     events.Actor{Role: domain.RoleBox, AttendantID: &attendantID},
		Timestamp: assignment.CreatedAt,
		Payload: events.ClientCalledPayload{
			AssignmentID:  assignment.ID,
			TicketID:      ticket.ID,
			DisplayNumber: ticket.DisplayNumber,
			ServiceName:   serviceName,
			AttendantID:   assignment.AttendantID,
			Desk:          assignment.Desk,
			CalledAt:      assignment.CreatedAt,
		},
	})
}
