package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// TicketService issues per-day, per-service sequential tickets.
type TicketService struct {
	services   repository.ServiceTypeRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	clock      Clock
	// retryAttempts bounds internal retries when a concurrent issuer
	// claims the same sequence number first.
	retryAttempts int

	mu        sync.Mutex
	issueLock map[string]*sync.Mutex
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	ServiceRepo   repository.ServiceTypeRepository
	TicketRepo    repository.TicketRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Clock         Clock
	RetryAttempts int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	attempts := deps.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	clock := deps.Clock
	if clock == nil {
		clock = NewSystemClock(time.Local)
	}
	return &TicketService{
		services:      deps.ServiceRepo,
		tickets:       deps.TicketRepo,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		clock:         clock,
		retryAttempts: attempts,
		issueLock:     make(map[string]*sync.Mutex),
	}
}

// IssueTicket allocates the next sequence number for the service's
// queue today and persists the ticket. The count-then-insert section
// runs under a per-(service, day) lock; the storage layer's uniqueness
// constraint backstops multi-process deployments, with a bounded retry
// before Conflict reaches the caller.
func (s *TicketService) IssueTicket(ctx context.Context, serviceCode string) (*domain.Ticket, error) {
	serviceCode = strings.TrimSpace(serviceCode)
	if serviceCode == "" {
		return nil, apperrors.NewValidationError("service_code required", nil)
	}
	serviceType, err := s.services.GetByCode(ctx, serviceCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service", map[string]any{"service_code": serviceCode})
		}
		return nil, apperrors.MapError(err)
	}

	now := s.clock.Now()
	day := domain.DayOf(now, s.clock.Location())

	lock := s.lockFor(serviceType.Code, day)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		count, err := s.tickets.CountForDay(ctx, serviceType.Code, day)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket := &domain.Ticket{
			ServiceCode:    serviceType.Code,
			SequenceNumber: count + 1,
			IssuedDay:      day,
			IssuedAt:       now,
			DisplayNumber:  domain.FormatDisplayNumber(serviceType.Code, count+1),
		}
		if err := s.tickets.Insert(ctx, ticket); err != nil {
			if isSequenceConflict(err) {
				lastErr = err
				continue
			}
			return nil, apperrors.MapError(err)
		}
		s.metrics.RecordTicketIssued(ticket.ServiceCode)
		s.publishIssued(ctx, ticket)
		return ticket, nil
	}
	details := map[string]any{
		"service_code": serviceCode,
		"attempts":     s.retryAttempts,
	}
	if lastErr != nil {
		details["last_error"] = lastErr.Error()
	}
	return nil, apperrors.NewConflict("could not allocate ticket number", details)
}

// ListPending returns today's unassigned tickets in dispatch order,
// optionally restricted to one service.
func (s *TicketService) ListPending(ctx context.Context, serviceCode *string) ([]domain.Ticket, error) {
	if serviceCode != nil {
		trimmed := strings.TrimSpace(*serviceCode)
		if trimmed == "" {
			serviceCode = nil
		} else {
			if _, err := s.services.GetByCode(ctx, trimmed); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewNotFound("service", map[string]any{"service_code": trimmed})
				}
				return nil, apperrors.MapError(err)
			}
			serviceCode = &trimmed
		}
	}
	day := domain.DayOf(s.clock.Now(), s.clock.Location())
	tickets, err := s.tickets.ListPending(ctx, serviceCode, day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) lockFor(serviceCode string, day time.Time) *sync.Mutex {
	key := serviceCode + "|" + domain.DayKey(day)
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, exists := s.issueLock[key]
	if !exists {
		lock = &sync.Mutex{}
		s.issueLock[key] = lock
	}
	return lock
}

func isSequenceConflict(err error) bool {
	return apperrors.IsUniqueViolation(err) || apperrors.IsCode(err, "CONFLICT")
}

func (s *TicketService) publishIssued(ctx context.Context, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketIssued,
		Actor:     events.Actor{Role: domain.RoleIntake},
		Timestamp: ticket.IssuedAt,
		Payload: events.TicketIssuedPayload{
			TicketID:       ticket.ID,
			ServiceCode:    ticket.ServiceCode,
			SequenceNumber: ticket.SequenceNumber,
			DisplayNumber:  ticket.DisplayNumber,
			IssuedAt:       ticket.IssuedAt,
		},
	})
}
