package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// MemoryStore is an in-process implementation of all repository
// interfaces. It backs the service when no postgres DSN is configured
// and the test suites. A single mutex guards every mutation, which
// gives the dispatch write the same all-or-nothing behavior as the
// postgres transaction.
type MemoryStore struct {
	mu          sync.Mutex
	services    map[string]domain.ServiceType
	tickets     map[string]domain.Ticket
	attendants  map[string]domain.Attendant
	assignments map[string]domain.Assignment
	// sequence index guards uniqueness of (code, day, sequence).
	sequenceIndex map[string]struct{}
	// assignedTickets guards uniqueness of assignment.ticket_id.
	assignedTickets map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services:        map[string]domain.ServiceType{},
		tickets:         map[string]domain.Ticket{},
		attendants:      map[string]domain.Attendant{},
		assignments:     map[string]domain.Assignment{},
		sequenceIndex:   map[string]struct{}{},
		assignedTickets: map[string]string{},
	}
}

// The repository interfaces overlap in method names, so the store
// exposes one view per interface.

// ServiceTypes returns the store's ServiceTypeRepository view.
func (s *MemoryStore) ServiceTypes() ServiceTypeRepository { return memoryServiceTypes{store: s} }

// Tickets returns the store's TicketRepository view.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{store: s} }

// Attendants returns the store's AttendantRepository view.
func (s *MemoryStore) Attendants() AttendantRepository { return memoryAttendants{store: s} }

// Assignments returns the store's AssignmentRepository view.
func (s *MemoryStore) Assignments() AssignmentRepository { return memoryAssignments{store: s} }

type memoryServiceTypes struct{ store *MemoryStore }

func (m memoryServiceTypes) Create(ctx context.Context, service *domain.ServiceType) error {
	return m.store.createService(ctx, service)
}
func (m memoryServiceTypes) Delete(ctx context.Context, code string) error {
	return m.store.deleteService(ctx, code)
}
func (m memoryServiceTypes) GetByCode(ctx context.Context, code string) (*domain.ServiceType, error) {
	return m.store.getService(ctx, code)
}
func (m memoryServiceTypes) List(ctx context.Context) ([]domain.ServiceType, error) {
	return m.store.listServices(ctx)
}

type memoryTickets struct{ store *MemoryStore }

func (m memoryTickets) Insert(ctx context.Context, ticket *domain.Ticket) error {
	return m.store.insertTicket(ctx, ticket)
}
func (m memoryTickets) CountForDay(ctx context.Context, serviceCode string, day time.Time) (int, error) {
	return m.store.countTicketsForDay(ctx, serviceCode, day)
}
func (m memoryTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return m.store.getTicket(ctx, id)
}
func (m memoryTickets) ListPending(ctx context.Context, serviceCode *string, day time.Time) ([]domain.Ticket, error) {
	return m.store.listPendingTickets(ctx, serviceCode, day)
}

type memoryAttendants struct{ store *MemoryStore }

func (m memoryAttendants) Create(ctx context.Context, attendant *domain.Attendant) error {
	return m.store.createAttendant(ctx, attendant)
}
func (m memoryAttendants) Delete(ctx context.Context, id string) error {
	return m.store.deleteAttendant(ctx, id)
}
func (m memoryAttendants) GetByID(ctx context.Context, id string) (*domain.Attendant, error) {
	return m.store.getAttendant(ctx, id)
}
func (m memoryAttendants) List(ctx context.Context) ([]domain.Attendant, error) {
	return m.store.listAttendants(ctx)
}
func (m memoryAttendants) ListEligibleAvailable(ctx context.Context, serviceCode string) ([]domain.Attendant, error) {
	return m.store.listEligibleAvailable(ctx, serviceCode)
}
func (m memoryAttendants) UpdateAvailability(ctx context.Context, id string, state domain.Availability, expectedVersion int64) (*domain.Attendant, error) {
	return m.store.updateAvailability(ctx, id, state, expectedVersion)
}
func (m memoryAttendants) UpdateEligibility(ctx context.Context, id string, serviceCodes []string) (*domain.Attendant, error) {
	return m.store.updateEligibility(ctx, id, serviceCodes)
}
func (m memoryAttendants) UpdateDesk(ctx context.Context, id string, desk domain.Desk) (*domain.Attendant, error) {
	return m.store.updateDesk(ctx, id, desk)
}

type memoryAssignments struct{ store *MemoryStore }

func (m memoryAssignments) Assign(ctx context.Context, ticket *domain.Ticket, attendant *domain.Attendant) (*domain.Assignment, error) {
	return m.store.assign(ctx, ticket, attendant)
}
func (m memoryAssignments) HasAssignment(ctx context.Context, ticketID string) (bool, error) {
	return m.store.hasAssignment(ctx, ticketID)
}
func (m memoryAssignments) ListRecent(ctx context.Context, limit int, since *time.Time) ([]domain.Assignment, error) {
	return m.store.listRecentAssignments(ctx, limit, since)
}
func (m memoryAssignments) CountByMonth(ctx context.Context, from, to time.Time) ([]domain.MonthlyCount, error) {
	return m.store.countByMonth(ctx, from, to)
}
func (m memoryAssignments) CountByService(ctx context.Context, from, to time.Time) ([]domain.ServiceCount, error) {
	return m.store.countByService(ctx, from, to)
}

var (
	_ ServiceTypeRepository = memoryServiceTypes{}
	_ TicketRepository      = memoryTickets{}
	_ AttendantRepository   = memoryAttendants{}
	_ AssignmentRepository  = memoryAssignments{}
)

func sequenceKey(serviceCode string, day time.Time, sequence int) string {
	return fmt.Sprintf("%s|%s|%d", serviceCode, domain.DayKey(day), sequence)
}

// --- ServiceTypeRepository ---

func (s *MemoryStore) createService(ctx context.Context, service *domain.ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.services[service.Code]; exists {
		return apperrors.NewConflict("service code already exists", map[string]any{"service_code": service.Code})
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now()
	}
	s.services[service.Code] = *service
	return nil
}

func (s *MemoryStore) deleteService(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.services[code]; !exists {
		return pgx.ErrNoRows
	}
	delete(s.services, code)
	return nil
}

func (s *MemoryStore) getService(ctx context.Context, code string) (*domain.ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	service, exists := s.services[code]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return &service, nil
}

func (s *MemoryStore) listServices(ctx context.Context) ([]domain.ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.ServiceType, 0, len(s.services))
	for _, service := range s.services {
		result = append(result, service)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// --- TicketRepository ---

func (s *MemoryStore) insertTicket(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sequenceKey(ticket.ServiceCode, ticket.IssuedDay, ticket.SequenceNumber)
	if _, exists := s.sequenceIndex[key]; exists {
		return apperrors.NewConflict("duplicate ticket number", map[string]any{
			"service_code":    ticket.ServiceCode,
			"sequence_number": ticket.SequenceNumber,
		})
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	s.sequenceIndex[key] = struct{}{}
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) countTicketsForDay(ctx context.Context, serviceCode string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	dayKey := domain.DayKey(day)
	for _, ticket := range s.tickets {
		if ticket.ServiceCode == serviceCode && domain.DayKey(ticket.IssuedDay) == dayKey {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, exists := s.tickets[id]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (s *MemoryStore) listPendingTickets(ctx context.Context, serviceCode *string, day time.Time) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPendingLocked(serviceCode, day), nil
}

func (s *MemoryStore) listPendingLocked(serviceCode *string, day time.Time) []domain.Ticket {
	dayKey := domain.DayKey(day)
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if domain.DayKey(ticket.IssuedDay) != dayKey {
			continue
		}
		if serviceCode != nil && ticket.ServiceCode != *serviceCode {
			continue
		}
		if _, assigned := s.assignedTickets[ticket.ID]; assigned {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].IssuedAt.Equal(result[j].IssuedAt) {
			return result[i].IssuedAt.Before(result[j].IssuedAt)
		}
		return result[i].SequenceNumber < result[j].SequenceNumber
	})
	return result
}

// --- AttendantRepository ---

func (s *MemoryStore) createAttendant(ctx context.Context, attendant *domain.Attendant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attendant.ID == "" {
		attendant.ID = uuid.NewString()
	}
	if attendant.Availability == "" {
		attendant.Availability = domain.AvailabilityOffline
	}
	if attendant.EligibleServices == nil {
		attendant.EligibleServices = []string{}
	}
	now := time.Now()
	attendant.CreatedAt = now
	attendant.UpdatedAt = now
	s.attendants[attendant.ID] = *attendant
	return nil
}

func (s *MemoryStore) deleteAttendant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.attendants[id]; !exists {
		return pgx.ErrNoRows
	}
	delete(s.attendants, id)
	return nil
}

func (s *MemoryStore) getAttendant(ctx context.Context, id string) (*domain.Attendant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attendant, exists := s.attendants[id]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return cloneAttendant(attendant), nil
}

func (s *MemoryStore) listAttendants(ctx context.Context) ([]domain.Attendant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Attendant, 0, len(s.attendants))
	for _, attendant := range s.attendants {
		result = append(result, *cloneAttendant(attendant))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) listEligibleAvailable(ctx context.Context, serviceCode string) ([]domain.Attendant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Attendant
	for _, attendant := range s.attendants {
		if attendant.Availability != domain.AvailabilityAvailable {
			continue
		}
		if !attendant.EligibleFor(serviceCode) {
			continue
		}
		result = append(result, *cloneAttendant(attendant))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) updateAvailability(ctx context.Context, id string, state domain.Availability, expectedVersion int64) (*domain.Attendant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attendant, exists := s.attendants[id]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	if attendant.Version != expectedVersion {
		return nil, apperrors.NewConflict("stale availability write", map[string]any{
			"attendant_id":     id,
			"expected_version": expectedVersion,
		})
	}
	attendant.Availability = state
	attendant.Version++
	attendant.UpdatedAt = time.Now()
	s.attendants[id] = attendant
	return cloneAttendant(attendant), nil
}

func (s *MemoryStore) updateEligibility(ctx context.Context, id string, serviceCodes []string) (*domain.Attendant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attendant, exists := s.attendants[id]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	if serviceCodes == nil {
		serviceCodes = []string{}
	}
	attendant.EligibleServices = append([]string{}, serviceCodes...)
	attendant.UpdatedAt = time.Now()
	s.attendants[id] = attendant
	return cloneAttendant(attendant), nil
}

func (s *MemoryStore) updateDesk(ctx context.Context, id string, desk domain.Desk) (*domain.Attendant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attendant, exists := s.attendants[id]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	attendant.Desk = desk
	attendant.UpdatedAt = time.Now()
	s.attendants[id] = attendant
	return cloneAttendant(attendant), nil
}

// --- AssignmentRepository ---

func (s *MemoryStore) assign(ctx context.Context, ticket *domain.Ticket, attendant *domain.Attendant) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.attendants[attendant.ID]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	if stored.Availability != domain.AvailabilityAvailable {
		return nil, apperrors.NewConflict("attendant no longer available", map[string]any{
			"attendant_id": attendant.ID,
		})
	}
	if _, assigned := s.assignedTickets[ticket.ID]; assigned {
		return nil, apperrors.NewConflict("ticket already assigned", map[string]any{
			"ticket_id": ticket.ID,
		})
	}

	stored.Availability = domain.AvailabilityBusy
	stored.Version++
	stored.UpdatedAt = time.Now()
	s.attendants[stored.ID] = stored

	assignment := domain.Assignment{
		ID:          uuid.NewString(),
		TicketID:    ticket.ID,
		AttendantID: stored.ID,
		Desk:        stored.Desk,
		CreatedAt:   time.Now(),
	}
	s.assignments[assignment.ID] = assignment
	s.assignedTickets[ticket.ID] = assignment.ID
	return &assignment, nil
}

func (s *MemoryStore) hasAssignment(ctx context.Context, ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, assigned := s.assignedTickets[ticketID]
	return assigned, nil
}

func (s *MemoryStore) listRecentAssignments(ctx context.Context, limit int, since *time.Time) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Assignment
	for _, assignment := range s.assignments {
		if since != nil && assignment.CreatedAt.Before(*since) {
			continue
		}
		result = append(result, assignment)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) countByMonth(ctx context.Context, from, to time.Time) ([]domain.MonthlyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := map[[2]int]int64{}
	for _, assignment := range s.assignments {
		if assignment.CreatedAt.Before(from) || assignment.CreatedAt.After(to) {
			continue
		}
		key := [2]int{assignment.CreatedAt.Year(), int(assignment.CreatedAt.Month())}
		buckets[key]++
	}
	var result []domain.MonthlyCount
	for key, count := range buckets {
		result = append(result, domain.MonthlyCount{Year: key[0], Month: time.Month(key[1]), Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func (s *MemoryStore) countByService(ctx context.Context, from, to time.Time) ([]domain.ServiceCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := map[string]int64{}
	for _, assignment := range s.assignments {
		if assignment.CreatedAt.Before(from) || assignment.CreatedAt.After(to) {
			continue
		}
		ticket, exists := s.tickets[assignment.TicketID]
		if !exists {
			continue
		}
		name := ticket.ServiceCode
		if service, ok := s.services[ticket.ServiceCode]; ok {
			name = service.DisplayName
		}
		buckets[name]++
	}
	var result []domain.ServiceCount
	for name, count := range buckets {
		result = append(result, domain.ServiceCount{ServiceName: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].ServiceName < result[j].ServiceName
	})
	return result, nil
}

func cloneAttendant(attendant domain.Attendant) *domain.Attendant {
	copied := attendant
	copied.EligibleServices = append([]string{}, attendant.EligibleServices...)
	return &copied
}
