package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// AttendantService tracks attendant availability and eligibility.
type AttendantService struct {
	attendants repository.AttendantRepository
	services   repository.ServiceTypeRepository
	dispatcher events.Dispatcher
}

// AttendantDependencies bundles collaborators.
type AttendantDependencies struct {
	AttendantRepo repository.AttendantRepository
	ServiceRepo   repository.ServiceTypeRepository
	Dispatcher    events.Dispatcher
}

// NewAttendantService constructs the service.
func NewAttendantService(deps AttendantDependencies) *AttendantService {
	return &AttendantService{
		attendants: deps.AttendantRepo,
		services:   deps.ServiceRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CandidateLess orders dispatch candidates. Selection must be
// deterministic, so candidates sort by attendant id regardless of
// storage collection order.
func CandidateLess(a, b domain.Attendant) bool {
	return a.ID < b.ID
}

// SortCandidates applies the candidate ordering in place.
func SortCandidates(attendants []domain.Attendant) {
	sort.Slice(attendants, func(i, j int) bool {
		return CandidateLess(attendants[i], attendants[j])
	})
}

// SetAvailability applies a self-reported availability transition. The
// write carries the version the caller last read; a version older than
// the stored one fails with Conflict so a dispatch-driven BUSY cannot
// be clobbered by a stale report.
func (s *AttendantService) SetAvailability(ctx context.Context, attendantID string, state domain.Availability, version int64) (*domain.Attendant, error) {
	if !domain.ValidAvailability(state) {
		return nil, apperrors.NewValidationError("unknown availability state", map[string]any{
			"state": string(state),
		})
	}
	current, err := s.attendants.GetByID(ctx, attendantID)
	if err != nil {
		return nil, s.mapAttendantErr(err, attendantID)
	}
	oldState := current.Availability

	updated, err := s.attendants.UpdateAvailability(ctx, attendantID, state, version)
	if err != nil {
		return nil, s.mapAttendantErr(err, attendantID)
	}
	s.publishAvailabilityChanged(ctx, updated, oldState)
	return updated, nil
}

// FindEligibleAvailable returns available attendants eligible for the
// service, in deterministic candidate order.
func (s *AttendantService) FindEligibleAvailable(ctx context.Context, serviceCode string) ([]domain.Attendant, error) {
	serviceCode = strings.TrimSpace(serviceCode)
	if serviceCode == "" {
		return nil, apperrors.NewValidationError("service_code required", nil)
	}
	if _, err := s.services.GetByCode(ctx, serviceCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service", map[string]any{"service_code": serviceCode})
		}
		return nil, apperrors.MapError(err)
	}
	candidates, err := s.attendants.ListEligibleAvailable(ctx, serviceCode)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	SortCandidates(candidates)
	return candidates, nil
}

// Register creates an attendant record for an approved account.
func (s *AttendantService) Register(ctx context.Context, name string, eligibleServices []string, desk domain.Desk) (*domain.Attendant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if err := s.validateServiceCodes(ctx, eligibleServices); err != nil {
		return nil, err
	}
	attendant := &domain.Attendant{
		Name:             name,
		EligibleServices: eligibleServices,
		Availability:     domain.AvailabilityOffline,
		Desk:             desk,
	}
	if err := s.attendants.Create(ctx, attendant); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attendant, nil
}

// Remove deletes an attendant and its availability/eligibility/desk
// records. The assignment ledger keeps its historical references.
func (s *AttendantService) Remove(ctx context.Context, attendantID string) error {
	if err := s.attendants.Delete(ctx, attendantID); err != nil {
		return s.mapAttendantErr(err, attendantID)
	}
	return nil
}

// Get fetches a single attendant.
func (s *AttendantService) Get(ctx context.Context, attendantID string) (*domain.Attendant, error) {
	attendant, err := s.attendants.GetByID(ctx, attendantID)
	if err != nil {
		return nil, s.mapAttendantErr(err, attendantID)
	}
	return attendant, nil
}

// List returns all attendants ordered by id.
func (s *AttendantService) List(ctx context.Context) ([]domain.Attendant, error) {
	attendants, err := s.attendants.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attendants, nil
}

// SetEligibility replaces the set of services an attendant may serve.
func (s *AttendantService) SetEligibility(ctx context.Context, attendantID string, serviceCodes []string) (*domain.Attendant, error) {
	if err := s.validateServiceCodes(ctx, serviceCodes); err != nil {
		return nil, err
	}
	attendant, err := s.attendants.UpdateEligibility(ctx, attendantID, serviceCodes)
	if err != nil {
		return nil, s.mapAttendantErr(err, attendantID)
	}
	return attendant, nil
}

// SetDesk updates the attendant's counter descriptor.
func (s *AttendantService) SetDesk(ctx context.Context, attendantID string, desk domain.Desk) (*domain.Attendant, error) {
	if strings.TrimSpace(desk.Label) == "" {
		return nil, apperrors.NewValidationError("desk label required", nil)
	}
	attendant, err := s.attendants.UpdateDesk(ctx, attendantID, desk)
	if err != nil {
		return nil, s.mapAttendantErr(err, attendantID)
	}
	return attendant, nil
}

func (s *AttendantService) validateServiceCodes(ctx context.Context, serviceCodes []string) error {
	for _, code := range serviceCodes {
		if _, err := s.services.GetByCode(ctx, code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("service", map[string]any{"service_code": code})
			}
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (s *AttendantService) mapAttendantErr(err error, attendantID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("attendant", map[string]any{"attendant_id": attendantID})
	}
	return apperrors.MapError(err)
}

func (s *AttendantService) publishAvailabilityChanged(ctx context.Context, attendant *domain.Attendant, oldState domain.Availability) {
	if s.dispatcher == nil {
		return
	}
	attendantID := attendant.ID
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAvailabilityChanged,
		Actor:     events.Actor{Role: domain.RoleBox, AttendantID: &attendantID},
		Timestamp: time.Now(),
		Payload: events.AvailabilityChangedPayload{
			AttendantID: attendant.ID,
			OldState:    oldState,
			NewState:    attendant.Availability,
			Version:     attendant.Version,
		},
	})
}
