package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// CatalogService administers the service type registry. The core
// reads it as immutable reference data; mutations come from the admin
// surface only.
type CatalogService struct {
	services repository.ServiceTypeRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(serviceRepo repository.ServiceTypeRepository) *CatalogService {
	return &CatalogService{services: serviceRepo}
}

// Create registers a service type with a unique short code.
func (s *CatalogService) Create(ctx context.Context, code, displayName string) (*domain.ServiceType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	displayName = strings.TrimSpace(displayName)
	if code == "" || displayName == "" {
		return nil, apperrors.NewValidationError("code and display_name required", nil)
	}
	serviceType := &domain.ServiceType{Code: code, DisplayName: displayName}
	if err := s.services.Create(ctx, serviceType); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("service code already exists", map[string]any{"service_code": code})
		}
		return nil, apperrors.MapError(err)
	}
	return serviceType, nil
}

// Delete removes a service type. Historical tickets keep the code.
func (s *CatalogService) Delete(ctx context.Context, code string) error {
	if err := s.services.Delete(ctx, code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("service", map[string]any{"service_code": code})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Get fetches one service type.
func (s *CatalogService) Get(ctx context.Context, code string) (*domain.ServiceType, error) {
	serviceType, err := s.services.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service", map[string]any{"service_code": code})
		}
		return nil, apperrors.MapError(err)
	}
	return serviceType, nil
}

// List returns the catalog ordered by code.
func (s *CatalogService) List(ctx context.Context) ([]domain.ServiceType, error) {
	services, err := s.services.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return services, nil
}
