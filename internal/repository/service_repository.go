package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
)

// ServiceTypeRepository handles persistence for service reference data.
type ServiceTypeRepository interface {
	Create(ctx context.Context, service *domain.ServiceType) error
	Delete(ctx context.Context, code string) error
	GetByCode(ctx context.Context, code string) (*domain.ServiceType, error)
	List(ctx context.Context) ([]domain.ServiceType, error)
}

type serviceTypeRepository struct {
	pool *pgxpool.Pool
}

// NewServiceTypeRepository instantiates the repository.
func NewServiceTypeRepository(pool *pgxpool.Pool) ServiceTypeRepository {
	return &serviceTypeRepository{pool: pool}
}

func (r *serviceTypeRepository) Create(ctx context.Context, service *domain.ServiceType) error {
	const query = `
        INSERT INTO service_types (code, display_name)
        VALUES ($1,$2)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query, service.Code, service.DisplayName).Scan(&service.CreatedAt)
}

func (r *serviceTypeRepository) Delete(ctx context.Context, code string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM service_types WHERE code=$1`, code)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceTypeRepository) GetByCode(ctx context.Context, code string) (*domain.ServiceType, error) {
	const query = `SELECT code, display_name, created_at FROM service_types WHERE code=$1`
	var service domain.ServiceType
	if err := r.pool.QueryRow(ctx, query, code).Scan(
		&service.Code,
		&service.DisplayName,
		&service.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *serviceTypeRepository) List(ctx context.Context) ([]domain.ServiceType, error) {
	const query = `SELECT code, display_name, created_at FROM service_types ORDER BY code`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceType
	for rows.Next() {
		var service domain.ServiceType
		if err := rows.Scan(&service.Code, &service.DisplayName, &service.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, service)
	}
	return result, rows.Err()
}
