package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// AttendantRepository handles persistence for attendants. Availability
// writes are guarded by an optimistic version; a write carrying a
// version older than the stored one fails with Conflict.
type AttendantRepository interface {
	Create(ctx context.Context, attendant *domain.Attendant) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Attendant, error)
	List(ctx context.Context) ([]domain.Attendant, error)
	ListEligibleAvailable(ctx context.Context, serviceCode string) ([]domain.Attendant, error)
	UpdateAvailability(ctx context.Context, id string, state domain.Availability, expectedVersion int64) (*domain.Attendant, error)
	UpdateEligibility(ctx context.Context, id string, serviceCodes []string) (*domain.Attendant, error)
	UpdateDesk(ctx context.Context, id string, desk domain.Desk) (*domain.Attendant, error)
}

type attendantRepository struct {
	pool *pgxpool.Pool
}

// NewAttendantRepository instantiates the repository.
func NewAttendantRepository(pool *pgxpool.Pool) AttendantRepository {
	return &attendantRepository{pool: pool}
}

const attendantColumns = `id, name, eligible_services, availability, desk_label, desk_number, version, created_at, updated_at`

func (r *attendantRepository) Create(ctx context.Context, attendant *domain.Attendant) error {
	const query = `
        INSERT INTO attendants (name, eligible_services, availability, desk_label, desk_number)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, version, created_at, updated_at`
	if attendant.Availability == "" {
		attendant.Availability = domain.AvailabilityOffline
	}
	if attendant.EligibleServices == nil {
		attendant.EligibleServices = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		attendant.Name,
		attendant.EligibleServices,
		attendant.Availability,
		attendant.Desk.Label,
		attendant.Desk.Number,
	).Scan(&attendant.ID, &attendant.Version, &attendant.CreatedAt, &attendant.UpdatedAt)
}

func (r *attendantRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM attendants WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attendantRepository) GetByID(ctx context.Context, id string) (*domain.Attendant, error) {
	query := `SELECT ` + attendantColumns + ` FROM attendants WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *attendantRepository) List(ctx context.Context) ([]domain.Attendant, error) {
	query := `SELECT ` + attendantColumns + ` FROM attendants ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendants(rows)
}

func (r *attendantRepository) ListEligibleAvailable(ctx context.Context, serviceCode string) ([]domain.Attendant, error) {
	// Ordering by id keeps candidate selection deterministic.
	query := `SELECT ` + attendantColumns + `
        FROM attendants
        WHERE availability=$1 AND $2 = ANY(eligible_services)
        ORDER BY id`
	rows, err := r.pool.Query(ctx, query, domain.AvailabilityAvailable, serviceCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendants(rows)
}

func (r *attendantRepository) UpdateAvailability(ctx context.Context, id string, state domain.Availability, expectedVersion int64) (*domain.Attendant, error) {
	const query = `
        UPDATE attendants
        SET availability=$1, version=version+1, updated_at=NOW()
        WHERE id=$2 AND version=$3
        RETURNING ` + attendantColumns
	attendant, err := r.scanRow(r.pool.QueryRow(ctx, query, state, id, expectedVersion))
	if err == nil {
		return attendant, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}
	// Distinguish a missing attendant from a stale version.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.NewConflict("stale availability write", map[string]any{
		"attendant_id":     id,
		"expected_version": expectedVersion,
	})
}

func (r *attendantRepository) UpdateEligibility(ctx context.Context, id string, serviceCodes []string) (*domain.Attendant, error) {
	const query = `
        UPDATE attendants SET eligible_services=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING ` + attendantColumns
	if serviceCodes == nil {
		serviceCodes = []string{}
	}
	return r.scanRow(r.pool.QueryRow(ctx, query, serviceCodes, id))
}

func (r *attendantRepository) UpdateDesk(ctx context.Context, id string, desk domain.Desk) (*domain.Attendant, error) {
	const query = `
        UPDATE attendants SET desk_label=$1, desk_number=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING ` + attendantColumns
	return r.scanRow(r.pool.QueryRow(ctx, query, desk.Label, desk.Number, id))
}

func (r *attendantRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Attendant, error) {
	return r.scanRow(r.pool.QueryRow(ctx, query, arg))
}

func (r *attendantRepository) scanRow(row pgx.Row) (*domain.Attendant, error) {
	var attendant domain.Attendant
	if err := row.Scan(
		&attendant.ID,
		&attendant.Name,
		&attendant.EligibleServices,
		&attendant.Availability,
		&attendant.Desk.Label,
		&attendant.Desk.Number,
		&attendant.Version,
		&attendant.CreatedAt,
		&attendant.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &attendant, nil
}

func scanAttendants(rows pgx.Rows) ([]domain.Attendant, error) {
	var result []domain.Attendant
	for rows.Next() {
		var attendant domain.Attendant
		if err := rows.Scan(
			&attendant.ID,
			&attendant.Name,
			&attendant.EligibleServices,
			&attendant.Availability,
			&attendant.Desk.Label,
			&attendant.Desk.Number,
			&attendant.Version,
			&attendant.CreatedAt,
			&attendant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attendant)
	}
	return result, rows.Err()
}
