package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// AssignmentRepository owns the append-only assignment ledger. Assign
// performs the dispatch write: the attendant's transition to BUSY and
// the ledger append commit or roll back together.
type AssignmentRepository interface {
	Assign(ctx context.Context, ticket *domain.Ticket, attendant *domain.Attendant) (*domain.Assignment, error)
	HasAssignment(ctx context.Context, ticketID string) (bool, error)
	ListRecent(ctx context.Context, limit int, since *time.Time) ([]domain.Assignment, error)
	CountByMonth(ctx context.Context, from, to time.Time) ([]domain.MonthlyCount, error)
	CountByService(ctx context.Context, from, to time.Time) ([]domain.ServiceCount, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Assign(ctx context.Context, ticket *domain.Ticket, attendant *domain.Attendant) (*domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Claim the attendant only if still available; a competing
	// dispatch or self-report loses the race here and the whole
	// operation rolls back.
	cmd, err := tx.Exec(ctx, `
        UPDATE attendants
        SET availability=$1, version=version+1, updated_at=NOW()
        WHERE id=$2 AND availability=$3`,
		domain.AvailabilityBusy, attendant.ID, domain.AvailabilityAvailable)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, apperrors.NewConflict("attendant no longer available", map[string]any{
			"attendant_id": attendant.ID,
		})
	}

	assignment := &domain.Assignment{
		TicketID:    ticket.ID,
		AttendantID: attendant.ID,
		Desk:        attendant.Desk,
	}
	err = tx.QueryRow(ctx, `
        INSERT INTO assignments (ticket_id, attendant_id, desk_label, desk_number)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`,
		assignment.TicketID,
		assignment.AttendantID,
		assignment.Desk.Label,
		assignment.Desk.Number,
	).Scan(&assignment.ID, &assignment.CreatedAt)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("ticket already assigned", map[string]any{
				"ticket_id": ticket.ID,
			})
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *assignmentRepository) HasAssignment(ctx context.Context, ticketID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM assignments WHERE ticket_id=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *assignmentRepository) ListRecent(ctx context.Context, limit int, since *time.Time) ([]domain.Assignment, error) {
	query := `
        SELECT id, ticket_id, attendant_id, desk_label, desk_number, created_at
        FROM assignments`
	args := []any{}
	if since != nil {
		args = append(args, *since)
		query += ` WHERE created_at >= $1`
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *assignmentRepository) CountByMonth(ctx context.Context, from, to time.Time) ([]domain.MonthlyCount, error) {
	const query = `
        SELECT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int, COUNT(*)
        FROM assignments
        WHERE created_at >= $1 AND created_at <= $2
        GROUP BY 1, 2
        ORDER BY 1, 2`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MonthlyCount
	for rows.Next() {
		var year, month int
		var count int64
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, err
		}
		result = append(result, domain.MonthlyCount{Year: year, Month: time.Month(month), Count: count})
	}
	return result, rows.Err()
}

func (r *assignmentRepository) CountByService(ctx context.Context, from, to time.Time) ([]domain.ServiceCount, error) {
	const query = `
        SELECT COALESCE(s.display_name, t.service_code), COUNT(*)
        FROM assignments a
        JOIN tickets t ON t.id = a.ticket_id
        LEFT JOIN service_types s ON s.code = t.service_code
        WHERE a.created_at >= $1 AND a.created_at <= $2
        GROUP BY 1
        ORDER BY COUNT(*) DESC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceCount
	for rows.Next() {
		var bucket domain.ServiceCount
		if err := rows.Scan(&bucket.ServiceName, &bucket.Count); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}

func scanAssignments(rows pgx.Rows) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.TicketID,
			&assignment.AttendantID,
			&assignment.Desk.Label,
			&assignment.Desk.Number,
			&assignment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
