package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence. The storage layer
// enforces uniqueness on (service_code, issued_day, sequence_number);
// Insert surfaces the raw unique-violation error so callers can retry.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	CountForDay(ctx context.Context, serviceCode string, day time.Time) (int, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListPending(ctx context.Context, serviceCode *string, day time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (service_code, sequence_number, issued_day, issued_at, display_number)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.ServiceCode,
		ticket.SequenceNumber,
		ticket.IssuedDay,
		ticket.IssuedAt,
		ticket.DisplayNumber,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) CountForDay(ctx context.Context, serviceCode string, day time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE service_code=$1 AND issued_day=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, serviceCode, day).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, service_code, sequence_number, issued_day, issued_at, display_number
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ServiceCode,
		&ticket.SequenceNumber,
		&ticket.IssuedDay,
		&ticket.IssuedAt,
		&ticket.DisplayNumber,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListPending(ctx context.Context, serviceCode *string, day time.Time) ([]domain.Ticket, error) {
	query := `
        SELECT t.id, t.service_code, t.sequence_number, t.issued_day, t.issued_at, t.display_number
        FROM tickets t
        LEFT JOIN assignments a ON a.ticket_id = t.id
        WHERE a.id IS NULL AND t.issued_day=$1`
	args := []any{day}
	if serviceCode != nil {
		args = append(args, *serviceCode)
		query += ` AND t.service_code=$2`
	}
	query += ` ORDER BY t.issued_at ASC, t.sequence_number ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ServiceCode,
			&ticket.SequenceNumber,
			&ticket.IssuedDay,
			&ticket.IssuedAt,
			&ticket.DisplayNumber,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
