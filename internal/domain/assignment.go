package domain

import "time"

// Assignment is the durable record of a dispatch outcome. Exactly one
// assignment may reference a ticket; records are immutable and never
// deleted.
type Assignment struct {
	ID          string
	TicketID    string
	AttendantID string
	Desk        Desk
	CreatedAt   time.Time
}

// MonthlyCount is an aggregate bucket of assignments per calendar month.
type MonthlyCount struct {
	Year  int
	Month time.Month
	Count int64
}

// Label renders the bucket as e.g. "Jan 2024".
func (m MonthlyCount) Label() string {
	return m.Month.String()[:3] + " " + time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

// ServiceCount is an aggregate bucket of assignments per service.
type ServiceCount struct {
	ServiceName string
	Count       int64
}
