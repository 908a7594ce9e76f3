package domain

import (
	"fmt"
	"time"
)

// Ticket is a client's place in a service-specific queue. Per
// (service code, issued day) the sequence numbers form a contiguous
// ascending run starting at 1. Tickets are immutable once issued and
// are never deleted.
type Ticket struct {
	ID             string
	ServiceCode    string
	SequenceNumber int
	IssuedDay      time.Time
	IssuedAt       time.Time
	DisplayNumber  string
}

// FormatDisplayNumber builds the board number shown to clients.
func FormatDisplayNumber(serviceCode string, sequence int) string {
	return fmt.Sprintf("%s-%d", serviceCode, sequence)
}

// DayOf truncates t to midnight in the given location. All day-scoped
// queries and sequence counters key on this value.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayKey renders a day as a stable map key.
func DayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
