package events

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketIssued        EventType = "ticket_issued"
	EventClientCalled        EventType = "client_called"
	EventAvailabilityChanged EventType = "availability_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role        domain.Role `json:"role"`
	AttendantID *string     `json:"attendant_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketIssuedPayload payload.
type TicketIssuedPayload struct {
	TicketID       string    `json:"ticket_id"`
	ServiceCode    string    `json:"service_code"`
	SequenceNumber int       `json:"sequence_number"`
	DisplayNumber  string    `json:"display_number"`
	IssuedAt       time.Time `json:"issued_at"`
}

// ClientCalledPayload payload.
type ClientCalledPayload struct {
	AssignmentID  string      `json:"assignment_id"`
	TicketID      string      `json:"ticket_id"`
	DisplayNumber string      `json:"display_number"`
	ServiceName   string      `json:"service_name"`
	AttendantID   string      `json:"attendant_id"`
	Desk          domain.Desk `json:"desk"`
	CalledAt      time.Time   `json:"called_at"`
}

// AvailabilityChangedPayload payload.
type AvailabilityChangedPayload struct {
	AttendantID string              `json:"attendant_id"`
	OldState    domain.Availability `json:"old_state"`
	NewState    domain.Availability `json:"new_state"`
	Version     int64               `json:"version"`
}
