package dto

import "time"

// IssueTicketRequest asks for the next number in a service queue.
type IssueTicketRequest struct {
	ServiceCode string `json:"service_code"`
}

// TicketResponse describes an issued ticket.
type TicketResponse struct {
	ID             string    `json:"id"`
	ServiceCode    string    `json:"service_code"`
	SequenceNumber int       `json:"sequence_number"`
	DisplayNumber  string    `json:"display_number"`
	IssuedAt       time.Time `json:"issued_at"`
}

// PendingCountResponse reports how many clients are waiting.
type PendingCountResponse struct {
	Count int `json:"count"`
}

// ServiceTypeRequest creates a catalog entry.
type ServiceTypeRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// ServiceTypeResponse describes a catalog entry.
type ServiceTypeResponse struct {
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
