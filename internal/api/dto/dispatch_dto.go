package dto

import "time"

// DispatchRequest optionally restricts dispatch to one service queue.
type DispatchRequest struct {
	ServiceCode *string `json:"service_code,omitempty"`
}

// DispatchResponse describes a completed dispatch.
type DispatchResponse struct {
	AssignmentID  string    `json:"assignment_id"`
	TicketID      string    `json:"ticket_id"`
	DisplayNumber string    `json:"display_number"`
	ServiceCode   string    `json:"service_code"`
	AttendantID   string    `json:"attendant_id"`
	DeskLabel     string    `json:"desk_label"`
	DeskNumber    string    `json:"desk_number"`
	CalledAt      time.Time `json:"called_at"`
}

// CallRecordResponse is one row of the recent-calls board.
type CallRecordResponse struct {
	AssignmentID  string    `json:"assignment_id"`
	DisplayNumber string    `json:"display_number"`
	ServiceName   string    `json:"service_name"`
	DeskLabel     string    `json:"desk_label"`
	DeskNumber    string    `json:"desk_number"`
	CalledAt      time.Time `json:"called_at"`
}

// StatsResponse carries chart-ready aggregate buckets.
type StatsResponse struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}
