package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// CreateAttendantRequest registers an approved attendant account.
type CreateAttendantRequest struct {
	Name             string   `json:"name"`
	EligibleServices []string `json:"eligible_services"`
	DeskLabel        string   `json:"desk_label"`
	DeskNumber       string   `json:"desk_number"`
}

// AvailabilityRequest is a self-reported availability transition. The
// version is the one the caller last read; stale writes are rejected.
type AvailabilityRequest struct {
	State   string `json:"state"`
	Version int64  `json:"version"`
}

// EligibilityRequest replaces an attendant's serviceable codes.
type EligibilityRequest struct {
	ServiceCodes []string `json:"service_codes"`
}

// DeskRequest updates an attendant's counter descriptor.
type DeskRequest struct {
	Label  string `json:"label"`
	Number string `json:"number"`
}

// AttendantResponse describes an attendant.
type AttendantResponse struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	EligibleServices []string            `json:"eligible_services"`
	Availability     domain.Availability `json:"availability"`
	DeskLabel        string              `json:"desk_label"`
	DeskNumber       string              `json:"desk_number"`
	Version          int64               `json:"version"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}
