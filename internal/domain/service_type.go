package domain

import "time"

// ServiceType is a reference-data entry for a queueable service.
// Code doubles as the ticket number prefix and is immutable once
// tickets reference it.
type ServiceType struct {
	Code        string
	DisplayName string
	CreatedAt   time.Time
}
