package domain

import "time"

// Availability enumerates attendant availability states.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityBusy      Availability = "BUSY"
	AvailabilityOffline   Availability = "OFFLINE"
)

// ValidAvailability reports whether the value is a known state.
func ValidAvailability(a Availability) bool {
	switch a {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOffline:
		return true
	}
	return false
}

// Desk identifies the counter an attendant works from.
type Desk struct {
	Label  string
	Number string
}

// Attendant models a service-desk operator. Version increments on
// every availability write and guards against stale self-reports
// racing a dispatch transition.
type Attendant struct {
	ID               string
	Name             string
	EligibleServices []string
	Availability     Availability
	Desk             Desk
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EligibleFor reports whether the attendant can serve the service code.
func (a *Attendant) EligibleFor(serviceCode string) bool {
	for _, code := range a.EligibleServices {
		if code == serviceCode {
			return true
		}
	}
	return false
}
