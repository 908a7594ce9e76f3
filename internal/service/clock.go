package service

import "time"

// Clock supplies the current time and the location whose midnight
// bounds a queue day. Day-boundary policy is injected rather than read
// from the system clock so tests can pin a fixed day.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a Clock backed by time.Now in the given location.
func NewSystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) Location() *time.Location {
	return c.loc
}
