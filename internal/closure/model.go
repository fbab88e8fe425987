package closure

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicateClosure = errors.New("a closure already exists for this date")
	ErrClosureNotFound  = errors.New("closure not found")
)

type Type string

const (
	TypeHoliday     Type = "Holiday"
	TypeCeremony    Type = "Ceremony"
	TypeEmergency   Type = "Emergency"
	TypeMaintenance Type = "Maintenance"
	TypeOther       Type = "Other"
)

// Closure is one clinic-wide blackout entry. At most one exists per date.
type Closure struct {
	ID        uuid.UUID
	Date      string // YYYY-MM-DD
	IsFullDay bool
	StartTime *string // HH:MM, partial closures only
	EndTime   *string
	Type      Type
	Reason    string
	CreatedAt time.Time
}

// Blocks reports whether a booking at the given HH:MM time is blocked by
// this closure: always for a full-day closure, otherwise when the time
// falls inside [StartTime, EndTime] inclusive. Zero-padded HH:MM strings
// compare lexicographically in temporal order.
func (c *Closure) Blocks(hhmm string) bool {
	if c.IsFullDay {
		return true
	}
	if c.StartTime == nil || c.EndTime == nil {
		return false
	}
	return *c.StartTime <= hhmm && hhmm <= *c.EndTime
}
