package booking

import (
	"time"

	"github.com/campusrent/service-rental/internal/domain"
)

// AvailabilityBuffer is the handover gap applied around a requested period
// when checking for conflicts, so back-to-back rentals of the same item do
// not collide at pickup/return time.
const AvailabilityBuffer = time.Hour

// RentalPeriod is a value object for an inclusive rental date range.
type RentalPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// TotalDays returns the inclusive day count of the period, counting both the
// start and end day. A same-day rental is 1 day.
func (p RentalPeriod) TotalDays() int {
	return int(p.EndDate.Sub(p.StartDate)/(24*time.Hour)) + 1
}

// Validate checks the period against the given reference time. The checks run
// in a fixed order and the first failure is returned; callers surface the
// specific message to the user.
func (p RentalPeriod) Validate(now time.Time) error {
	if p.StartDate.Before(now) {
		return domain.NewValidationError("start date cannot be in the past")
	}
	if p.EndDate.Before(p.StartDate) {
		return domain.NewValidationError("end date must be after start date")
	}
	if p.TotalDays() < 1 {
		return domain.NewValidationError("minimum rental period is 1 day")
	}
	return nil
}

// Buffered returns the period widened by the availability buffer on both ends.
func (p RentalPeriod) Buffered() RentalPeriod {
	return RentalPeriod{
		StartDate: p.StartDate.Add(-AvailabilityBuffer),
		EndDate:   p.EndDate.Add(AvailabilityBuffer),
	}
}

// ConflictsWith reports whether an existing booking's period collides with
// this candidate period once the buffer is applied to the candidate. A
// conflict exists when the existing booking starts inside the buffered
// window, ends inside it, or fully encloses it. The enclosure clause is what
// a naive interval-overlap test misses.
func (p RentalPeriod) ConflictsWith(existing RentalPeriod) bool {
	buffered := p.Buffered()

	startsWithin := !existing.StartDate.Before(buffered.StartDate) && !existing.StartDate.After(buffered.EndDate)
	endsWithin := !existing.EndDate.Before(buffered.StartDate) && !existing.EndDate.After(buffered.EndDate)
	encloses := !existing.StartDate.After(buffered.StartDate) && !existing.EndDate.Before(buffered.EndDate)

	return startsWithin || endsWithin || encloses
}
