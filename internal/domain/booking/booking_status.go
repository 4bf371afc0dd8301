package booking

import "fmt"

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"   // awaiting owner confirmation
	StatusConfirmed Status = "confirmed" // owner confirmed, awaiting payment
	StatusPaid      Status = "paid"      // paid, awaiting handover
	StatusActive    Status = "active"    // rental in progress
	StatusCompleted Status = "completed" // item returned
	StatusCancelled Status = "cancelled" // cancelled by renter
	StatusRejected  Status = "rejected"  // rejected by owner
	StatusOverdue   Status = "overdue"   // past the agreed return date
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusOverdue},
	StatusOverdue:   {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// holdingStatuses are the statuses that occupy an item's calendar for
// availability purposes. Overdue bookings do not block new bookings.
var holdingStatuses = []Status{StatusPending, StatusConfirmed, StatusPaid, StatusActive}

// HoldingStatuses returns the statuses considered to occupy the calendar.
func HoldingStatuses() []Status {
	out := make([]Status, len(holdingStatuses))
	copy(out, holdingStatuses)
	return out
}

// IsHolding reports whether a booking in this status blocks new bookings.
func (s Status) IsHolding() bool {
	for _, h := range holdingStatuses {
		if s == h {
			return true
		}
	}
	return false
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// Relation identifies the actor's relationship to a booking for role guards.
type Relation string

const (
	RelationAny    Relation = "any"
	RelationOwner  Relation = "owner"
	RelationRenter Relation = "renter"
)

// transitionGuards maps a destination status to the relation required to
// perform the transition. Destinations without an entry carry no identity
// restriction beyond the transition table; payment and logistics workflows
// gate those out of band.
var transitionGuards = map[Status]Relation{
	StatusConfirmed: RelationOwner,
	StatusRejected:  RelationOwner,
	StatusCancelled: RelationRenter,
}

// RequiredRelation returns the relation an actor must have to the booking to
// move it into this status.
func (s Status) RequiredRelation() Relation {
	if rel, ok := transitionGuards[s]; ok {
		return rel
	}
	return RelationAny
}
