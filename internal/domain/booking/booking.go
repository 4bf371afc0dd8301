package booking

import (
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	"github.com/google/uuid"
)

// DeliveryMethod is how the item changes hands at the start of the rental.
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// IsValid returns true if the delivery method is recognized.
func (m DeliveryMethod) IsValid() bool {
	return m == DeliveryPickup || m == DeliveryDelivery
}

// StatusEntry is a single append-only record of a status change.
type StatusEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// ConditionRecord documents the item's condition at handover or return.
type ConditionRecord struct {
	Images    []string  `json:"images"`
	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

// Booking is the aggregate root for the rental booking domain. Pricing fields
// are a snapshot taken from the item at creation time and never recomputed,
// so later price changes on the item do not affect existing bookings.
type Booking struct {
	id       uuid.UUID
	itemID   uuid.UUID
	renterID uuid.UUID
	ownerID  uuid.UUID

	period    RentalPeriod
	totalDays int

	dailyPrice  int64
	totalPrice  int64
	deposit     int64
	deliveryFee int64

	deliveryMethod  DeliveryMethod
	deliveryAddress string
	pickupLocation  string

	status        Status
	statusHistory []StatusEntry

	conditionBefore *ConditionRecord
	conditionAfter  *ConditionRecord

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking with status=pending and a single history
// entry. The period must already be validated and the availability check
// passed; pricing fields are snapshotted from the item as-is.
func NewBooking(
	itemID, renterID, ownerID uuid.UUID,
	period RentalPeriod,
	dailyPrice, deposit, deliveryFee int64,
	deliveryMethod DeliveryMethod,
	deliveryAddress, pickupLocation string,
) (*Booking, error) {
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item ID is required")
	}
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if !deliveryMethod.IsValid() {
		return nil, domain.NewValidationError("invalid delivery method: " + string(deliveryMethod))
	}
	if dailyPrice < 0 || deposit < 0 || deliveryFee < 0 {
		return nil, domain.NewValidationError("pricing fields cannot be negative")
	}

	now := time.Now().UTC()
	totalDays := period.TotalDays()
	return &Booking{
		id:              uuid.New(),
		itemID:          itemID,
		renterID:        renterID,
		ownerID:         ownerID,
		period:          period,
		totalDays:       totalDays,
		dailyPrice:      dailyPrice,
		totalPrice:      dailyPrice * int64(totalDays),
		deposit:         deposit,
		deliveryFee:     deliveryFee,
		deliveryMethod:  deliveryMethod,
		deliveryAddress: deliveryAddress,
		pickupLocation:  pickupLocation,
		status:          StatusPending,
		statusHistory: []StatusEntry{
			{Status: StatusPending, Timestamp: now, Note: "Booking created"},
		},
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, itemID, renterID, ownerID uuid.UUID,
	period RentalPeriod,
	totalDays int,
	dailyPrice, totalPrice, deposit, deliveryFee int64,
	deliveryMethod DeliveryMethod,
	deliveryAddress, pickupLocation string,
	status Status,
	statusHistory []StatusEntry,
	conditionBefore, conditionAfter *ConditionRecord,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		itemID:          itemID,
		renterID:        renterID,
		ownerID:         ownerID,
		period:          period,
		totalDays:       totalDays,
		dailyPrice:      dailyPrice,
		totalPrice:      totalPrice,
		deposit:         deposit,
		deliveryFee:     deliveryFee,
		deliveryMethod:  deliveryMethod,
		deliveryAddress: deliveryAddress,
		pickupLocation:  pickupLocation,
		status:          status,
		statusHistory:   statusHistory,
		conditionBefore: conditionBefore,
		conditionAfter:  conditionAfter,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ItemID returns the rented item's identifier.
func (b *Booking) ItemID() uuid.UUID { return b.itemID }

// RenterID returns the renting user's identifier.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// OwnerID returns the item owner's identifier.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// Period returns the inclusive rental period.
func (b *Booking) Period() RentalPeriod { return b.period }

// TotalDays returns the inclusive day count of the rental.
func (b *Booking) TotalDays() int { return b.totalDays }

// DailyPrice returns the snapshotted per-day price.
func (b *Booking) DailyPrice() int64 { return b.dailyPrice }

// TotalPrice returns the snapshotted total rental price.
func (b *Booking) TotalPrice() int64 { return b.totalPrice }

// Deposit returns the snapshotted deposit.
func (b *Booking) Deposit() int64 { return b.deposit }

// DeliveryFee returns the snapshotted delivery fee (0 for pickup).
func (b *Booking) DeliveryFee() int64 { return b.deliveryFee }

// DeliveryMethod returns the handover method.
func (b *Booking) DeliveryMethod() DeliveryMethod { return b.deliveryMethod }

// DeliveryAddress returns the delivery address, if the method is delivery.
func (b *Booking) DeliveryAddress() string { return b.deliveryAddress }

// PickupLocation returns the pickup location, if the method is pickup.
func (b *Booking) PickupLocation() string { return b.pickupLocation }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// StatusHistory returns a copy of the append-only status history. The last
// entry always matches the current status.
func (b *Booking) StatusHistory() []StatusEntry {
	out := make([]StatusEntry, len(b.statusHistory))
	copy(out, b.statusHistory)
	return out
}

// ConditionBefore returns the pre-rental condition record, or nil.
func (b *Booking) ConditionBefore() *ConditionRecord { return b.conditionBefore }

// ConditionAfter returns the post-rental condition record, or nil.
func (b *Booking) ConditionAfter() *ConditionRecord { return b.conditionAfter }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Relationship helpers ---

// IsParty reports whether the user is the renter or the owner of the booking.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return userID == b.renterID || userID == b.ownerID
}

// RelationOf returns the user's relation to this booking.
func (b *Booking) RelationOf(userID uuid.UUID) Relation {
	switch userID {
	case b.ownerID:
		return RelationOwner
	case b.renterID:
		return RelationRenter
	default:
		return RelationAny
	}
}

// --- Behavior ---

// Transition moves the booking to a new status on behalf of the given actor.
// The transition table is checked first, then the role guard for the
// destination; a failure of either leaves the booking unchanged.
func (b *Booking) Transition(to Status, note string, actorID uuid.UUID) error {
	if !b.status.CanTransitionTo(to) {
		return domain.NewInvalidTransitionError(string(b.status), string(to))
	}

	switch to.RequiredRelation() {
	case RelationOwner:
		if actorID != b.ownerID {
			return domain.NewForbiddenError("only the owner can confirm or reject bookings")
		}
	case RelationRenter:
		if actorID != b.renterID {
			return domain.NewForbiddenError("only the renter can cancel bookings")
		}
	}

	now := time.Now().UTC()
	b.status = to
	b.statusHistory = append(b.statusHistory, StatusEntry{Status: to, Timestamp: now, Note: note})
	b.updatedAt = now
	return nil
}

// CancelByRenter is the renter self-service cancellation fast path. It is
// narrower than the transition table: only pending and confirmed bookings
// qualify. Cancelling a paid booking must go through Transition.
func (b *Booking) CancelByRenter(actorID uuid.UUID) error {
	if actorID != b.renterID {
		return domain.NewForbiddenError("only the renter can cancel bookings")
	}
	if b.status != StatusPending && b.status != StatusConfirmed {
		return domain.NewValidationError("cannot cancel booking in current status")
	}
	return b.Transition(StatusCancelled, "Cancelled by renter", actorID)
}

// AttachConditionBefore records the item's condition at handover. Allowed
// once the rental is paid or active, by either party.
func (b *Booking) AttachConditionBefore(record ConditionRecord, actorID uuid.UUID) error {
	if !b.IsParty(actorID) {
		return domain.NewForbiddenError("you do not have access to this booking")
	}
	if b.status != StatusPaid && b.status != StatusActive {
		return domain.NewValidationError("condition before rental can only be recorded for paid or active bookings")
	}
	b.conditionBefore = &record
	b.updatedAt = time.Now().UTC()
	return nil
}

// AttachConditionAfter records the item's condition at return. Allowed from
// active onward, by either party.
func (b *Booking) AttachConditionAfter(record ConditionRecord, actorID uuid.UUID) error {
	if !b.IsParty(actorID) {
		return domain.NewForbiddenError("you do not have access to this booking")
	}
	if b.status != StatusActive && b.status != StatusOverdue && b.status != StatusCompleted {
		return domain.NewValidationError("condition after rental can only be recorded once the rental has started")
	}
	b.conditionAfter = &record
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
