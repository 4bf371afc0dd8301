package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRenterID retrieves bookings where the user is the renter,
	// newest-created first.
	FindByRenterID(ctx context.Context, renterID uuid.UUID) ([]*Booking, error)

	// FindByOwnerID retrieves bookings where the user is the item owner,
	// newest-created first.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Booking, error)

	// FindHoldingByItemID retrieves the item's bookings in a holding status,
	// ordered by start date ascending.
	FindHoldingByItemID(ctx context.Context, itemID uuid.UUID) ([]*Booking, error)

	// Save persists a new booking. Implementations must serialize creates
	// per item and re-check range conflicts against the item's holding
	// bookings inside the same transaction so two concurrent creates for
	// overlapping periods cannot both succeed, even when the item has no
	// bookings yet.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking,
	// returning a conflict error if another writer got there first.
	Update(ctx context.Context, b *Booking) error
}
