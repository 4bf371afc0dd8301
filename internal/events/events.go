package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types, one per lifecycle transition.
const (
	BookingRequested = "booking.requested"
	BookingConfirmed = "booking.confirmed"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	BookingPaid      = "booking.paid"
	BookingStarted   = "booking.started"
	BookingCompleted = "booking.completed"
	BookingOverdue   = "booking.overdue"
)

// Payment event types consumed from the payment service.
const (
	PaymentSucceeded = "payment.payment_succeeded"
)

// BookingRequestedEvent is published when a renter creates a booking.
type BookingRequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	TotalDays  int       `json:"total_days"`
	TotalPrice int64     `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every accepted status transition.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentSucceededEvent is the payment service's settlement notification.
type PaymentSucceededEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
