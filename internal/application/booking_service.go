package application

import (
	"context"
	"fmt"
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	itemDomain "github.com/campusrent/service-rental/internal/domain/item"
	"github.com/campusrent/service-rental/internal/events"
	"github.com/campusrent/service-rental/internal/platform/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ItemID          uuid.UUID `json:"item_id" binding:"required"`
	StartDate       time.Time `json:"start_date" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required"`
	DeliveryMethod  string    `json:"delivery_method" binding:"required"`
	DeliveryAddress string    `json:"delivery_address"`
	PickupLocation  string    `json:"pickup_location"`
}

// UpdateBookingStatusRequest holds a requested status transition.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// AttachConditionRequest documents the item's condition before or after the rental.
type AttachConditionRequest struct {
	Phase  string   `json:"phase" binding:"required"` // "before" or "after"
	Images []string `json:"images"`
	Notes  string   `json:"notes"`
}

// StatusEntryDTO is a single status history entry in responses.
type StatusEntryDTO struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// PeriodDTO is a booked date range in responses.
type PeriodDTO struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// AvailabilityDTO is the response for the availability check endpoint.
type AvailabilityDTO struct {
	Available   bool        `json:"available"`
	BookedDates []PeriodDTO `json:"booked_dates"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID                      `json:"id"`
	ItemID          uuid.UUID                      `json:"item_id"`
	RenterID        uuid.UUID                      `json:"renter_id"`
	OwnerID         uuid.UUID                      `json:"owner_id"`
	StartDate       time.Time                      `json:"start_date"`
	EndDate         time.Time                      `json:"end_date"`
	TotalDays       int                            `json:"total_days"`
	DailyPrice      int64                          `json:"daily_price"`
	TotalPrice      int64                          `json:"total_price"`
	Deposit         int64                          `json:"deposit"`
	DeliveryFee     int64                          `json:"delivery_fee"`
	DeliveryMethod  string                         `json:"delivery_method"`
	DeliveryAddress string                         `json:"delivery_address,omitempty"`
	PickupLocation  string                         `json:"pickup_location,omitempty"`
	Status          string                         `json:"status"`
	StatusHistory   []StatusEntryDTO               `json:"status_history"`
	ConditionBefore *bookingDomain.ConditionRecord `json:"condition_before,omitempty"`
	ConditionAfter  *bookingDomain.ConditionRecord `json:"condition_after,omitempty"`
	Version         int64                          `json:"version"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

// BookingService is the application service orchestrating the booking
// lifecycle: creation, status transitions, and the party-scoped read views.
type BookingService struct {
	repo         bookingDomain.Repository
	items        itemDomain.Repository
	availability *AvailabilityService
	producer     *kafka.Producer
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.Repository,
	items itemDomain.Repository,
	availability *AvailabilityService,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		items:        items,
		availability: availability,
		producer:     producer,
		logger:       logger,
	}
}

// CreateBooking validates the requested period, checks availability, snapshots
// the item's pricing, and persists a new pending booking.
func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	method := bookingDomain.DeliveryMethod(req.DeliveryMethod)
	if !method.IsValid() {
		return nil, domain.NewValidationError("invalid delivery method: " + req.DeliveryMethod)
	}
	if method == bookingDomain.DeliveryDelivery && req.DeliveryAddress == "" {
		return nil, domain.NewValidationError("delivery address is required for delivery")
	}
	if method == bookingDomain.DeliveryPickup && req.PickupLocation == "" {
		return nil, domain.NewValidationError("pickup location is required for pickup")
	}

	period := bookingDomain.RentalPeriod{StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.availability.ValidateDateRange(period); err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.SupportsDelivery(method) {
		return nil, domain.NewValidationError("item does not support the selected delivery method")
	}

	available, err := s.availability.CheckAvailability(ctx, req.ItemID, period)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.NewConflictError("item is not available for the selected dates")
	}

	pricing := item.Pricing()
	var deliveryFee int64
	if method == bookingDomain.DeliveryDelivery {
		deliveryFee = pricing.DeliveryFee
	}

	bk, err := bookingDomain.NewBooking(
		req.ItemID,
		renterID,
		pricing.OwnerID,
		period,
		pricing.DailyPrice,
		pricing.Deposit,
		deliveryFee,
		method,
		req.DeliveryAddress,
		req.PickupLocation,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", bk.ItemID().String()),
		zap.String("renter_id", renterID.String()),
	)

	evt := events.BookingRequestedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		RenterID:   bk.RenterID(),
		OwnerID:    bk.OwnerID(),
		StartDate:  bk.Period().StartDate,
		EndDate:    bk.Period().EndDate,
		TotalDays:  bk.TotalDays(),
		TotalPrice: bk.TotalPrice(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBookingStatus applies a status transition on behalf of the acting
// user. The transition table is checked before the role guard, and a failed
// check leaves the booking untouched.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, req UpdateBookingStatusRequest, actorID uuid.UUID) (*BookingDTO, error) {
	newStatus, err := bookingDomain.ParseStatus(req.Status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.Transition(newStatus, req.Note, actorID); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, bk, from, req.Note)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking is the renter self-service cancel fast path, limited to
// pending and confirmed bookings.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.CancelByRenter(actorID); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, bk, from, "Cancelled by renter")

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a booking for one of its parties. Non-parties get an
// explicit authorization failure, not a silent not-found.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParty(requesterID) {
		return nil, domain.NewForbiddenError("you do not have access to this booking")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetRenterBookings returns the user's bookings as renter, newest first.
func (s *BookingService) GetRenterBookings(ctx context.Context, renterID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.repo.FindByRenterID(ctx, renterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load renter bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// GetOwnerBookings returns booking requests against the user's items, newest first.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// CheckItemAvailability serves the public availability endpoint: the
// conflict verdict plus the raw booked ranges for calendar display.
func (s *BookingService) CheckItemAvailability(ctx context.Context, itemID uuid.UUID, period bookingDomain.RentalPeriod) (*AvailabilityDTO, error) {
	if period.EndDate.Before(period.StartDate) {
		return nil, domain.NewValidationError("end date must be after start date")
	}

	available, err := s.availability.CheckAvailability(ctx, itemID, period)
	if err != nil {
		return nil, err
	}
	booked, err := s.availability.GetBookedDates(ctx, itemID)
	if err != nil {
		return nil, err
	}

	dto := AvailabilityDTO{Available: available, BookedDates: make([]PeriodDTO, len(booked))}
	for i, p := range booked {
		dto.BookedDates[i] = PeriodDTO{StartDate: p.StartDate, EndDate: p.EndDate}
	}
	return &dto, nil
}

// AttachCondition records an item condition document on the booking.
func (s *BookingService) AttachCondition(ctx context.Context, bookingID uuid.UUID, req AttachConditionRequest, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	record := bookingDomain.ConditionRecord{
		Images:    req.Images,
		Notes:     req.Notes,
		Timestamp: time.Now().UTC(),
	}

	switch req.Phase {
	case "before":
		err = bk.AttachConditionBefore(record, actorID)
	case "after":
		err = bk.AttachConditionAfter(record, actorID)
	default:
		err = domain.NewValidationError("phase must be \"before\" or \"after\"")
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// HandlePaymentSucceeded moves a confirmed booking to paid when the payment
// service settles the charge. The renter is recorded as the acting party.
func (s *BookingService) HandlePaymentSucceeded(ctx context.Context, bookingID, paymentID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	from := bk.Status()
	note := fmt.Sprintf("Payment %s received", paymentID)
	if err := bk.Transition(bookingDomain.StatusPaid, note, bk.RenterID()); err != nil {
		return err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	s.publishStatusChange(ctx, bk, from, note)
	return nil
}

// --- Helpers ---

// statusEventTypes maps a destination status to its published event type.
var statusEventTypes = map[bookingDomain.Status]string{
	bookingDomain.StatusConfirmed: events.BookingConfirmed,
	bookingDomain.StatusRejected:  events.BookingRejected,
	bookingDomain.StatusCancelled: events.BookingCancelled,
	bookingDomain.StatusPaid:      events.BookingPaid,
	bookingDomain.StatusActive:    events.BookingStarted,
	bookingDomain.StatusCompleted: events.BookingCompleted,
	bookingDomain.StatusOverdue:   events.BookingOverdue,
}

func (s *BookingService) publishStatusChange(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.Status, note string) {
	eventType, ok := statusEventTypes[bk.Status()]
	if !ok {
		return
	}
	evt := events.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		RenterID:   bk.RenterID(),
		OwnerID:    bk.OwnerID(),
		FromStatus: string(from),
		ToStatus:   string(bk.Status()),
		Note:       note,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, bk.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishKeyed(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	history := bk.StatusHistory()
	historyDTOs := make([]StatusEntryDTO, len(history))
	for i, entry := range history {
		historyDTOs[i] = StatusEntryDTO{
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp,
			Note:      entry.Note,
		}
	}

	return BookingDTO{
		ID:              bk.ID(),
		ItemID:          bk.ItemID(),
		RenterID:        bk.RenterID(),
		OwnerID:         bk.OwnerID(),
		StartDate:       bk.Period().StartDate,
		EndDate:         bk.Period().EndDate,
		TotalDays:       bk.TotalDays(),
		DailyPrice:      bk.DailyPrice(),
		TotalPrice:      bk.TotalPrice(),
		Deposit:         bk.Deposit(),
		DeliveryFee:     bk.DeliveryFee(),
		DeliveryMethod:  string(bk.DeliveryMethod()),
		DeliveryAddress: bk.DeliveryAddress(),
		PickupLocation:  bk.PickupLocation(),
		Status:          string(bk.Status()),
		StatusHistory:   historyDTOs,
		ConditionBefore: bk.ConditionBefore(),
		ConditionAfter:  bk.ConditionAfter(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
