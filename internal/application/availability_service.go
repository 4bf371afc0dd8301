package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService answers whether an item can be booked for a period and
// provides the calendar read views. It never errors on "unavailable"; only
// malformed input or storage failures produce errors.
type AvailabilityService struct {
	repo   bookingDomain.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAvailabilityService creates an AvailabilityService.
func NewAvailabilityService(repo bookingDomain.Repository, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ValidateDateRange checks the period for user-correctable problems. The
// checks run in order and the first failure's message is returned, since the
// specific reason matters for user feedback.
func (s *AvailabilityService) ValidateDateRange(period bookingDomain.RentalPeriod) error {
	return period.Validate(s.now())
}

// CheckAvailability reports whether the item is free for the period, applying
// the handover buffer against all holding-status bookings.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, itemID uuid.UUID, period bookingDomain.RentalPeriod) (bool, error) {
	conflicts, err := s.FindConflictingBookings(ctx, itemID, period)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// FindConflictingBookings returns the item's holding-status bookings whose
// periods collide with the buffered candidate period.
func (s *AvailabilityService) FindConflictingBookings(ctx context.Context, itemID uuid.UUID, period bookingDomain.RentalPeriod) ([]*bookingDomain.Booking, error) {
	holding, err := s.repo.FindHoldingByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holding bookings: %w", err)
	}

	var conflicts []*bookingDomain.Booking
	for _, bk := range holding {
		if period.ConflictsWith(bk.Period()) {
			conflicts = append(conflicts, bk)
		}
	}

	if len(conflicts) > 0 {
		s.logger.Debug("availability conflict",
			zap.String("item_id", itemID.String()),
			zap.Int("conflicts", len(conflicts)),
		)
	}
	return conflicts, nil
}

// GetBookedDates returns the item's holding-status booking periods, sorted by
// start date ascending, for calendar-blocking display. No buffer is applied;
// these are the raw ranges.
func (s *AvailabilityService) GetBookedDates(ctx context.Context, itemID uuid.UUID) ([]bookingDomain.RentalPeriod, error) {
	holding, err := s.repo.FindHoldingByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holding bookings: %w", err)
	}

	ranges := make([]bookingDomain.RentalPeriod, len(holding))
	for i, bk := range holding {
		ranges[i] = bk.Period()
	}
	return ranges, nil
}

// CalculateTotalDays returns the inclusive day count of the period.
func (s *AvailabilityService) CalculateTotalDays(period bookingDomain.RentalPeriod) int {
	return period.TotalDays()
}
