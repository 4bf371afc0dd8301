package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_bookings_item_dates,priority:1"`
	RenterID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	OwnerID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	StartDate       time.Time       `gorm:"not null;index:idx_bookings_item_dates,priority:2"`
	EndDate         time.Time       `gorm:"not null;index:idx_bookings_item_dates,priority:3"`
	TotalDays       int             `gorm:"not null"`
	DailyPrice      int64           `gorm:"not null"`
	TotalPrice      int64           `gorm:"not null"`
	Deposit         int64           `gorm:"not null"`
	DeliveryFee     int64           `gorm:"not null;default:0"`
	DeliveryMethod  string          `gorm:"not null;size:20"`
	DeliveryAddress string          `gorm:"size:500"`
	PickupLocation  string          `gorm:"size:500"`
	Status          string          `gorm:"not null;size:20;index"`
	StatusHistory   json.RawMessage `gorm:"type:jsonb;not null"`
	ConditionBefore json.RawMessage `gorm:"type:jsonb"`
	ConditionAfter  json.RawMessage `gorm:"type:jsonb"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null;index"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func holdingStatusStrings() []string {
	holding := bookingDomain.HoldingStatuses()
	out := make([]string, len(holding))
	for i, s := range holding {
		out[i] = string(s)
	}
	return out
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRenterID retrieves bookings where the user is the renter, newest first.
func (r *GormBookingRepository) FindByRenterID(ctx context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("renter_id = ?", renterID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find renter bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByOwnerID retrieves bookings where the user is the item owner, newest first.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindHoldingByItemID retrieves the item's holding-status bookings ordered by
// start date ascending.
func (r *GormBookingRepository) FindHoldingByItemID(ctx context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND status IN ?", itemID, holdingStatusStrings()).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find holding bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking. The parent item row is locked inside the
// transaction before the conflict re-check; the lock is the per-item
// serialization point, so of two concurrent creates for overlapping periods
// the second waits on the first and its re-read sees the committed insert.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked ItemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", model.ItemID).
			First(&locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("item", model.ItemID.String())
			}
			return fmt.Errorf("failed to lock item: %w", err)
		}

		var existing []BookingModel
		if err := tx.Where("item_id = ? AND status IN ?", model.ItemID, holdingStatusStrings()).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load holding bookings: %w", err)
		}

		period := bk.Period()
		for _, m := range existing {
			if period.ConflictsWith(bookingDomain.RentalPeriod{StartDate: m.StartDate, EndDate: m.EndDate}) {
				return domain.NewConflictError("item is not available for the selected dates")
			}
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	return err
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// Only update if the version matches (current version - 1, since
	// IncrementVersion was called before Update).
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":           model.Status,
			"status_history":   model.StatusHistory,
			"condition_before": model.ConditionBefore,
			"condition_after":  model.ConditionAfter,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	historyJSON, err := json.Marshal(bk.StatusHistory())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status history: %w", err)
	}

	var beforeJSON, afterJSON json.RawMessage
	if bk.ConditionBefore() != nil {
		if beforeJSON, err = json.Marshal(bk.ConditionBefore()); err != nil {
			return nil, fmt.Errorf("failed to marshal condition before: %w", err)
		}
	}
	if bk.ConditionAfter() != nil {
		if afterJSON, err = json.Marshal(bk.ConditionAfter()); err != nil {
			return nil, fmt.Errorf("failed to marshal condition after: %w", err)
		}
	}

	return &BookingModel{
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
		StatusHistory:   historyJSON,
		ConditionBefore: beforeJSON,
		ConditionAfter:  afterJSON,
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var history []bookingDomain.StatusEntry
	if err := json.Unmarshal(m.StatusHistory, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status history: %w", err)
	}

	var before, after *bookingDomain.ConditionRecord
	if len(m.ConditionBefore) > 0 {
		var rec bookingDomain.ConditionRecord
		if err := json.Unmarshal(m.ConditionBefore, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal condition before: %w", err)
		}
		before = &rec
	}
	if len(m.ConditionAfter) > 0 {
		var rec bookingDomain.ConditionRecord
		if err := json.Unmarshal(m.ConditionAfter, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal condition after: %w", err)
		}
		after = &rec
	}

	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID, m.ItemID, m.RenterID, m.OwnerID,
		bookingDomain.RentalPeriod{StartDate: m.StartDate, EndDate: m.EndDate},
		m.TotalDays,
		m.DailyPrice, m.TotalPrice, m.Deposit, m.DeliveryFee,
		bookingDomain.DeliveryMethod(m.DeliveryMethod),
		m.DeliveryAddress, m.PickupLocation,
		status,
		history,
		before, after,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
