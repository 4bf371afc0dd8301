package item

import (
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	"github.com/google/uuid"
)

// Category classifies a listed item.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryBooks       Category = "books"
	CategorySports      Category = "sports"
	CategoryTools       Category = "tools"
	CategoryClothing    Category = "clothing"
	CategoryMusic       Category = "music"
	CategoryOther       Category = "other"
)

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryBooks, CategorySports, CategoryTools,
		CategoryClothing, CategoryMusic, CategoryOther:
		return true
	}
	return false
}

// Condition describes the physical state of a listed item.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

// IsValid returns true if the condition is recognized.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// Location is where the item lives on campus.
type Location struct {
	University string `json:"university"`
	Building   string `json:"building,omitempty"`
	Area       string `json:"area"`
}

// Spec is the mutable listing content of an item.
type Spec struct {
	Title           string
	Description     string
	Category        Category
	Tags            []string
	DailyPrice      int64
	Deposit         int64
	Images          []string
	Location        Location
	DeliveryOptions []bookingDomain.DeliveryMethod
	DeliveryFee     int64
	Condition       Condition
}

// PricingSnapshot is the read model the booking flow copies at creation time.
type PricingSnapshot struct {
	OwnerID         uuid.UUID
	DailyPrice      int64
	Deposit         int64
	DeliveryFee     int64
	DeliveryOptions []bookingDomain.DeliveryMethod
}

// Item is the aggregate root for a catalog listing.
type Item struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	spec        Spec
	isAvailable bool
	views       int64
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

func validateSpec(spec Spec) error {
	if spec.Title == "" {
		return domain.NewValidationError("title is required")
	}
	if spec.Description == "" {
		return domain.NewValidationError("description is required")
	}
	if !spec.Category.IsValid() {
		return domain.NewValidationError("invalid category: " + string(spec.Category))
	}
	if !spec.Condition.IsValid() {
		return domain.NewValidationError("invalid condition: " + string(spec.Condition))
	}
	if spec.DailyPrice <= 0 {
		return domain.NewValidationError("daily price must be positive")
	}
	if spec.Deposit < 0 || spec.DeliveryFee < 0 {
		return domain.NewValidationError("deposit and delivery fee cannot be negative")
	}
	if spec.Location.University == "" || spec.Location.Area == "" {
		return domain.NewValidationError("location university and area are required")
	}
	if len(spec.DeliveryOptions) == 0 {
		return domain.NewValidationError("at least one delivery option is required")
	}
	for _, opt := range spec.DeliveryOptions {
		if !opt.IsValid() {
			return domain.NewValidationError("invalid delivery option: " + string(opt))
		}
	}
	return nil
}

// NewItem creates a new available listing for the given owner.
func NewItem(ownerID uuid.UUID, spec Spec) (*Item, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Item{
		id:          uuid.New(),
		ownerID:     ownerID,
		spec:        spec,
		isAvailable: true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructItem rebuilds an Item from persistence data (no validation).
func ReconstructItem(
	id, ownerID uuid.UUID,
	spec Spec,
	isAvailable bool,
	views int64,
	version int64,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:          id,
		ownerID:     ownerID,
		spec:        spec,
		isAvailable: isAvailable,
		views:       views,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

// ID returns the item's unique identifier.
func (i *Item) ID() uuid.UUID { return i.id }

// OwnerID returns the listing owner's user ID.
func (i *Item) OwnerID() uuid.UUID { return i.ownerID }

// Spec returns the listing content.
func (i *Item) Spec() Spec { return i.spec }

// IsAvailable reports whether the listing is visible for new bookings.
func (i *Item) IsAvailable() bool { return i.isAvailable }

// Views returns the view counter.
func (i *Item) Views() int64 { return i.views }

// Version returns the entity version for optimistic locking.
func (i *Item) Version() int64 { return i.version }

// CreatedAt returns the creation timestamp.
func (i *Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

// IsOwnedBy reports whether the user owns this listing.
func (i *Item) IsOwnedBy(userID uuid.UUID) bool { return i.ownerID == userID }

// --- Behavior ---

// UpdateSpec replaces the listing content after validation.
func (i *Item) UpdateSpec(spec Spec) error {
	if err := validateSpec(spec); err != nil {
		return err
	}
	i.spec = spec
	i.updatedAt = time.Now().UTC()
	return nil
}

// SetAvailability toggles listing visibility.
func (i *Item) SetAvailability(available bool) {
	i.isAvailable = available
	i.updatedAt = time.Now().UTC()
}

// RecordView bumps the view counter.
func (i *Item) RecordView() {
	i.views++
}

// SupportsDelivery reports whether the owner offers the given handover method.
func (i *Item) SupportsDelivery(method bookingDomain.DeliveryMethod) bool {
	for _, opt := range i.spec.DeliveryOptions {
		if opt == method {
			return true
		}
	}
	return false
}

// Pricing returns the snapshot the booking flow copies at creation time.
func (i *Item) Pricing() PricingSnapshot {
	return PricingSnapshot{
		OwnerID:         i.ownerID,
		DailyPrice:      i.spec.DailyPrice,
		Deposit:         i.spec.Deposit,
		DeliveryFee:     i.spec.DeliveryFee,
		DeliveryOptions: i.spec.DeliveryOptions,
	}
}

// IncrementVersion bumps the version for optimistic locking.
func (i *Item) IncrementVersion() {
	i.version++
	i.updatedAt = time.Now().UTC()
}
