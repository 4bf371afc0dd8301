package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	itemDomain "github.com/campusrent/service-rental/internal/domain/item"
	"github.com/google/uuid"
)

// fakeBookingRepository is an in-memory booking store mirroring the GORM
// implementation's contract: the transactional conflict re-check on Save,
// the version guard on Update, and reads that rehydrate a fresh aggregate
// so caller mutations never reach the store until Update succeeds.
type fakeBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	versions map[uuid.UUID]int64
}

// cloneBooking rehydrates a detached copy of a stored aggregate, the same
// way the GORM repository reconstructs one from a row.
func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	var before, after *bookingDomain.ConditionRecord
	if b.ConditionBefore() != nil {
		rec := *b.ConditionBefore()
		before = &rec
	}
	if b.ConditionAfter() != nil {
		rec := *b.ConditionAfter()
		after = &rec
	}
	return bookingDomain.ReconstructBooking(
		b.ID(), b.ItemID(), b.RenterID(), b.OwnerID(),
		b.Period(), b.TotalDays(),
		b.DailyPrice(), b.TotalPrice(), b.Deposit(), b.DeliveryFee(),
		b.DeliveryMethod(), b.DeliveryAddress(), b.PickupLocation(),
		b.Status(), b.StatusHistory(),
		before, after,
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func newFakeBookingRepository() *fakeBookingRepository {
	return &fakeBookingRepository{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		versions: make(map[uuid.UUID]int64),
	}
}

func (r *fakeBookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *fakeBookingRepository) FindByRenterID(_ context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.RenterID() == renterID {
			out = append(out, cloneBooking(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

func (r *fakeBookingRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OwnerID() == ownerID {
			out = append(out, cloneBooking(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

func (r *fakeBookingRepository) FindHoldingByItemID(_ context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	holding := r.holdingByItemLocked(itemID)
	out := make([]*bookingDomain.Booking, len(holding))
	for i, bk := range holding {
		out[i] = cloneBooking(bk)
	}
	return out, nil
}

func (r *fakeBookingRepository) holdingByItemLocked(itemID uuid.UUID) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.ItemID() == itemID && bk.Status().IsHolding() {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period().StartDate.Before(out[j].Period().StartDate)
	})
	return out
}

func (r *fakeBookingRepository) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.holdingByItemLocked(b.ItemID()) {
		if b.Period().ConflictsWith(existing.Period()) {
			return domain.NewConflictError("item is not available for the selected dates")
		}
	}
	r.bookings[b.ID()] = cloneBooking(b)
	r.versions[b.ID()] = b.Version()
	return nil
}

func (r *fakeBookingRepository) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.versions[b.ID()]
	if !ok {
		return domain.NewNotFoundError("booking", b.ID().String())
	}
	if stored != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = cloneBooking(b)
	r.versions[b.ID()] = b.Version()
	return nil
}

// seed stores a booking without the conflict check, for arranging test state.
func (r *fakeBookingRepository) seed(b *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b
	r.versions[b.ID()] = b.Version()
}

// fakeItemRepository is an in-memory catalog store.
type fakeItemRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*itemDomain.Item
}

func newFakeItemRepository() *fakeItemRepository {
	return &fakeItemRepository{items: make(map[uuid.UUID]*itemDomain.Item)}
}

func (r *fakeItemRepository) FindByID(_ context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("item", id.String())
	}
	return item, nil
}

func (r *fakeItemRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*itemDomain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*itemDomain.Item
	for _, item := range r.items {
		if item.OwnerID() == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeItemRepository) List(_ context.Context, filter itemDomain.ListFilter) ([]*itemDomain.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*itemDomain.Item
	for _, item := range r.items {
		if !item.IsAvailable() {
			continue
		}
		if filter.Category != "" && item.Spec().Category != filter.Category {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, int64(len(out)), nil
}

func (r *fakeItemRepository) Save(_ context.Context, item *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID()] = item
	return nil
}

func (r *fakeItemRepository) Update(_ context.Context, item *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID()]; !ok {
		return domain.NewNotFoundError("item", item.ID().String())
	}
	r.items[item.ID()] = item
	return nil
}

func (r *fakeItemRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.NewNotFoundError("item", id.String())
	}
	delete(r.items, id)
	return nil
}

// --- Shared fixtures ---

func testDate(d int) time.Time {
	return time.Date(2030, 6, d, 0, 0, 0, 0, time.UTC)
}

func testPeriod(start, end int) bookingDomain.RentalPeriod {
	return bookingDomain.RentalPeriod{StartDate: testDate(start), EndDate: testDate(end)}
}

func seedItem(repo *fakeItemRepository, ownerID uuid.UUID) *itemDomain.Item {
	spec := itemDomain.Spec{
		Title:       "Scientific calculator",
		Description: "TI-84, barely used",
		Category:    itemDomain.CategoryElectronics,
		DailyPrice:  100,
		Deposit:     50,
		Location: itemDomain.Location{
			University: "State University",
			Area:       "North Campus",
		},
		DeliveryOptions: []bookingDomain.DeliveryMethod{
			bookingDomain.DeliveryPickup, bookingDomain.DeliveryDelivery,
		},
		DeliveryFee: 20,
		Condition:   itemDomain.ConditionLikeNew,
	}
	item, err := itemDomain.NewItem(ownerID, spec)
	if err != nil {
		panic(err)
	}
	_ = repo.Save(context.Background(), item)
	return item
}

func createItemFromSpec(repo *fakeItemRepository, ownerID uuid.UUID, spec itemDomain.Spec) (*itemDomain.Item, error) {
	item, err := itemDomain.NewItem(ownerID, spec)
	if err != nil {
		return nil, err
	}
	if err := repo.Save(context.Background(), item); err != nil {
		return nil, err
	}
	return item, nil
}

func seedBooking(repo *fakeBookingRepository, itemID, renterID, ownerID uuid.UUID, period bookingDomain.RentalPeriod) *bookingDomain.Booking {
	bk, err := bookingDomain.NewBooking(
		itemID, renterID, ownerID,
		period,
		100, 50, 0,
		bookingDomain.DeliveryPickup,
		"", "Library entrance",
	)
	if err != nil {
		panic(err)
	}
	repo.seed(bk)
	return bk
}
