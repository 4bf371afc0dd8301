package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/campusrent/service-rental/internal/application"
	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	itemDomain "github.com/campusrent/service-rental/internal/domain/item"
	"github.com/campusrent/service-rental/internal/platform/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBookingRepo is a minimal in-memory booking store for handler tests.
type memBookingRepo struct {
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *memBookingRepo) FindByRenterID(_ context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.RenterID() == renterID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OwnerID() == ownerID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindHoldingByItemID(_ context.Context, itemID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.ItemID() == itemID && bk.Status().IsHolding() {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period().StartDate.Before(out[j].Period().StartDate)
	})
	return out, nil
}

func (r *memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	for _, existing := range r.bookings {
		if existing.ItemID() == b.ItemID() && existing.Status().IsHolding() &&
			b.Period().ConflictsWith(existing.Period()) {
			return domain.NewConflictError("item is not available for the selected dates")
		}
	}
	r.bookings[b.ID()] = b
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	if _, ok := r.bookings[b.ID()]; !ok {
		return domain.NewNotFoundError("booking", b.ID().String())
	}
	r.bookings[b.ID()] = b
	return nil
}

// memItemRepo is a minimal in-memory catalog for handler tests.
type memItemRepo struct {
	items map[uuid.UUID]*itemDomain.Item
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uuid.UUID]*itemDomain.Item)}
}

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("item", id.String())
	}
	return item, nil
}

func (r *memItemRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*itemDomain.Item, error) {
	var out []*itemDomain.Item
	for _, item := range r.items {
		if item.OwnerID() == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memItemRepo) List(_ context.Context, _ itemDomain.ListFilter) ([]*itemDomain.Item, int64, error) {
	return nil, 0, nil
}

func (r *memItemRepo) Save(_ context.Context, item *itemDomain.Item) error {
	r.items[item.ID()] = item
	return nil
}

func (r *memItemRepo) Update(_ context.Context, item *itemDomain.Item) error {
	r.items[item.ID()] = item
	return nil
}

func (r *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

type handlerFixture struct {
	router     *gin.Engine
	jwtManager *auth.JWTManager
	bookings   *memBookingRepo
	items      *memItemRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookings := newMemBookingRepo()
	items := newMemItemRepo()
	logger := zap.NewNop()

	availability := application.NewAvailabilityService(bookings, logger)
	bookingService := application.NewBookingService(bookings, items, availability, nil, logger)
	jwtManager := auth.NewJWTManager("handler-test-secret", 15*time.Minute)

	router := gin.New()
	NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	return &handlerFixture{router: router, jwtManager: jwtManager, bookings: bookings, items: items}
}

func (fx *handlerFixture) bearerFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := fx.jwtManager.GenerateAccessToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func (fx *handlerFixture) seedItem(t *testing.T, ownerID uuid.UUID) *itemDomain.Item {
	t.Helper()
	item, err := itemDomain.NewItem(ownerID, itemDomain.Spec{
		Title:       "Projector",
		Description: "1080p projector with HDMI cable",
		Category:    itemDomain.CategoryElectronics,
		DailyPrice:  100,
		Deposit:     50,
		Location: itemDomain.Location{
			University: "State University",
			Area:       "North Campus",
		},
		DeliveryOptions: []bookingDomain.DeliveryMethod{bookingDomain.DeliveryPickup},
		Condition:       itemDomain.ConditionGood,
	})
	require.NoError(t, err)
	require.NoError(t, fx.items.Save(context.Background(), item))
	return item
}

func (fx *handlerFixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func futureDate(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days).Truncate(time.Hour)
}

func TestBookingRoutesRequireAuth(t *testing.T) {
	fx := newHandlerFixture(t)

	w := fx.do(t, http.MethodPost, "/api/v1/bookings", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = fx.do(t, http.MethodGet, "/api/v1/bookings/my-bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = fx.do(t, http.MethodGet, "/api/v1/bookings/my-bookings", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	fx := newHandlerFixture(t)

	renterID := uuid.New()
	item := fx.seedItem(t, uuid.New())

	w := fx.do(t, http.MethodPost, "/api/v1/bookings", fx.bearerFor(t, renterID), gin.H{
		"item_id":         item.ID(),
		"start_date":      futureDate(10),
		"end_date":        futureDate(12),
		"delivery_method": "pickup",
		"pickup_location": "Library entrance",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Success bool                   `json:"success"`
		Data    application.BookingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "pending", body.Data.Status)
	assert.Equal(t, 3, body.Data.TotalDays)
	assert.Equal(t, int64(300), body.Data.TotalPrice)
}

func TestCreateBookingEndpointConflict(t *testing.T) {
	fx := newHandlerFixture(t)

	item := fx.seedItem(t, uuid.New())
	bearer := fx.bearerFor(t, uuid.New())

	payload := gin.H{
		"item_id":         item.ID(),
		"start_date":      futureDate(10),
		"end_date":        futureDate(12),
		"delivery_method": "pickup",
		"pickup_location": "Library entrance",
	}

	w := fx.do(t, http.MethodPost, "/api/v1/bookings", bearer, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w = fx.do(t, http.MethodPost, "/api/v1/bookings", fx.bearerFor(t, uuid.New()), payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "item is not available for the selected dates")
}

func TestCheckAvailabilityEndpointIsPublic(t *testing.T) {
	fx := newHandlerFixture(t)
	itemID := uuid.New()

	path := fmt.Sprintf("/api/v1/bookings/check-availability?item_id=%s&start_date=%s&end_date=%s",
		itemID,
		futureDate(10).Format(time.RFC3339),
		futureDate(12).Format(time.RFC3339),
	)

	w := fx.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data application.AvailabilityDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Available)

	w = fx.do(t, http.MethodGet, "/api/v1/bookings/check-availability?item_id=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusEndpointRoleGuard(t *testing.T) {
	fx := newHandlerFixture(t)

	ownerID := uuid.New()
	renterID := uuid.New()
	item := fx.seedItem(t, ownerID)

	w := fx.do(t, http.MethodPost, "/api/v1/bookings", fx.bearerFor(t, renterID), gin.H{
		"item_id":         item.ID(),
		"start_date":      futureDate(10),
		"end_date":        futureDate(12),
		"delivery_method": "pickup",
		"pickup_location": "Library entrance",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data application.BookingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	statusPath := fmt.Sprintf("/api/v1/bookings/%s/status", created.Data.ID)

	// The renter cannot confirm their own booking.
	w = fx.do(t, http.MethodPatch, statusPath, fx.bearerFor(t, renterID), gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "only the owner can confirm or reject bookings")

	w = fx.do(t, http.MethodPatch, statusPath, fx.bearerFor(t, ownerID), gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)

	// Off-table transitions map to 400.
	w = fx.do(t, http.MethodPatch, statusPath, fx.bearerFor(t, ownerID), gin.H{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	fx := newHandlerFixture(t)

	renterID := uuid.New()
	item := fx.seedItem(t, uuid.New())

	w := fx.do(t, http.MethodPost, "/api/v1/bookings", fx.bearerFor(t, renterID), gin.H{
		"item_id":         item.ID(),
		"start_date":      futureDate(10),
		"end_date":        futureDate(12),
		"delivery_method": "pickup",
		"pickup_location": "Library entrance",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data application.BookingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = fx.do(t, http.MethodDelete, "/api/v1/bookings/"+created.Data.ID.String(), fx.bearerFor(t, renterID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
}

func TestGetBookingEndpointHidesFromThirdParties(t *testing.T) {
	fx := newHandlerFixture(t)

	renterID := uuid.New()
	item := fx.seedItem(t, uuid.New())

	w := fx.do(t, http.MethodPost, "/api/v1/bookings", fx.bearerFor(t, renterID), gin.H{
		"item_id":         item.ID(),
		"start_date":      futureDate(10),
		"end_date":        futureDate(12),
		"delivery_method": "pickup",
		"pickup_location": "Library entrance",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data application.BookingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/v1/bookings/" + created.Data.ID.String()

	w = fx.do(t, http.MethodGet, path, fx.bearerFor(t, renterID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = fx.do(t, http.MethodGet, path, fx.bearerFor(t, uuid.New()), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
