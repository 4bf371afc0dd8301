package handler

import (
	"net/http"
	"time"

	"github.com/campusrent/service-rental/internal/application"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	"github.com/campusrent/service-rental/internal/platform/auth"
	"github.com/campusrent/service-rental/internal/platform/middleware"
	"github.com/campusrent/service-rental/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
// The availability check is public; everything else requires auth.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	{
		bookings.GET("/check-availability", h.CheckAvailability)

		bookings.POST("", authMW, h.CreateBooking)
		bookings.GET("/my-bookings", authMW, h.ListMyBookings)
		bookings.GET("/my-requests", authMW, h.ListMyRequests)
		bookings.GET("/:id", authMW, h.GetBooking)
		bookings.PATCH("/:id/status", authMW, h.UpdateStatus)
		bookings.POST("/:id/condition", authMW, h.AttachCondition)
		bookings.DELETE("/:id", authMW, h.CancelBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings/my-bookings (user as renter).
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetRenterBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyRequests handles GET /api/v1/bookings/my-requests (user as owner).
func (h *BookingHandler) ListMyRequests(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetOwnerBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckAvailability handles GET /api/v1/bookings/check-availability.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	itemID, err := uuid.Parse(c.Query("item_id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	startDate, err := time.Parse(time.RFC3339, c.Query("start_date"))
	if err != nil {
		response.BadRequest(c, "invalid start date")
		return
	}
	endDate, err := time.Parse(time.RFC3339, c.Query("end_date"))
	if err != nil {
		response.BadRequest(c, "invalid end date")
		return
	}

	period := bookingDomain.RentalPeriod{StartDate: startDate, EndDate: endDate}
	result, err := h.service.CheckItemAvailability(c.Request.Context(), itemID, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PATCH /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBookingStatus(c.Request.Context(), bookingID, req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AttachCondition handles POST /api/v1/bookings/:id/condition.
func (h *BookingHandler) AttachCondition(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.AttachConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AttachCondition(c.Request.Context(), bookingID, req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles DELETE /api/v1/bookings/:id (renter fast path).
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
