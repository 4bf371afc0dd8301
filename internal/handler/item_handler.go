package handler

import (
	"net/http"
	"strconv"

	"github.com/campusrent/service-rental/internal/application"
	itemDomain "github.com/campusrent/service-rental/internal/domain/item"
	"github.com/campusrent/service-rental/internal/platform/auth"
	"github.com/campusrent/service-rental/internal/platform/middleware"
	"github.com/campusrent/service-rental/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ItemHandler handles HTTP requests for the rental catalog.
type ItemHandler struct {
	service *application.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *application.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// RegisterRoutes registers all item routes on the given router group.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	items := r.Group("/api/v1/items")
	{
		items.GET("", h.ListItems)
		items.GET("/trending", h.ListTrending)
		items.GET("/recent", h.ListRecent)
		items.GET("/my-items", authMW, h.ListMyItems)
		items.GET("/:id", h.GetItem)

		items.POST("", authMW, h.CreateItem)
		items.PATCH("/:id", authMW, h.UpdateItem)
		items.DELETE("/:id", authMW, h.DeleteItem)
	}
}

// CreateItem handles POST /api/v1/items.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateItem(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListItems handles GET /api/v1/items with filter and sort query parameters.
func (h *ItemHandler) ListItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	minPrice, _ := strconv.ParseInt(c.DefaultQuery("min_price", "0"), 10, 64)
	maxPrice, _ := strconv.ParseInt(c.DefaultQuery("max_price", "0"), 10, 64)

	filter := itemDomain.ListFilter{
		Category: itemDomain.Category(c.Query("category")),
		Search:   c.Query("search"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     itemDomain.SortOrder(c.Query("sort")),
		Page:     page,
		Limit:    limit,
	}

	result, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListTrending handles GET /api/v1/items/trending.
func (h *ItemHandler) ListTrending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.GetTrendingItems(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListRecent handles GET /api/v1/items/recent.
func (h *ItemHandler) ListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.GetRecentItems(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyItems handles GET /api/v1/items/my-items.
func (h *ItemHandler) ListMyItems(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetMyItems(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetItem handles GET /api/v1/items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateItem handles PATCH /api/v1/items/:id.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateItem(c.Request.Context(), itemID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteItem handles DELETE /api/v1/items/:id.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), itemID, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
