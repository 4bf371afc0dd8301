package application

import (
	"context"
	"fmt"
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	itemDomain "github.com/campusrent/service-rental/internal/domain/item"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateItemRequest is the request DTO for listing an item.
type CreateItemRequest struct {
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"description" binding:"required"`
	Category        string              `json:"category" binding:"required"`
	Tags            []string            `json:"tags"`
	DailyPrice      int64               `json:"daily_price" binding:"required"`
	Deposit         int64               `json:"deposit"`
	Images          []string            `json:"images"`
	Location        itemDomain.Location `json:"location" binding:"required"`
	DeliveryOptions []string            `json:"delivery_options" binding:"required"`
	DeliveryFee     int64               `json:"delivery_fee"`
	Condition       string              `json:"condition" binding:"required"`
}

// UpdateItemRequest mirrors CreateItemRequest for full listing updates.
type UpdateItemRequest = CreateItemRequest

// ItemDTO is the API response representation of a catalog listing.
type ItemDTO struct {
	ID              uuid.UUID           `json:"id"`
	OwnerID         uuid.UUID           `json:"owner_id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Category        string              `json:"category"`
	Tags            []string            `json:"tags"`
	DailyPrice      int64               `json:"daily_price"`
	Deposit         int64               `json:"deposit"`
	Images          []string            `json:"images"`
	Location        itemDomain.Location `json:"location"`
	DeliveryOptions []string            `json:"delivery_options"`
	DeliveryFee     int64               `json:"delivery_fee"`
	Condition       string              `json:"condition"`
	IsAvailable     bool                `json:"is_available"`
	Views           int64               `json:"views"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ItemService implements use cases for the rental catalog.
type ItemService struct {
	repo   itemDomain.Repository
	logger *zap.Logger
}

// NewItemService creates a new ItemService.
func NewItemService(repo itemDomain.Repository, logger *zap.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger}
}

func toSpec(req CreateItemRequest) itemDomain.Spec {
	options := make([]bookingDomain.DeliveryMethod, len(req.DeliveryOptions))
	for i, opt := range req.DeliveryOptions {
		options[i] = bookingDomain.DeliveryMethod(opt)
	}
	return itemDomain.Spec{
		Title:           req.Title,
		Description:     req.Description,
		Category:        itemDomain.Category(req.Category),
		Tags:            req.Tags,
		DailyPrice:      req.DailyPrice,
		Deposit:         req.Deposit,
		Images:          req.Images,
		Location:        req.Location,
		DeliveryOptions: options,
		DeliveryFee:     req.DeliveryFee,
		Condition:       itemDomain.Condition(req.Condition),
	}
}

// CreateItem lists a new item for the given owner.
func (s *ItemService) CreateItem(ctx context.Context, ownerID uuid.UUID, req CreateItemRequest) (*ItemDTO, error) {
	item, err := itemDomain.NewItem(ownerID, toSpec(req))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		s.logger.Error("failed to create item", zap.Error(err))
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("item listed",
		zap.String("item_id", item.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)
	result := toItemDTO(item)
	return &result, nil
}

// GetItem returns a single listing and bumps its view counter.
func (s *ItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.RecordView()
	if err := s.repo.Update(ctx, item); err != nil {
		// A lost view count is not worth failing the read.
		s.logger.Warn("failed to record view", zap.String("item_id", itemID.String()), zap.Error(err))
	}

	result := toItemDTO(item)
	return &result, nil
}

// ListItems returns available listings matching the filter.
func (s *ItemService) ListItems(ctx context.Context, filter itemDomain.ListFilter) (*domain.PaginatedResult[ItemDTO], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	result := domain.NewPaginatedResult(toItemDTOs(items), total, filter.Page, filter.Limit)
	return &result, nil
}

// GetTrendingItems returns the most viewed available listings.
func (s *ItemService) GetTrendingItems(ctx context.Context, limit int) ([]ItemDTO, error) {
	if limit < 1 {
		limit = 10
	}
	items, _, err := s.repo.List(ctx, itemDomain.ListFilter{Sort: itemDomain.SortPopular, Page: 1, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list trending items: %w", err)
	}
	return toItemDTOs(items), nil
}

// GetRecentItems returns the newest available listings.
func (s *ItemService) GetRecentItems(ctx context.Context, limit int) ([]ItemDTO, error) {
	if limit < 1 {
		limit = 10
	}
	items, _, err := s.repo.List(ctx, itemDomain.ListFilter{Sort: itemDomain.SortNewest, Page: 1, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent items: %w", err)
	}
	return toItemDTOs(items), nil
}

// GetMyItems returns all listings of the given owner, newest first.
func (s *ItemService) GetMyItems(ctx context.Context, ownerID uuid.UUID) ([]ItemDTO, error) {
	items, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return toItemDTOs(items), nil
}

// UpdateItem replaces the listing content, owner only.
func (s *ItemService) UpdateItem(ctx context.Context, itemID, userID uuid.UUID, req UpdateItemRequest) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(userID) {
		return nil, domain.NewForbiddenError("you can only update your own items")
	}

	if err := item.UpdateSpec(toSpec(req)); err != nil {
		return nil, err
	}

	item.IncrementVersion()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	result := toItemDTO(item)
	return &result, nil
}

// DeleteItem removes the listing, owner only.
func (s *ItemService) DeleteItem(ctx context.Context, itemID, userID uuid.UUID) error {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if !item.IsOwnedBy(userID) {
		return domain.NewForbiddenError("you can only delete your own items")
	}

	return s.repo.Delete(ctx, itemID)
}

func toItemDTO(item *itemDomain.Item) ItemDTO {
	spec := item.Spec()
	options := make([]string, len(spec.DeliveryOptions))
	for i, opt := range spec.DeliveryOptions {
		options[i] = string(opt)
	}

	return ItemDTO{
		ID:              item.ID(),
		OwnerID:         item.OwnerID(),
		Title:           spec.Title,
		Description:     spec.Description,
		Category:        string(spec.Category),
		Tags:            spec.Tags,
		DailyPrice:      spec.DailyPrice,
		Deposit:         spec.Deposit,
		Images:          spec.Images,
		Location:        spec.Location,
		DeliveryOptions: options,
		DeliveryFee:     spec.DeliveryFee,
		Condition:       string(spec.Condition),
		IsAvailable:     item.IsAvailable(),
		Views:           item.Views(),
		CreatedAt:       item.CreatedAt(),
		UpdatedAt:       item.UpdatedAt(),
	}
}

func toItemDTOs(items []*itemDomain.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos
}
