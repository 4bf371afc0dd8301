package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusrent/service-rental/internal/domain"
	bookingDomain "github.com/campusrent/service-rental/internal/domain/booking"
	itemDomain "github.com/campusrent/service-rental/internal/domain/item"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	Title           string          `gorm:"not null;size:200"`
	Description     string          `gorm:"not null;size:2000"`
	Category        string          `gorm:"not null;size:30;index"`
	Tags            json.RawMessage `gorm:"type:jsonb"`
	DailyPrice      int64           `gorm:"not null;index"`
	Deposit         int64           `gorm:"not null"`
	Images          json.RawMessage `gorm:"type:jsonb"`
	Location        json.RawMessage `gorm:"type:jsonb;not null"`
	DeliveryOptions json.RawMessage `gorm:"type:jsonb;not null"`
	DeliveryFee     int64           `gorm:"not null;default:0"`
	Condition       string          `gorm:"not null;size:20"`
	IsAvailable     bool            `gorm:"not null;default:true;index"`
	Views           int64           `gorm:"not null;default:0"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null;index"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ItemModel) TableName() string {
	return "items"
}

// GormItemRepository is the GORM-based implementation of the item repository.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository.
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID retrieves an item by its unique identifier.
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	var model ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("item", id.String())
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}
	return toDomainItem(&model)
}

// FindByOwnerID retrieves all items of an owner, newest first.
func (r *GormItemRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*itemDomain.Item, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner items: %w", err)
	}
	return toDomainItems(models)
}

// List retrieves available items matching the filter with paging.
func (r *GormItemRepository) List(ctx context.Context, filter itemDomain.ListFilter) ([]*itemDomain.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&ItemModel{}).Where("is_available = ?", true)

	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.MinPrice > 0 {
		query = query.Where("daily_price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("daily_price <= ?", filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	switch filter.Sort {
	case itemDomain.SortPriceAsc:
		query = query.Order("daily_price ASC")
	case itemDomain.SortPriceDesc:
		query = query.Order("daily_price DESC")
	case itemDomain.SortPopular:
		query = query.Order("views DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var models []ItemModel
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Offset(offset).Limit(filter.Limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}

	items, err := toDomainItems(models)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Save persists a new item.
func (r *GormItemRepository) Save(ctx context.Context, item *itemDomain.Item) error {
	model, err := toItemModel(item)
	if err != nil {
		return fmt.Errorf("failed to convert item to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// Update persists changes to an existing item.
func (r *GormItemRepository) Update(ctx context.Context, item *itemDomain.Item) error {
	model, err := toItemModel(item)
	if err != nil {
		return fmt.Errorf("failed to convert item to model: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"title":            model.Title,
			"description":      model.Description,
			"category":         model.Category,
			"tags":             model.Tags,
			"daily_price":      model.DailyPrice,
			"deposit":          model.Deposit,
			"images":           model.Images,
			"location":         model.Location,
			"delivery_options": model.DeliveryOptions,
			"delivery_fee":     model.DeliveryFee,
			"condition":        model.Condition,
			"is_available":     model.IsAvailable,
			"views":            model.Views,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("item", model.ID.String())
	}
	return nil
}

// Delete removes an item.
func (r *GormItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ItemModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("item", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toItemModel(item *itemDomain.Item) (*ItemModel, error) {
	spec := item.Spec()

	tagsJSON, err := json.Marshal(spec.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	imagesJSON, err := json.Marshal(spec.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	locationJSON, err := json.Marshal(spec.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	optionsJSON, err := json.Marshal(spec.DeliveryOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal delivery options: %w", err)
	}

	return &ItemModel{
		ID:              item.ID(),
		OwnerID:         item.OwnerID(),
		Title:           spec.Title,
		Description:     spec.Description,
		Category:        string(spec.Category),
		Tags:            tagsJSON,
		DailyPrice:      spec.DailyPrice,
		Deposit:         spec.Deposit,
		Images:          imagesJSON,
		Location:        locationJSON,
		DeliveryOptions: optionsJSON,
		DeliveryFee:     spec.DeliveryFee,
		Condition:       string(spec.Condition),
		IsAvailable:     item.IsAvailable(),
		Views:           item.Views(),
		Version:         item.Version(),
		CreatedAt:       item.CreatedAt(),
		UpdatedAt:       item.UpdatedAt(),
	}, nil
}

func toDomainItem(m *ItemModel) (*itemDomain.Item, error) {
	var tags []string
	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	var images []string
	if len(m.Images) > 0 {
		if err := json.Unmarshal(m.Images, &images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}
	var location itemDomain.Location
	if err := json.Unmarshal(m.Location, &location); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	var options []bookingDomain.DeliveryMethod
	if err := json.Unmarshal(m.DeliveryOptions, &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal delivery options: %w", err)
	}

	spec := itemDomain.Spec{
		Title:           m.Title,
		Description:     m.Description,
		Category:        itemDomain.Category(m.Category),
		Tags:            tags,
		DailyPrice:      m.DailyPrice,
		Deposit:         m.Deposit,
		Images:          images,
		Location:        location,
		DeliveryOptions: options,
		DeliveryFee:     m.DeliveryFee,
		Condition:       itemDomain.Condition(m.Condition),
	}

	return itemDomain.ReconstructItem(
		m.ID, m.OwnerID,
		spec,
		m.IsAvailable,
		m.Views,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}

func toDomainItems(models []ItemModel) ([]*itemDomain.Item, error) {
	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		item, err := toDomainItem(&models[i])
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}
