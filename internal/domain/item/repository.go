package item

import (
	"context"

	"github.com/google/uuid"
)

// SortOrder selects the listing order for catalog queries.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortPopular   SortOrder = "popular"
)

// ListFilter narrows catalog queries. Zero values mean "no filter".
type ListFilter struct {
	Category Category
	Search   string
	MinPrice int64
	MaxPrice int64
	Sort     SortOrder
	Page     int
	Limit    int
}

// Repository defines persistence operations for catalog listings.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Item, error)
	List(ctx context.Context, filter ListFilter) ([]*Item, int64, error)
	Save(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}
