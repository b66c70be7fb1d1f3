package product

import (
	"context"

	"catalog/backend/internal/domain/page"
)

// Filter narrows paged product queries. Zero values disable a criterion.
type Filter struct {
	CategoryID int64
	Name       string
}

// Repository defines persistence behaviours for products.
//
// Failures are reported with the sentinels of the storage package.
type Repository interface {
	// FindByID returns storage.ErrEmptyResult when no product has the id.
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindAll(ctx context.Context, req page.Request, filter Filter) (page.Page[*Product], error)
	// Save inserts when ID is zero and updates otherwise, rewriting the
	// category associations in the same transaction. Updating a missing
	// product returns storage.ErrEntityNotFound.
	Save(ctx context.Context, p *Product) (*Product, error)
	// DeleteByID returns storage.ErrEmptyResult for unknown ids and
	// storage.ErrIntegrityViolation when other records depend on the product.
	DeleteByID(ctx context.Context, id int64) error
	// GetReference returns a handle carrying only the id. Existence is not
	// checked until the handle is written.
	GetReference(ctx context.Context, id int64) (*Product, error)
}

// EventPublisher delivers product change notifications.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
