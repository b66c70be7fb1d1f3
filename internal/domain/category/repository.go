package category

import (
	"context"

	"catalog/backend/internal/domain/page"
)

// Repository defines persistence behaviours for categories.
//
// Failures are reported with the sentinels of the storage package.
type Repository interface {
	// FindByID returns storage.ErrEmptyResult when no category has the id.
	FindByID(ctx context.Context, id int64) (*Category, error)
	FindAll(ctx context.Context, req page.Request) (page.Page[*Category], error)
	// Save inserts when ID is zero and updates otherwise. Updating a missing
	// category returns storage.ErrEntityNotFound.
	Save(ctx context.Context, c *Category) (*Category, error)
	// DeleteByID returns storage.ErrEmptyResult for unknown ids and
	// storage.ErrIntegrityViolation while products still reference the category.
	DeleteByID(ctx context.Context, id int64) error
	// GetReference returns a handle carrying only the id. Existence is not
	// checked until the handle is written.
	GetReference(ctx context.Context, id int64) (*Category, error)
}
