package auth

import (
	"context"

	"catalog/backend/internal/domain/page"
)

// UserRepository defines persistence operations for catalog users.
//
// Missing ids are reported with storage.ErrEmptyResult, updates of missing
// users with storage.ErrEntityNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, req page.Request) (page.Page[*User], error)
	// Save inserts when ID is zero and updates otherwise. A duplicate email
	// yields ErrEmailExists.
	Save(ctx context.Context, user *User) (*User, error)
	DeleteByID(ctx context.Context, id int64) error
}

// RoleRepository resolves authorities to stored role rows.
type RoleRepository interface {
	FindByAuthority(ctx context.Context, authority Authority) (*Role, error)
}
