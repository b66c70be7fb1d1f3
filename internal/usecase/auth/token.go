package auth

import domain "catalog/backend/internal/domain/auth"

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Generate(user *domain.User) (string, error)
	// Validate returns the id of the user the token was issued to.
	Validate(token string) (int64, error)
}
