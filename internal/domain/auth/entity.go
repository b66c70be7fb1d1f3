package auth

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already registered")
	// ErrTokenInvalid means a supplied token cannot be validated.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
)

// Authority identifies a privilege granted to a user.
type Authority string

const (
	// RoleOperator may manage the catalog.
	RoleOperator Authority = "ROLE_OPERATOR"
	// RoleAdmin may manage the catalog and users.
	RoleAdmin Authority = "ROLE_ADMIN"
)

// ParseAuthority accepts "admin", "ROLE_ADMIN" and similar spellings.
func ParseAuthority(raw string) (Authority, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(normalized, "ROLE_") {
		normalized = "ROLE_" + normalized
	}
	switch a := Authority(normalized); a {
	case RoleOperator, RoleAdmin:
		return a, nil
	default:
		return "", ErrInvalidRole
	}
}

// Role is a stored authority row.
type Role struct {
	ID        int64     `json:"id"`
	Authority Authority `json:"authority"`
}

// User models an account able to sign in to the catalog.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Roles        []Role `json:"roles"`
}

// HasAuthority reports whether the user holds any of the given authorities.
func (u *User) HasAuthority(wanted ...Authority) bool {
	for _, r := range u.Roles {
		for _, w := range wanted {
			if r.Authority == w {
				return true
			}
		}
	}
	return false
}

// Authorities flattens the user's roles.
func (u *User) Authorities() []Authority {
	out := make([]Authority, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Authority)
	}
	return out
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}
