package user

import (
	"context"
	"errors"
	"strings"

	domain "catalog/backend/internal/domain/auth"
	"catalog/backend/internal/domain/page"
	"catalog/backend/internal/domain/storage"
	"catalog/backend/internal/usecase/apperror"
	"catalog/backend/internal/usecase/instrument"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resource = "user"

// UserDTO is the outward representation of a user. It never carries a password.
type UserDTO struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"firstName" validate:"required,max=80"`
	LastName  string   `json:"lastName" validate:"max=80"`
	Email     string   `json:"email" validate:"required,email"`
	Roles     []string `json:"roles"`
}

// UserInsertDTO adds the initial password to a user payload.
type UserInsertDTO struct {
	UserDTO
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// NewUserDTO maps a domain user.
func NewUserDTO(u *domain.User) *UserDTO {
	roles := make([]string, 0, len(u.Roles))
	for _, a := range u.Authorities() {
		roles = append(roles, string(a))
	}
	return &UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     roles,
	}
}

// Service provides user management use cases for administrative workflows.
type Service struct {
	users domain.UserRepository
	roles domain.RoleRepository
	obs   *instrument.Recorder
	cost  int
}

// NewService constructs a user service around the provided repositories.
func NewService(users domain.UserRepository, roles domain.RoleRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users: users,
		roles: roles,
		obs:   instrument.New(resource, logger),
		cost:  bcrypt.DefaultCost,
	}
}

// FindAllPaged returns one page of users.
func (s *Service) FindAllPaged(ctx context.Context, req page.Request) (_ page.Page[*UserDTO], err error) {
	ctx, done := s.obs.Start(ctx, "find_all_paged")
	defer func() { done(err) }()

	result, err := s.users.FindAll(ctx, req.Normalize())
	if err != nil {
		return page.Page[*UserDTO]{}, err
	}
	return page.Map(result, NewUserDTO), nil
}

// FindByID retrieves a single user.
func (s *Service) FindByID(ctx context.Context, id int64) (_ *UserDTO, err error) {
	ctx, done := s.obs.Start(ctx, "find_by_id", attribute.Int64("user.id", id))
	defer func() { done(err) }()

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyResult) {
			return nil, apperror.NotFound(resource, id, err)
		}
		return nil, err
	}
	return NewUserDTO(u), nil
}

// Insert creates a user with a hashed password. Without roles the user
// becomes an operator.
func (s *Service) Insert(ctx context.Context, dto UserInsertDTO) (_ *UserDTO, err error) {
	ctx, done := s.obs.Start(ctx, "insert")
	defer func() { done(err) }()

	entity := &domain.User{}
	if err := s.copyDTOToEntity(ctx, dto.UserDTO, entity); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, entity.Email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, storage.ErrEmptyResult) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.cost)
	if err != nil {
		return nil, err
	}
	entity.PasswordHash = string(hashed)

	saved, err := s.users.Save(ctx, entity)
	if err != nil {
		return nil, err
	}
	return NewUserDTO(saved), nil
}

// Update overwrites profile fields and roles. The password is left as is.
func (s *Service) Update(ctx context.Context, id int64, dto UserDTO) (_ *UserDTO, err error) {
	ctx, done := s.obs.Start(ctx, "update", attribute.Int64("user.id", id))
	defer func() { done(err) }()

	entity, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyResult) {
			return nil, apperror.NotFound(resource, id, err)
		}
		return nil, err
	}
	if err := s.copyDTOToEntity(ctx, dto, entity); err != nil {
		return nil, err
	}

	saved, err := s.users.Save(ctx, entity)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, apperror.NotFound(resource, id, err)
		}
		return nil, err
	}
	return NewUserDTO(saved), nil
}

// Delete removes the target user.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := s.obs.Start(ctx, "delete", attribute.Int64("user.id", id))
	defer func() { done(err) }()

	err = s.users.DeleteByID(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrEmptyResult):
		return apperror.NotFound(resource, id, err)
	case errors.Is(err, storage.ErrIntegrityViolation):
		return apperror.Integrity(resource, id, err)
	default:
		return err
	}
}

func (s *Service) copyDTOToEntity(ctx context.Context, dto UserDTO, entity *domain.User) error {
	entity.FirstName = strings.TrimSpace(dto.FirstName)
	entity.LastName = strings.TrimSpace(dto.LastName)
	entity.Email = strings.TrimSpace(strings.ToLower(dto.Email))

	raw := dto.Roles
	if len(raw) == 0 {
		raw = []string{string(domain.RoleOperator)}
	}

	entity.Roles = entity.Roles[:0:0]
	seen := make(map[domain.Authority]bool, len(raw))
	for _, r := range raw {
		authority, err := domain.ParseAuthority(r)
		if err != nil {
			return err
		}
		if seen[authority] {
			continue
		}
		seen[authority] = true

		role, err := s.roles.FindByAuthority(ctx, authority)
		if err != nil {
			if errors.Is(err, storage.ErrEmptyResult) {
				return domain.ErrInvalidRole
			}
			return err
		}
		entity.Roles = append(entity.Roles, *role)
	}
	return nil
}
