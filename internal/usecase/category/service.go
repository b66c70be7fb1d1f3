package category

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/page"
	"catalog/backend/internal/domain/storage"
	"catalog/backend/internal/usecase/apperror"
	"catalog/backend/internal/usecase/instrument"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const resource = "category"

// CategoryDTO is the boundary representation of a category.
type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=120"`
}

// NewCategoryDTO projects an entity.
func NewCategoryDTO(c *domain.Category) *CategoryDTO {
	return &CategoryDTO{ID: c.ID, Name: c.Name}
}

// Service encapsulates category use cases.
type Service struct {
	repo    domain.Repository
	obs     *instrument.Recorder
	nowFunc func() time.Time
}

// NewService constructs a category service.
func NewService(repo domain.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		obs:     instrument.New(resource, logger),
		nowFunc: time.Now,
	}
}

// FindAllPaged returns one page of categories.
func (s *Service) FindAllPaged(ctx context.Context, req page.Request) (_ page.Page[*CategoryDTO], err error) {
	ctx, done := s.obs.Start(ctx, "find_all_paged", attribute.Int("page.number", req.Page))
	defer func() { done(err) }()

	result, err := s.repo.FindAll(ctx, req.Normalize())
	if err != nil {
		return page.Page[*CategoryDTO]{}, err
	}
	return page.Map(result, NewCategoryDTO), nil
}

// FindByID fetches a category by id.
func (s *Service) FindByID(ctx context.Context, id int64) (_ *CategoryDTO, err error) {
	ctx, done := s.obs.Start(ctx, "find_by_id", attribute.Int64("category.id", id))
	defer func() { done(err) }()

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyResult) {
			return nil, apperror.NotFound(resource, id, err)
		}
		return nil, err
	}
	return NewCategoryDTO(c), nil
}

// Insert stores a new category. Any id on dto is ignored.
func (s *Service) Insert(ctx context.Context, dto CategoryDTO) (_ *CategoryDTO, err error) {
	ctx, done := s.obs.Start(ctx, "insert")
	defer func() { done(err) }()

	now := s.nowFunc().UTC()
	saved, err := s.repo.Save(ctx, &domain.Category{
		Name:      strings.TrimSpace(dto.Name),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return NewCategoryDTO(saved), nil
}

// Update overwrites the category identified by id.
func (s *Service) Update(ctx context.Context, id int64, dto CategoryDTO) (_ *CategoryDTO, err error) {
	ctx, done := s.obs.Start(ctx, "update", attribute.Int64("category.id", id))
	defer func() { done(err) }()

	if id <= 0 {
		return nil, apperror.NotFound(resource, id, storage.ErrEntityNotFound)
	}
	entity, err := s.repo.GetReference(ctx, id)
	if err != nil {
		return nil, s.translateReference(id, err)
	}
	entity.Name = strings.TrimSpace(dto.Name)
	entity.UpdatedAt = s.nowFunc().UTC()

	saved, err := s.repo.Save(ctx, entity)
	if err != nil {
		return nil, s.translateReference(id, err)
	}
	return NewCategoryDTO(saved), nil
}

// Delete removes a category that no product references.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := s.obs.Start(ctx, "delete", attribute.Int64("category.id", id))
	defer func() { done(err) }()

	err = s.repo.DeleteByID(ctx, id)
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

func (s *Service) translateReference(id int64, err error) error {
	if errors.Is(err, storage.ErrEntityNotFound) {
		return apperror.NotFound(resource, id, err)
	}
	return err
}
