package product

import (
	"context"
	"errors"
	"strings"
	"time"

	categorydomain "catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/page"
	domain "catalog/backend/internal/domain/product"
	"catalog/backend/internal/domain/storage"
	"catalog/backend/internal/usecase/apperror"
	"catalog/backend/internal/usecase/instrument"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const resource = "product"

// Service encapsulates product use cases. It holds no state between calls.
type Service struct {
	products   domain.Repository
	categories categorydomain.Repository
	events     domain.EventPublisher
	logger     *zap.Logger
	obs        *instrument.Recorder
	nowFunc    func() time.Time
}

// NewService constructs a product service. A nil publisher disables events.
func NewService(
	products domain.Repository,
	categories categorydomain.Repository,
	events domain.EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = discardPublisher{}
	}
	return &Service{
		products:   products,
		categories: categories,
		events:     events,
		logger:     logger,
		obs:        instrument.New(resource, logger),
		nowFunc:    time.Now,
	}
}

// FindAllPaged returns one page of products, each mapped to a transfer object.
func (s *Service) FindAllPaged(ctx context.Context, req page.Request, filter domain.Filter) (_ page.Page[*ProductDTO], err error) {
	ctx, done := s.obs.Start(ctx, "find_all_paged",
		attribute.Int("page.number", req.Page),
		attribute.Int("page.size", req.Size),
	)
	defer func() { done(err) }()

	filter.Name = strings.TrimSpace(filter.Name)
	result, err := s.products.FindAll(ctx, req.Normalize(), filter)
	if err != nil {
		return page.Page[*ProductDTO]{}, err
	}
	return page.Map(result, NewProductDTO), nil
}

// FindByID fetches a product by id.
func (s *Service) FindByID(ctx context.Context, id int64) (_ *ProductDTO, err error) {
	ctx, done := s.obs.Start(ctx, "find_by_id", attribute.Int64("product.id", id))
	defer func() { done(err) }()

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyResult) {
			return nil, apperror.NotFound(resource, id, err)
		}
		return nil, err
	}
	return NewProductDTO(p), nil
}

// Insert stores a new product built from dto. The id carried by dto is
// ignored; the store assigns one.
func (s *Service) Insert(ctx context.Context, dto ProductDTO) (_ *ProductDTO, err error) {
	ctx, done := s.obs.Start(ctx, "insert")
	defer func() { done(err) }()

	entity := &domain.Product{}
	if err := s.copyDTOToEntity(ctx, dto, entity); err != nil {
		return nil, err
	}

	saved, err := s.products.Save(ctx, entity)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventCreated, saved)
	return NewProductDTO(saved), nil
}

// Update overwrites the fields and categories of the product identified by id.
// The product is only checked for existence when it is written.
func (s *Service) Update(ctx context.Context, id int64, dto ProductDTO) (_ *ProductDTO, err error) {
	ctx, done := s.obs.Start(ctx, "update", attribute.Int64("product.id", id))
	defer func() { done(err) }()

	if id <= 0 {
		return nil, apperror.NotFound(resource, id, storage.ErrEntityNotFound)
	}
	entity, err := s.products.GetReference(ctx, id)
	if err != nil {
		return nil, s.translateReference(id, err)
	}
	if err := s.copyDTOToEntity(ctx, dto, entity); err != nil {
		return nil, err
	}

	saved, err := s.products.Save(ctx, entity)
	if err != nil {
		return nil, s.translateReference(id, err)
	}
	s.publish(ctx, domain.EventUpdated, saved)
	return NewProductDTO(saved), nil
}

// Delete removes the product identified by id.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := s.obs.Start(ctx, "delete", attribute.Int64("product.id", id))
	defer func() { done(err) }()

	err = s.products.DeleteByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrEmptyResult):
		return apperror.NotFound(resource, id, err)
	case errors.Is(err, storage.ErrIntegrityViolation):
		return apperror.Integrity(resource, id, err)
	default:
		return err
	}

	s.publish(ctx, domain.EventDeleted, &domain.Product{ID: id})
	return nil
}

// copyDTOToEntity overwrites every scalar field and replaces the category
// associations with references resolved through the category store.
func (s *Service) copyDTOToEntity(ctx context.Context, dto ProductDTO, entity *domain.Product) error {
	entity.Name = strings.TrimSpace(dto.Name)
	entity.Description = dto.Description
	entity.Price = dto.Price
	entity.ImgURL = strings.TrimSpace(dto.ImgURL)
	entity.Date = dto.Date.UTC()

	entity.Categories = make([]*categorydomain.Category, 0, len(dto.Categories))
	for _, c := range dto.Categories {
		ref, err := s.categories.GetReference(ctx, c.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return apperror.NotFound("category", c.ID, err)
			}
			return err
		}
		entity.Categories = append(entity.Categories, ref)
	}
	return nil
}

func (s *Service) translateReference(id int64, err error) error {
	if errors.Is(err, storage.ErrEntityNotFound) {
		return apperror.NotFound(resource, id, err)
	}
	return err
}

func (s *Service) publish(ctx context.Context, t domain.EventType, p *domain.Product) {
	if err := s.events.Publish(ctx, domain.NewEvent(t, p, s.nowFunc())); err != nil {
		s.logger.Warn("product event not published",
			zap.String("type", string(t)),
			zap.Int64("product_id", p.ID),
			zap.Error(err),
		)
	}
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, domain.Event) error { return nil }
