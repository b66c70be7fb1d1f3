package product

import (
	"time"

	domain "catalog/backend/internal/domain/product"
	categoryusecase "catalog/backend/internal/usecase/category"

	"github.com/shopspring/decimal"
)

// ProductDTO is the boundary representation of a product with its category
// summaries inlined.
type ProductDTO struct {
	ID          int64                         `json:"id"`
	Name        string                        `json:"name" validate:"required,min=5,max=60"`
	Description string                        `json:"description"`
	Price       decimal.Decimal               `json:"price" validate:"gt=0"`
	ImgURL      string                        `json:"imgUrl" validate:"omitempty,url"`
	Date        time.Time                     `json:"date" validate:"notfuture"`
	Categories  []categoryusecase.CategoryDTO `json:"categories"`
}

// NewProductDTO projects an entity and its categories.
func NewProductDTO(p *domain.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImgURL:      p.ImgURL,
		Date:        p.Date,
		Categories:  make([]categoryusecase.CategoryDTO, 0, len(p.Categories)),
	}
	for _, c := range p.Categories {
		if c == nil {
			continue
		}
		dto.Categories = append(dto.Categories, *categoryusecase.NewCategoryDTO(c))
	}
	return dto
}
