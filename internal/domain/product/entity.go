package product

import (
	"time"

	"catalog/backend/internal/domain/category"

	"github.com/shopspring/decimal"
)

// Product captures the state of an individual catalog item.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImgURL      string
	Date        time.Time
	Categories  []*category.Category
}

// IsNew reports whether the store has yet to assign an identity.
func (p *Product) IsNew() bool {
	return p.ID == 0
}

// CategoryIDs lists the ids of the associated categories in order.
func (p *Product) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(p.Categories))
	for _, c := range p.Categories {
		if c != nil {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
