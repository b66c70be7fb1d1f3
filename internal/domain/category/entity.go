package category

import "time"

// Category groups products. Products reference categories, they never own them.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
