package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a product lifecycle change.
type EventType string

const (
	EventCreated EventType = "product.created"
	EventUpdated EventType = "product.updated"
	EventDeleted EventType = "product.deleted"
)

// Event is emitted after a product change has been persisted.
type Event struct {
	Type      EventType       `json:"type"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent snapshots p for the given change type.
func NewEvent(t EventType, p *Product, at time.Time) Event {
	return Event{
		Type:      t,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Timestamp: at.UTC(),
	}
}
