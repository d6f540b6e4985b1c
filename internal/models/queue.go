package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry statuses. Only waiting and completed are reachable through the
// exposed API; preparing and ready exist in the schema for the vendor
// workflow but no endpoint sets them yet.
const (
	StatusWaiting   = "waiting"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
)

// IsTerminalStatus reports whether a ticket in this status has left the line.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted
}

// Queue is one vendor's active line. At most one active queue exists per
// vendor; queues are created lazily on first join and never closed.
type Queue struct {
	ID                   int64     `json:"id"`
	VendorID             int64     `json:"vendor_id"`
	IsActive             bool      `json:"is_active"`
	CurrentServingNumber int       `json:"current_serving_number"`
	CreatedAt            time.Time `json:"created_at"`
}

// OrderItem is a snapshot of one cart line at join time. Prices are copied,
// not referenced — menu edits after the ticket is placed must not change it.
type OrderItem struct {
	DishID   int64           `json:"dish_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type QueueEntry struct {
	ID            int64           `json:"id"`
	QueueID       int64           `json:"queue_id"`
	CustomerName  string          `json:"customer_name"`
	QueueNumber   int             `json:"queue_number"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"` // waiting, preparing, ready, completed
	EstimatedWait int             `json:"estimated_wait"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
