package models

import (
	"time"
)

// Vendor is owned by the surrounding application; the queue subsystem only
// reads it to decide whether new joins are admitted.
type Vendor struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	IsOnline        bool       `json:"is_online"`
	IsStationary    bool       `json:"is_stationary"`
	HasFixedAddress bool       `json:"has_fixed_address"`
	OpenUntil       *time.Time `json:"open_until"` // set by mobile push-cart operators when going live
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
