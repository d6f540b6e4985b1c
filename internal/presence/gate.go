package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"backend-foodcart/internal/models"
)

const (
	cacheKeyFormat = "vendor:accepting:%d"
	cacheTTL       = 30 * time.Second
)

// VendorSource supplies vendor records. The queue subsystem never writes
// them.
type VendorSource interface {
	GetVendor(ctx context.Context, vendorID int64) (*models.Vendor, error)
}

// Gate answers one question per vendor: accepting new queue joins right
// now. Answers are cached in Redis for a short TTL; going offline never
// cancels already-waiting tickets, so a stale answer within the TTL is
// harmless.
type Gate struct {
	source VendorSource
	redis  *redis.Client
}

func NewGate(source VendorSource, rdb *redis.Client) *Gate {
	return &Gate{source: source, redis: rdb}
}

func (g *Gate) IsAccepting(ctx context.Context, vendorID int64) (bool, error) {
	key := fmt.Sprintf(cacheKeyFormat, vendorID)

	if g.redis != nil {
		val, err := g.redis.Get(ctx, key).Result()
		if err == nil {
			return val == "1", nil
		}
		if err != redis.Nil {
			log.Printf("[presence] cache read error: %v", err)
		}
	}

	vendor, err := g.source.GetVendor(ctx, vendorID)
	if err != nil {
		return false, err
	}

	accepting := AcceptingNow(vendor, time.Now())

	if g.redis != nil {
		val := "0"
		if accepting {
			val = "1"
		}
		if err := g.redis.Set(ctx, key, val, cacheTTL).Err(); err != nil {
			log.Printf("[presence] cache write error: %v", err)
		}
	}

	return accepting, nil
}

// AcceptingNow applies the vendor presence rules. Stationary vendors and
// carts with a fixed pitch accept whenever they are online; a mobile
// push-cart additionally needs an operator-set "open until" timestamp that
// has not passed.
func AcceptingNow(v *models.Vendor, now time.Time) bool {
	if !v.IsOnline {
		return false
	}
	if v.IsStationary || v.HasFixedAddress {
		return true
	}
	return v.OpenUntil != nil && now.Before(*v.OpenUntil)
}
