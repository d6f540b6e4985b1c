// Package poller keeps a customer's open ticket view current without
// server push. It re-fetches the ticket on a fixed interval and raises
// callbacks when the position improves or the order is ready for pickup.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultInterval between polls.
const DefaultInterval = 30 * time.Second

const (
	statusReady     = "ready"
	statusCompleted = "completed"
)

type Item struct {
	DishID   int64           `json:"dish_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type TicketStatus struct {
	QueueNumber   int             `json:"queue_number"`
	Position      int             `json:"position"`
	EstimatedWait int             `json:"estimated_wait"`
	Status        string          `json:"status"`
	Items         []Item          `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type Config struct {
	BaseURL     string
	VendorID    int64
	QueueNumber int

	// InitialPosition seeds the moved-up comparison with the position the
	// join call returned. Zero means the first poll sets the baseline.
	InitialPosition int

	// Interval defaults to DefaultInterval when zero.
	Interval time.Duration
	Client   *http.Client

	// OnUpdate fires on every successful poll.
	OnUpdate func(TicketStatus)
	// OnMovedUp fires when the position strictly decreases.
	OnMovedUp func(oldPosition, newPosition int)
	// OnReady fires once when the ticket becomes ready for pickup.
	// Polling continues afterwards until the ticket completes or the
	// context is cancelled.
	OnReady func(TicketStatus)
}

type Poller struct {
	cfg           Config
	lastPosition  int
	notifiedReady bool
}

func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Poller{
		cfg:          cfg,
		lastPosition: cfg.InitialPosition,
	}
}

// Run polls immediately and then on every tick until the ticket reaches a
// terminal status or ctx is cancelled. A failed poll is logged and retried
// on the next tick; it never surfaces to the caller mid-session.
func (p *Poller) Run(ctx context.Context) {
	if p.pollOnce(ctx) {
		return
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.pollOnce(ctx) {
				return
			}
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) bool {
	status, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-request; the result is simply discarded.
			return true
		}
		log.Printf("[poller] poll failed: %v", err)
		return false
	}

	p.dispatch(status)
	return status.Status == statusCompleted
}

func (p *Poller) fetch(ctx context.Context) (*TicketStatus, error) {
	url := fmt.Sprintf("%s/api/queue/status/%d/%d", p.cfg.BaseURL, p.cfg.QueueNumber, p.cfg.VendorID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}

	var status TicketStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (p *Poller) dispatch(status *TicketStatus) {
	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate(*status)
	}

	if p.lastPosition > 0 && status.Position < p.lastPosition && p.cfg.OnMovedUp != nil {
		p.cfg.OnMovedUp(p.lastPosition, status.Position)
	}
	p.lastPosition = status.Position

	if status.Status == statusReady && !p.notifiedReady {
		p.notifiedReady = true
		if p.cfg.OnReady != nil {
			p.cfg.OnReady(*status)
		}
	}
}
