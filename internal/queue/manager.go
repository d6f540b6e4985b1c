package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"backend-foodcart/internal/models"
	"backend-foodcart/internal/store"
)

// MinutesPerOrder is the fixed per-order service-time assumption behind
// every wait estimate. A design constant, not a measured rate.
const MinutesPerOrder = 5

var (
	ErrVendorNotFound   = errors.New("queue: vendor not found")
	ErrVendorClosed     = errors.New("queue: vendor is not accepting orders")
	ErrEmptyItems       = errors.New("queue: items must not be empty")
	ErrInvalidAmount    = errors.New("queue: total amount must be a non-negative number")
	ErrQueueNotFound    = errors.New("queue: no active queue for vendor")
	ErrTicketNotFound   = errors.New("queue: ticket not found")
	ErrAlreadyCompleted = errors.New("queue: entry already completed")
)

// PresenceGate reports whether a vendor accepts new joins right now.
type PresenceGate interface {
	IsAccepting(ctx context.Context, vendorID int64) (bool, error)
}

type JoinRequest struct {
	VendorID     int64
	CustomerName string
	Items        []models.OrderItem
	TotalAmount  decimal.Decimal
}

type JoinResult struct {
	EntryID       int64
	QueueNumber   int
	Position      int
	EstimatedWait int
}

type TicketStatus struct {
	QueueNumber   int
	Position      int
	EstimatedWait int
	Status        string
	Items         []models.OrderItem
	TotalAmount   decimal.Decimal
}

type QueueSummary struct {
	QueueID              int64
	VendorID             int64
	CurrentServingNumber int
	TotalInQueue         int
	EstimatedWait        int
}

// Manager is the only component allowed to mutate queue state. Joins for
// one vendor are serialized with a per-vendor mutex held across the
// (number-allocation, insert) pair, so two concurrent joins can never read
// the same "max so far". A vendor has at most one active queue, which makes
// the per-vendor lock a per-queue lock.
type Manager struct {
	store store.Store
	gate  PresenceGate

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewManager(st store.Store, gate PresenceGate) *Manager {
	return &Manager{
		store: st,
		gate:  gate,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) vendorLock(vendorID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[vendorID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[vendorID] = lock
	}
	return lock
}

// Join admits a customer to the vendor's line. Validation and the presence
// check happen before anything touches the store.
func (m *Manager) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.TotalAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	accepting, err := m.gate.IsAccepting(ctx, req.VendorID)
	if err != nil {
		if errors.Is(err, store.ErrVendorNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("presence check: %w", err)
	}
	if !accepting {
		return nil, ErrVendorClosed
	}

	lock := m.vendorLock(req.VendorID)
	lock.Lock()
	defer lock.Unlock()

	q, err := m.activeQueue(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	number, err := m.store.NextQueueNumber(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	before, err := m.store.CountWaitingBefore(ctx, q.ID, number)
	if err != nil {
		return nil, err
	}
	position := before + 1
	wait := position * MinutesPerOrder

	entry := &models.QueueEntry{
		QueueID:       q.ID,
		CustomerName:  req.CustomerName,
		QueueNumber:   number,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		Status:        models.StatusWaiting,
		EstimatedWait: wait,
	}

	id, err := m.store.InsertEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	return &JoinResult{
		EntryID:       id,
		QueueNumber:   number,
		Position:      position,
		EstimatedWait: wait,
	}, nil
}

// Status re-reads a ticket. Position is derived on every call rather than
// stored, so it self-corrects as earlier tickets complete.
func (m *Manager) Status(ctx context.Context, vendorID int64, queueNumber int) (*TicketStatus, error) {
	entry, err := m.store.FindEntryByNumber(ctx, vendorID, queueNumber)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	before, err := m.store.CountWaitingBefore(ctx, entry.QueueID, entry.QueueNumber)
	if err != nil {
		return nil, err
	}
	position := before + 1

	return &TicketStatus{
		QueueNumber:   entry.QueueNumber,
		Position:      position,
		EstimatedWait: position * MinutesPerOrder,
		Status:        entry.Status,
		Items:         entry.Items,
		TotalAmount:   entry.TotalAmount,
	}, nil
}

// Complete drives an entry to completed. A second call on the same entry is
// a safe no-op signalled with ErrAlreadyCompleted; the entry is returned in
// both cases so callers can resolve the owning queue.
func (m *Manager) Complete(ctx context.Context, entryID int64) (*models.QueueEntry, error) {
	entry, err := m.store.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	if entry.Status == models.StatusCompleted {
		return entry, ErrAlreadyCompleted
	}

	if err := m.store.UpdateStatus(ctx, entryID, models.StatusCompleted); err != nil {
		return nil, err
	}

	entry.Status = models.StatusCompleted
	return entry, nil
}

// Summary fetches the vendor's queue overview, lazily creating the queue
// the first time anyone asks for it.
func (m *Manager) Summary(ctx context.Context, vendorID int64) (*QueueSummary, error) {
	if _, err := m.store.GetVendor(ctx, vendorID); err != nil {
		if errors.Is(err, store.ErrVendorNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}

	lock := m.vendorLock(vendorID)
	lock.Lock()
	q, err := m.activeQueue(ctx, vendorID)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	waiting, err := m.store.CountWaiting(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	return &QueueSummary{
		QueueID:              q.ID,
		VendorID:             q.VendorID,
		CurrentServingNumber: q.CurrentServingNumber,
		TotalInQueue:         waiting,
		EstimatedWait:        waiting * MinutesPerOrder,
	}, nil
}

// VendorQueue returns the queue plus all non-terminal entries in serving
// order for the vendor-facing board.
func (m *Manager) VendorQueue(ctx context.Context, vendorID int64) (*models.Queue, []models.QueueEntry, error) {
	q, err := m.store.GetActiveQueue(ctx, vendorID)
	if err != nil {
		if errors.Is(err, store.ErrQueueNotFound) {
			return nil, nil, ErrQueueNotFound
		}
		return nil, nil, err
	}

	entries, err := m.store.ListActiveEntries(ctx, q.ID)
	if err != nil {
		return nil, nil, err
	}
	return q, entries, nil
}

// VendorForQueue resolves the vendor owning a queue, for callers that only
// hold an entry.
func (m *Manager) VendorForQueue(ctx context.Context, queueID int64) (int64, error) {
	q, err := m.store.GetQueueByID(ctx, queueID)
	if err != nil {
		if errors.Is(err, store.ErrQueueNotFound) {
			return 0, ErrQueueNotFound
		}
		return 0, err
	}
	return q.VendorID, nil
}

// activeQueue must be called with the vendor lock held so concurrent
// callers cannot both create a queue.
func (m *Manager) activeQueue(ctx context.Context, vendorID int64) (*models.Queue, error) {
	q, err := m.store.GetActiveQueue(ctx, vendorID)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, store.ErrQueueNotFound) {
		return nil, err
	}
	return m.store.CreateQueue(ctx, vendorID)
}
