package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"backend-foodcart/internal/models"
)

// MemoryStore keeps everything in process memory. It backs local
// development when DB_DSN is unset and every package-level test. Same
// durability contract as the SQL store minus the durability.
type MemoryStore struct {
	mu sync.RWMutex

	vendors map[int64]*models.Vendor
	queues  map[int64]*models.Queue
	entries map[int64]*models.QueueEntry

	nextQueueID  int64
	nextEntryID  int64
	nextVendorID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vendors: make(map[int64]*models.Vendor),
		queues:  make(map[int64]*models.Queue),
		entries: make(map[int64]*models.QueueEntry),
	}
}

// SaveVendor registers or replaces a vendor record. Stands in for the
// surrounding application that owns vendor data.
func (m *MemoryStore) SaveVendor(v *models.Vendor) *models.Vendor {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.ID == 0 {
		m.nextVendorID++
		v.ID = m.nextVendorID
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	saved := *v
	m.vendors[v.ID] = &saved
	return v
}

func (m *MemoryStore) GetVendor(_ context.Context, vendorID int64) (*models.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vendors[vendorID]
	if !ok {
		return nil, ErrVendorNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) GetActiveQueue(_ context.Context, vendorID int64) (*models.Queue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, q := range m.queues {
		if q.VendorID == vendorID && q.IsActive {
			cp := *q
			return &cp, nil
		}
	}
	return nil, ErrQueueNotFound
}

func (m *MemoryStore) GetQueueByID(_ context.Context, queueID int64) (*models.Queue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.queues[queueID]
	if !ok {
		return nil, ErrQueueNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *MemoryStore) CreateQueue(_ context.Context, vendorID int64) (*models.Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextQueueID++
	q := &models.Queue{
		ID:        m.nextQueueID,
		VendorID:  vendorID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.queues[q.ID] = q

	cp := *q
	return &cp, nil
}

func (m *MemoryStore) NextQueueNumber(_ context.Context, queueID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	max := 0
	for _, e := range m.entries {
		if e.QueueID == queueID && e.QueueNumber > max {
			max = e.QueueNumber
		}
	}
	return max + 1, nil
}

func (m *MemoryStore) CountWaitingBefore(_ context.Context, queueID int64, queueNumber int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if e.QueueID == queueID && e.Status == models.StatusWaiting && e.QueueNumber < queueNumber {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountWaiting(_ context.Context, queueID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if e.QueueID == queueID && e.Status == models.StatusWaiting {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertEntry(_ context.Context, entry *models.QueueEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextEntryID++
	now := time.Now()

	cp := *entry
	cp.ID = m.nextEntryID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.Items = append([]models.OrderItem(nil), entry.Items...)
	m.entries[cp.ID] = &cp

	return cp.ID, nil
}

func (m *MemoryStore) FindEntryByNumber(ctx context.Context, vendorID int64, queueNumber int) (*models.QueueEntry, error) {
	q, err := m.GetActiveQueue(ctx, vendorID)
	if err != nil {
		return nil, ErrEntryNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.QueueID == q.ID && e.QueueNumber == queueNumber {
			cp := *e
			cp.Items = append([]models.OrderItem(nil), e.Items...)
			return &cp, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (m *MemoryStore) FindEntryByID(_ context.Context, entryID int64) (*models.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	cp := *e
	cp.Items = append([]models.OrderItem(nil), e.Items...)
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, entryID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[entryID]
	if !ok {
		return ErrEntryNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ListActiveEntries(_ context.Context, queueID int64) ([]models.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.QueueEntry
	for _, e := range m.entries {
		if e.QueueID == queueID && !models.IsTerminalStatus(e.Status) {
			cp := *e
			cp.Items = append([]models.OrderItem(nil), e.Items...)
			entries = append(entries, cp)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueueNumber < entries[j].QueueNumber
	})
	return entries, nil
}
