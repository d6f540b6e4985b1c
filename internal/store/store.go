package store

import (
	"context"
	"errors"

	"backend-foodcart/internal/models"
)

var (
	ErrVendorNotFound = errors.New("store: vendor not found")
	ErrQueueNotFound  = errors.New("store: queue not found")
	ErrEntryNotFound  = errors.New("store: entry not found")
)

// Store is the persistence boundary of the queue subsystem. All writes are
// durable before the call returns; entries are never physically removed.
type Store interface {
	// GetVendor reads a vendor record. Vendors are written by the
	// surrounding application, never by this subsystem.
	GetVendor(ctx context.Context, vendorID int64) (*models.Vendor, error)

	// GetActiveQueue returns the vendor's active queue or ErrQueueNotFound.
	GetActiveQueue(ctx context.Context, vendorID int64) (*models.Queue, error)

	GetQueueByID(ctx context.Context, queueID int64) (*models.Queue, error)

	// CreateQueue opens a new active queue with currentServingNumber 0.
	CreateQueue(ctx context.Context, vendorID int64) (*models.Queue, error)

	// NextQueueNumber is one greater than the highest queue number ever
	// issued for the queue (1 when none issued). Derived from committed
	// rows, so a failed insert never leaves a gap in the sequence.
	NextQueueNumber(ctx context.Context, queueID int64) (int, error)

	// CountWaitingBefore counts waiting entries with a strictly smaller
	// queue number.
	CountWaitingBefore(ctx context.Context, queueID int64, queueNumber int) (int, error)

	// CountWaiting counts all waiting entries in the queue.
	CountWaiting(ctx context.Context, queueID int64) (int, error)

	// InsertEntry persists a new ticket and returns its id.
	InsertEntry(ctx context.Context, entry *models.QueueEntry) (int64, error)

	// FindEntryByNumber resolves a ticket via the vendor's active queue.
	FindEntryByNumber(ctx context.Context, vendorID int64, queueNumber int) (*models.QueueEntry, error)

	FindEntryByID(ctx context.Context, entryID int64) (*models.QueueEntry, error)

	// UpdateStatus sets the entry status in place.
	UpdateStatus(ctx context.Context, entryID int64, status string) error

	// ListActiveEntries returns non-terminal entries ordered by queue
	// number ascending.
	ListActiveEntries(ctx context.Context, queueID int64) ([]models.QueueEntry, error)
}
