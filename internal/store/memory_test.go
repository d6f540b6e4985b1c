package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-foodcart/internal/models"
)

func insertTestEntry(t *testing.T, st *MemoryStore, queueID int64, number int, status string) int64 {
	t.Helper()

	id, err := st.InsertEntry(context.Background(), &models.QueueEntry{
		QueueID:     queueID,
		QueueNumber: number,
		Items:       []models.OrderItem{{DishID: 1, Name: "Satay", Quantity: 1, Price: decimal.RequireFromString("4.50")}},
		TotalAmount: decimal.RequireFromString("4.50"),
		Status:      status,
	})
	require.NoError(t, err)
	return id
}

func TestMemoryStore_NextQueueNumber(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	q, err := st.CreateQueue(ctx, 1)
	require.NoError(t, err)

	n, err := st.NextQueueNumber(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	insertTestEntry(t, st, q.ID, 1, models.StatusWaiting)
	insertTestEntry(t, st, q.ID, 2, models.StatusCompleted)

	// Completed entries still pin the high-water mark; numbers are never reused.
	n, err = st.NextQueueNumber(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMemoryStore_CountWaitingBefore(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	q, err := st.CreateQueue(ctx, 1)
	require.NoError(t, err)

	insertTestEntry(t, st, q.ID, 1, models.StatusCompleted)
	insertTestEntry(t, st, q.ID, 2, models.StatusWaiting)
	insertTestEntry(t, st, q.ID, 3, models.StatusWaiting)

	n, err := st.CountWaitingBefore(ctx, q.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only waiting entries with a smaller number count")

	n, err = st.CountWaitingBefore(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryStore_ListActiveEntriesOrdered(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	q, err := st.CreateQueue(ctx, 1)
	require.NoError(t, err)

	insertTestEntry(t, st, q.ID, 3, models.StatusWaiting)
	insertTestEntry(t, st, q.ID, 1, models.StatusWaiting)
	insertTestEntry(t, st, q.ID, 2, models.StatusCompleted)

	entries, err := st.ListActiveEntries(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].QueueNumber)
	assert.Equal(t, 3, entries[1].QueueNumber)
}

func TestMemoryStore_UpdateStatusNotFound(t *testing.T) {
	st := NewMemoryStore()

	err := st.UpdateStatus(context.Background(), 77, models.StatusCompleted)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestMemoryStore_FindEntryByNumberNeedsActiveQueue(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.FindEntryByNumber(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	q, err := st.CreateQueue(ctx, 1)
	require.NoError(t, err)
	insertTestEntry(t, st, q.ID, 1, models.StatusWaiting)

	entry, err := st.FindEntryByNumber(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, q.ID, entry.QueueID)
}
