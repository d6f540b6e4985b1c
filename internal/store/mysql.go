package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"backend-foodcart/internal/models"
)

// SQLStore runs against MySQL. The DSN must carry parseTime=true so
// DATETIME columns scan into time.Time.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the queue tables if they do not exist yet. Vendors
// are owned by the surrounding application but the table is created here so
// a fresh database can serve joins immediately.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vendors (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			is_online TINYINT(1) NOT NULL DEFAULT 0,
			is_stationary TINYINT(1) NOT NULL DEFAULT 0,
			has_fixed_address TINYINT(1) NOT NULL DEFAULT 0,
			open_until DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS queues (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			vendor_id BIGINT NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			current_serving_number INT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_queues_vendor (vendor_id, is_active)
		)`,
		`CREATE TABLE IF NOT EXISTS queue_entries (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			queue_id BIGINT NOT NULL,
			customer_name VARCHAR(255) NOT NULL DEFAULT '',
			queue_number INT NOT NULL,
			items TEXT NOT NULL,
			total_amount DECIMAL(10,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'waiting',
			estimated_wait INT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_entries_number (queue_id, queue_number),
			KEY idx_entries_status (queue_id, status)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) GetVendor(ctx context.Context, vendorID int64) (*models.Vendor, error) {
	var v models.Vendor
	var openUntil sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_online, is_stationary, has_fixed_address, open_until, created_at, updated_at
		FROM vendors WHERE id = ?
	`, vendorID).Scan(
		&v.ID, &v.Name, &v.IsOnline, &v.IsStationary, &v.HasFixedAddress,
		&openUntil, &v.CreatedAt, &v.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}

	if openUntil.Valid {
		v.OpenUntil = &openUntil.Time
	}
	return &v, nil
}

func (s *SQLStore) GetActiveQueue(ctx context.Context, vendorID int64) (*models.Queue, error) {
	var q models.Queue

	err := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, is_active, current_serving_number, created_at
		FROM queues WHERE vendor_id = ? AND is_active = 1
		LIMIT 1
	`, vendorID).Scan(&q.ID, &q.VendorID, &q.IsActive, &q.CurrentServingNumber, &q.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active queue: %w", err)
	}
	return &q, nil
}

func (s *SQLStore) GetQueueByID(ctx context.Context, queueID int64) (*models.Queue, error) {
	var q models.Queue

	err := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, is_active, current_serving_number, created_at
		FROM queues WHERE id = ?
	`, queueID).Scan(&q.ID, &q.VendorID, &q.IsActive, &q.CurrentServingNumber, &q.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	return &q, nil
}

func (s *SQLStore) CreateQueue(ctx context.Context, vendorID int64) (*models.Queue, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO queues (vendor_id, is_active, current_serving_number, created_at)
		VALUES (?, 1, 0, NOW())
	`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("create queue: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create queue id: %w", err)
	}

	var q models.Queue
	err = s.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, is_active, current_serving_number, created_at
		FROM queues WHERE id = ?
	`, id).Scan(&q.ID, &q.VendorID, &q.IsActive, &q.CurrentServingNumber, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create queue readback: %w", err)
	}
	return &q, nil
}

func (s *SQLStore) NextQueueNumber(ctx context.Context, queueID int64) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(queue_number), 0) FROM queue_entries WHERE queue_id = ?
	`, queueID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next queue number: %w", err)
	}
	return max + 1, nil
}

func (s *SQLStore) CountWaitingBefore(ctx context.Context, queueID int64, queueNumber int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM queue_entries
		WHERE queue_id = ? AND status = 'waiting' AND queue_number < ?
	`, queueID, queueNumber).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waiting before: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CountWaiting(ctx context.Context, queueID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM queue_entries WHERE queue_id = ? AND status = 'waiting'
	`, queueID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waiting: %w", err)
	}
	return n, nil
}

func (s *SQLStore) InsertEntry(ctx context.Context, entry *models.QueueEntry) (int64, error) {
	items, err := json.Marshal(entry.Items)
	if err != nil {
		return 0, fmt.Errorf("marshal items: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_entries
		(queue_id, customer_name, queue_number, items, total_amount, status, estimated_wait, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`, entry.QueueID, entry.CustomerName, entry.QueueNumber, items,
		entry.TotalAmount, entry.Status, entry.EstimatedWait)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert entry id: %w", err)
	}
	return id, nil
}

const entryColumns = `
	e.id, e.queue_id, e.customer_name, e.queue_number, e.items,
	e.total_amount, e.status, e.estimated_wait, e.created_at, e.updated_at`

func (s *SQLStore) FindEntryByNumber(ctx context.Context, vendorID int64, queueNumber int) (*models.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries e
		JOIN queues q ON q.id = e.queue_id
		WHERE q.vendor_id = ? AND q.is_active = 1 AND e.queue_number = ?
		LIMIT 1
	`, vendorID, queueNumber)

	return scanEntry(row)
}

func (s *SQLStore) FindEntryByID(ctx context.Context, entryID int64) (*models.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries e
		WHERE e.id = ?
	`, entryID)

	return scanEntry(row)
}

func (s *SQLStore) UpdateStatus(ctx context.Context, entryID int64, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_entries SET status = ?, updated_at = NOW() WHERE id = ?
	`, status, entryID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *SQLStore) ListActiveEntries(ctx context.Context, queueID int64) ([]models.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries e
		WHERE e.queue_id = ? AND e.status != 'completed'
		ORDER BY e.queue_number ASC
	`, queueID)
	if err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryRow(row rowScanner) (*models.QueueEntry, error) {
	var e models.QueueEntry
	var items []byte

	err := row.Scan(
		&e.ID, &e.QueueID, &e.CustomerName, &e.QueueNumber, &items,
		&e.TotalAmount, &e.Status, &e.EstimatedWait, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &e.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return &e, nil
}

func scanEntry(row *sql.Row) (*models.QueueEntry, error) {
	entry, err := scanEntryRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return entry, nil
}
