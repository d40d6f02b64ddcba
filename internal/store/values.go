package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DecayValue is a ledger row describing one decaying value's lifecycle. The
// content itself is never persisted — only shape and timing.
type DecayValue struct {
	ID         string
	Mode       string // "device" or "sim"
	ContentLen int
	DevicePath string
	CreatedAt  int64
	ClosedAt   *int64
}

// ReadObservation records what a single read of a value observed.
type ReadObservation struct {
	ID         int64
	ValueID    string
	ElapsedSec int
	Corrupted  int
	ObservedAt int64
}

// CreateValue inserts a ledger row for a newly constructed value.
func (db *DB) CreateValue(v *DecayValue) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO decay_values (id, mode, content_len, device_path, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)
	`, v.ID, v.Mode, v.ContentLen, v.DevicePath, now)
	if err != nil {
		return fmt.Errorf("create value: %w", err)
	}
	v.CreatedAt = now
	return nil
}

// GetValue returns a ledger row by id, or nil if unknown.
func (db *DB) GetValue(id string) (*DecayValue, error) {
	var v DecayValue
	var devicePath sql.NullString
	var closedAt sql.NullInt64
	err := db.QueryRow(`
		SELECT id, mode, content_len, device_path, created_at, closed_at
		FROM decay_values WHERE id = ?
	`, id).Scan(&v.ID, &v.Mode, &v.ContentLen, &devicePath, &v.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get value: %w", err)
	}
	v.DevicePath = devicePath.String
	if closedAt.Valid {
		v.ClosedAt = &closedAt.Int64
	}
	return &v, nil
}

// ListValues returns all ledger rows, newest first.
func (db *DB) ListValues() ([]DecayValue, error) {
	rows, err := db.Query(`
		SELECT id, mode, content_len, device_path, created_at, closed_at
		FROM decay_values ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list values: %w", err)
	}
	defer rows.Close()

	var out []DecayValue
	for rows.Next() {
		var v DecayValue
		var devicePath sql.NullString
		var closedAt sql.NullInt64
		if err := rows.Scan(&v.ID, &v.Mode, &v.ContentLen, &devicePath, &v.CreatedAt, &closedAt); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		v.DevicePath = devicePath.String
		if closedAt.Valid {
			v.ClosedAt = &closedAt.Int64
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MarkClosed stamps a value's closed_at. Closing an already-closed value is
// a no-op, keeping the ledger consistent with idempotent Close semantics.
func (db *DB) MarkClosed(id string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE decay_values SET closed_at = ?
		WHERE id = ? AND closed_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("mark closed: %w", err)
	}
	return nil
}

// RecordRead appends a read observation for a value.
func (db *DB) RecordRead(valueID string, elapsedSec, corrupted int) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO decay_reads (value_id, elapsed_sec, corrupted, observed_at)
		VALUES (?, ?, ?, ?)
	`, valueID, elapsedSec, corrupted, now)
	if err != nil {
		return fmt.Errorf("record read: %w", err)
	}
	return nil
}

// ReadsForValue returns a value's observations in chronological order.
func (db *DB) ReadsForValue(valueID string) ([]ReadObservation, error) {
	rows, err := db.Query(`
		SELECT id, value_id, elapsed_sec, corrupted, observed_at
		FROM decay_reads WHERE value_id = ? ORDER BY id
	`, valueID)
	if err != nil {
		return nil, fmt.Errorf("reads for value: %w", err)
	}
	defer rows.Close()

	var out []ReadObservation
	for rows.Next() {
		var r ReadObservation
		if err := rows.Scan(&r.ID, &r.ValueID, &r.ElapsedSec, &r.Corrupted, &r.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan read: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountOpen returns the number of values without a closed_at stamp.
func (db *DB) CountOpen() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM decay_values WHERE closed_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open: %w", err)
	}
	return n, nil
}
