package database

import (
	"encoding/json"
	"fmt"
	"strings"

	"liftlog/internal/metrics"
)

// OutboxEntry is one pending local mutation awaiting delivery
type OutboxEntry struct {
	ID         int64
	Table      string
	RecordID   int64
	Action     Action
	Payload    json.RawMessage
	EnqueuedAt int64
}

// ListOutbox returns all pending entries in enqueue order
func (db *DB) ListOutbox() ([]OutboxEntry, error) {
	rows, err := db.conn.Query(`
		SELECT id, table_name, record_id, action, payload, enqueued_at
		FROM outbox
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var action string
		var payload *string
		if err := rows.Scan(&e.ID, &e.Table, &e.RecordID, &action, &payload, &e.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		e.Action = Action(action)
		if payload != nil {
			e.Payload = json.RawMessage(*payload)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOutboxEntries removes exactly the given entries, leaving
// anything enqueued concurrently with the push in place
func (db *DB) DeleteOutboxEntries(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	_, err := db.conn.Exec(
		fmt.Sprintf("DELETE FROM outbox WHERE id IN (%s)", strings.Join(placeholders, ",")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete outbox entries: %w", err)
	}

	if n, err := db.PendingCount(); err == nil {
		metrics.PendingChanges.Set(float64(n))
	}
	return nil
}

// PendingCount returns the number of local changes not yet accepted by
// the server
func (db *DB) PendingCount() (int, error) {
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM outbox").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return n, nil
}
