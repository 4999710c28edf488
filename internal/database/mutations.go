package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"liftlog/internal/metrics"
)

// Action identifies the kind of change an outbox entry describes
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// recordMutation appends an outbox entry describing a domain write. It
// must run in the same transaction as the write itself: a mutation that
// commits without its outbox entry will never reach the server.
func recordMutation(tx *sql.Tx, table string, recordID int64, action Action, payload any) error {
	var data any
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", table, err)
		}
		data = string(raw)
	}

	_, err := tx.Exec(`
		INSERT INTO outbox (table_name, record_id, action, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?)
	`, table, recordID, string(action), data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record %s mutation: %w", table, err)
	}
	return nil
}

// SetMutationHook registers the callback fired after every committed
// domain mutation. The engine uses it to kick off an opportunistic
// sync; the hook must not block.
func (db *DB) SetMutationHook(fn func()) {
	db.hookMu.Lock()
	db.onMutation = fn
	db.hookMu.Unlock()
}

// mutationCommitted refreshes the pending-changes gauge and notifies
// the hook. Called after the enclosing transaction has committed, so a
// hook failure can never roll back the local write.
func (db *DB) mutationCommitted() {
	if n, err := db.PendingCount(); err == nil {
		metrics.PendingChanges.Set(float64(n))
	}

	db.hookMu.Lock()
	fn := db.onMutation
	db.hookMu.Unlock()
	if fn != nil {
		fn()
	}
}

// inTx runs fn inside a transaction and, on commit, fires the
// mutation-committed notification
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.mutationCommitted()
	return nil
}
