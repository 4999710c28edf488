package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"liftlog/internal/api"
)

// Store is the server-side change log: one row per (user, table,
// record) holding the latest snapshot and the sequence number of the
// write that produced it. Upserts are idempotent by primary key so a
// batch redelivered after a lost response lands in the same place.
type Store struct {
	conn *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    token TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
    user_id INTEGER NOT NULL,
    table_name TEXT NOT NULL,
    record_id INTEGER NOT NULL,
    data TEXT,
    deleted INTEGER NOT NULL DEFAULT 0,
    seq INTEGER NOT NULL,
    PRIMARY KEY (user_id, table_name, record_id)
);

CREATE INDEX IF NOT EXISTS idx_records_user_seq ON records(user_id, seq);
`

// OpenStore opens the server store at the given path, creating the
// schema on first use
func OpenStore(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open server store: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping server store: %w", err)
	}
	if _, err := conn.Exec(storeSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize server schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the store
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureAccount creates or refreshes an account and publishes its user
// record into the change log so clients pull their own identity
func (s *Store) EnsureAccount(username, token string) (int64, error) {
	now := time.Now().Unix()

	_, err := s.conn.Exec(`
		INSERT INTO accounts (username, token, created_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET token = excluded.token
	`, username, token, now)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure account: %w", err)
	}

	var id int64
	if err := s.conn.QueryRow("SELECT id FROM accounts WHERE username = ?", username).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}

	record, err := json.Marshal(map[string]any{
		"id":         id,
		"username":   username,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal user record: %w", err)
	}
	err = s.ApplyChanges(id, []api.Change{{
		Table:    "users",
		RecordID: id,
		Action:   "create",
		Data:     record,
	}})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Authenticate resolves a bearer token to a user id
func (s *Store) Authenticate(token string) (int64, bool, error) {
	var id int64
	err := s.conn.QueryRow("SELECT id FROM accounts WHERE token = ?", token).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to authenticate: %w", err)
	}
	return id, true, nil
}

// ApplyChanges installs a pushed batch in order. Creates and updates
// both land as an upsert of the full snapshot (last write wins);
// deletes leave a tombstone so the record stays claimed.
func (s *Store) ApplyChanges(userID int64, changes []api.Change) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM records").Scan(&seq); err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	for _, change := range changes {
		seq++
		switch change.Action {
		case "create", "update":
			_, err = tx.Exec(`
				INSERT INTO records (user_id, table_name, record_id, data, deleted, seq)
				VALUES (?, ?, ?, ?, 0, ?)
				ON CONFLICT(user_id, table_name, record_id) DO UPDATE SET
					data = excluded.data,
					deleted = 0,
					seq = excluded.seq
			`, userID, change.Table, change.RecordID, string(change.Data), seq)
		case "delete":
			_, err = tx.Exec(`
				INSERT INTO records (user_id, table_name, record_id, data, deleted, seq)
				VALUES (?, ?, ?, NULL, 1, ?)
				ON CONFLICT(user_id, table_name, record_id) DO UPDATE SET
					data = NULL,
					deleted = 1,
					seq = excluded.seq
			`, userID, change.Table, change.RecordID, seq)
		default:
			return fmt.Errorf("unknown action %q", change.Action)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s/%d: %w", change.Table, change.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// ChangesSince returns the user's live records written after the given
// cursor, grouped by table, and the cursor describing the result
func (s *Store) ChangesSince(userID, since int64) (map[string][]json.RawMessage, int64, error) {
	rows, err := s.conn.Query(`
		SELECT table_name, data, seq FROM records
		WHERE user_id = ? AND seq > ? AND deleted = 0
		ORDER BY seq ASC
	`, userID, since)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	changes := make(map[string][]json.RawMessage)
	watermark := since
	for rows.Next() {
		var table, data string
		var seq int64
		if err := rows.Scan(&table, &data, &seq); err != nil {
			return nil, 0, fmt.Errorf("failed to scan change: %w", err)
		}
		changes[table] = append(changes[table], json.RawMessage(data))
		if seq > watermark {
			watermark = seq
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Tombstones advance the cursor even though they carry no record
	var maxSeq sql.NullInt64
	if err := s.conn.QueryRow(
		"SELECT MAX(seq) FROM records WHERE user_id = ?", userID,
	).Scan(&maxSeq); err != nil {
		return nil, 0, fmt.Errorf("failed to read user sequence: %w", err)
	}
	if maxSeq.Valid && maxSeq.Int64 > watermark {
		watermark = maxSeq.Int64
	}

	return changes, watermark, nil
}

// Snapshot returns every live record the user owns, grouped by table,
// with the cursor describing the snapshot
func (s *Store) Snapshot(userID int64) (map[string][]json.RawMessage, int64, error) {
	return s.ChangesSince(userID, 0)
}
