package database

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Client-owned identifiers are negative integers counting down from -1.
// The server accepts them verbatim (idempotent upsert by primary key),
// so a record keeps the same id for its whole life on both sides and no
// remapping step exists.
//
// The lowest id ever handed out is persisted in meta alongside each
// allocating write, and the floor is re-seeded from existing rows on
// open, so a restart never reuses an id.

const metaIDFloor = "id_floor"

func (db *DB) seedIDFloor() error {
	floor := int64(0)

	if v, err := db.getMeta(metaIDFloor); err != nil {
		return err
	} else if v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse id floor %q: %w", v, err)
		}
		floor = n
	}

	// Belt and braces: never allocate above an id already present
	// locally, even if the persisted floor is missing
	for _, table := range SyncTables {
		var minID sql.NullInt64
		err := db.conn.QueryRow(fmt.Sprintf("SELECT MIN(id) FROM %s", table)).Scan(&minID)
		if err != nil {
			return fmt.Errorf("failed to seed id floor from %s: %w", table, err)
		}
		if minID.Valid && minID.Int64 < floor {
			floor = minID.Int64
		}
	}

	db.idMu.Lock()
	db.idFloor = floor
	db.idMu.Unlock()
	return nil
}

// allocateID hands out the next client-owned id and records the new
// floor in the same transaction as the write that consumes it
func (db *DB) allocateID(tx *sql.Tx) (int64, error) {
	db.idMu.Lock()
	db.idFloor--
	id := db.idFloor
	db.idMu.Unlock()

	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaIDFloor, strconv.FormatInt(id, 10))
	if err != nil {
		return 0, fmt.Errorf("failed to persist id floor: %w", err)
	}
	return id, nil
}
