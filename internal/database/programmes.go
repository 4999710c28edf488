package database

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateProgramme creates a programme owned by the user. New programmes
// start inactive.
func (db *DB) CreateProgramme(userID int64, name string) (*Programme, error) {
	now := time.Now().Unix()
	p := &Programme{UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}

	err := db.inTx(func(tx *sql.Tx) error {
		id, err := db.allocateID(tx)
		if err != nil {
			return err
		}
		p.ID = id

		_, err = tx.Exec(`
			INSERT INTO programmes (id, user_id, name, active, created_at, updated_at)
			VALUES (?, ?, ?, 0, ?, ?)
		`, p.ID, p.UserID, p.Name, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create programme: %w", err)
		}

		return recordMutation(tx, TableProgrammes, p.ID, ActionCreate, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ActivateProgramme makes the programme the user's active rotation,
// implicitly deactivating any other. The single-active invariant lives
// here in the write path, not in the schema.
func (db *DB) ActivateProgramme(userID, programmeID int64) error {
	return db.inTx(func(tx *sql.Tx) error {
		now := time.Now().Unix()

		rows, err := tx.Query(`
			SELECT id, user_id, name, active, created_at, updated_at
			FROM programmes
			WHERE user_id = ? AND active = 1 AND id != ?
		`, userID, programmeID)
		if err != nil {
			return fmt.Errorf("failed to query active programmes: %w", err)
		}
		var others []Programme
		for rows.Next() {
			var p Programme
			if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan programme: %w", err)
			}
			others = append(others, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, p := range others {
			p.Active = false
			p.UpdatedAt = now
			if _, err := tx.Exec(
				"UPDATE programmes SET active = 0, updated_at = ? WHERE id = ?",
				now, p.ID,
			); err != nil {
				return fmt.Errorf("failed to deactivate programme: %w", err)
			}
			if err := recordMutation(tx, TableProgrammes, p.ID, ActionUpdate, &p); err != nil {
				return err
			}
		}

		var target Programme
		err = tx.QueryRow(`
			SELECT id, user_id, name, active, created_at, updated_at
			FROM programmes WHERE id = ? AND user_id = ?
		`, programmeID, userID).Scan(
			&target.ID, &target.UserID, &target.Name, &target.Active,
			&target.CreatedAt, &target.UpdatedAt,
		)
		if err == sql.ErrNoRows {
			return fmt.Errorf("programme %d not found", programmeID)
		}
		if err != nil {
			return fmt.Errorf("failed to get programme: %w", err)
		}
		if target.Active {
			return nil
		}

		target.Active = true
		target.UpdatedAt = now
		if _, err := tx.Exec(
			"UPDATE programmes SET active = 1, updated_at = ? WHERE id = ?",
			now, target.ID,
		); err != nil {
			return fmt.Errorf("failed to activate programme: %w", err)
		}
		return recordMutation(tx, TableProgrammes, target.ID, ActionUpdate, &target)
	})
}

// DeleteProgramme removes a programme and cascades to its templates and
// their schedule entries, recording a tombstone for every removed record
func (db *DB) DeleteProgramme(programmeID int64) error {
	return db.inTx(func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT id FROM templates WHERE programme_id = ?", programmeID)
		if err != nil {
			return fmt.Errorf("failed to query programme templates: %w", err)
		}
		var templateIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan template id: %w", err)
			}
			templateIDs = append(templateIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range templateIDs {
			if err := deleteTemplateTx(tx, id); err != nil {
				return err
			}
		}

		if _, err := tx.Exec("DELETE FROM programmes WHERE id = ?", programmeID); err != nil {
			return fmt.Errorf("failed to delete programme: %w", err)
		}
		return recordMutation(tx, TableProgrammes, programmeID, ActionDelete, nil)
	})
}

// GetProgramme retrieves a programme by id
func (db *DB) GetProgramme(programmeID int64) (*Programme, error) {
	var p Programme
	err := db.conn.QueryRow(`
		SELECT id, user_id, name, active, created_at, updated_at
		FROM programmes WHERE id = ?
	`, programmeID).Scan(&p.ID, &p.UserID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get programme: %w", err)
	}
	return &p, nil
}

// ActiveProgramme returns the user's active programme, or nil
func (db *DB) ActiveProgramme(userID int64) (*Programme, error) {
	var p Programme
	err := db.conn.QueryRow(`
		SELECT id, user_id, name, active, created_at, updated_at
		FROM programmes WHERE user_id = ? AND active = 1
	`, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active programme: %w", err)
	}
	return &p, nil
}

// ListProgrammes returns all programmes owned by the user
func (db *DB) ListProgrammes(userID int64) ([]Programme, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, name, active, created_at, updated_at
		FROM programmes WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programmes: %w", err)
	}
	defer rows.Close()

	var programmes []Programme
	for rows.Next() {
		var p Programme
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan programme: %w", err)
		}
		programmes = append(programmes, p)
	}
	return programmes, rows.Err()
}
