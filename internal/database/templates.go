package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateTemplate creates a workout definition, assigning it a
// client-owned id
func (db *DB) CreateTemplate(t *Template) error {
	now := time.Now().Unix()
	t.CreatedAt = now
	t.UpdatedAt = now

	exercises, err := json.Marshal(t.Exercises)
	if err != nil {
		return fmt.Errorf("failed to marshal template exercises: %w", err)
	}

	return db.inTx(func(tx *sql.Tx) error {
		id, err := db.allocateID(tx)
		if err != nil {
			return err
		}
		t.ID = id

		_, err = tx.Exec(`
			INSERT INTO templates (id, user_id, programme_id, name, rest_seconds, exercises_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.UserID, t.ProgrammeID, t.Name, t.RestSeconds, string(exercises), t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}

		return recordMutation(tx, TableTemplates, t.ID, ActionCreate, t)
	})
}

// UpdateTemplate overwrites a template's definition
func (db *DB) UpdateTemplate(t *Template) error {
	t.UpdatedAt = time.Now().Unix()

	exercises, err := json.Marshal(t.Exercises)
	if err != nil {
		return fmt.Errorf("failed to marshal template exercises: %w", err)
	}

	return db.inTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE templates
			SET programme_id = ?, name = ?, rest_seconds = ?, exercises_json = ?, updated_at = ?
			WHERE id = ?
		`, t.ProgrammeID, t.Name, t.RestSeconds, string(exercises), t.UpdatedAt, t.ID)
		if err != nil {
			return fmt.Errorf("failed to update template: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("template %d not found", t.ID)
		}

		return recordMutation(tx, TableTemplates, t.ID, ActionUpdate, t)
	})
}

// DeleteTemplate removes a template and its schedule entries
func (db *DB) DeleteTemplate(templateID int64) error {
	return db.inTx(func(tx *sql.Tx) error {
		return deleteTemplateTx(tx, templateID)
	})
}

// deleteTemplateTx deletes a template and cascades to schedule entries,
// recording tombstones for everything removed
func deleteTemplateTx(tx *sql.Tx, templateID int64) error {
	rows, err := tx.Query("SELECT id FROM schedule WHERE template_id = ?", templateID)
	if err != nil {
		return fmt.Errorf("failed to query template schedule: %w", err)
	}
	var scheduleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan schedule id: %w", err)
		}
		scheduleIDs = append(scheduleIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range scheduleIDs {
		if _, err := tx.Exec("DELETE FROM schedule WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete schedule entry: %w", err)
		}
		if err := recordMutation(tx, TableSchedule, id, ActionDelete, nil); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DELETE FROM templates WHERE id = ?", templateID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return recordMutation(tx, TableTemplates, templateID, ActionDelete, nil)
}

func scanTemplate(scan func(dest ...any) error) (*Template, error) {
	var t Template
	var exercises string
	err := scan(&t.ID, &t.UserID, &t.ProgrammeID, &t.Name, &t.RestSeconds, &exercises, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(exercises), &t.Exercises); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template exercises: %w", err)
	}
	return &t, nil
}

const templateColumns = "id, user_id, programme_id, name, rest_seconds, exercises_json, created_at, updated_at"

// GetTemplate retrieves a template by id
func (db *DB) GetTemplate(templateID int64) (*Template, error) {
	row := db.conn.QueryRow(
		"SELECT "+templateColumns+" FROM templates WHERE id = ?", templateID)
	t, err := scanTemplate(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates owned by the user
func (db *DB) ListTemplates(userID int64) ([]Template, error) {
	rows, err := db.conn.Query(
		"SELECT "+templateColumns+" FROM templates WHERE user_id = ? ORDER BY created_at ASC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// TemplatesForProgramme returns the templates in a programme's rotation
func (db *DB) TemplatesForProgramme(programmeID int64) ([]Template, error) {
	rows, err := db.conn.Query(
		"SELECT "+templateColumns+" FROM templates WHERE programme_id = ? ORDER BY created_at ASC",
		programmeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programme templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}
