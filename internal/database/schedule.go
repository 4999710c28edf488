package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SetSchedule assigns a template to a weekday (0 = Sunday). At most one
// entry exists per (user, weekday): any existing entry for the day is
// deleted before the new one is inserted.
func (db *DB) SetSchedule(userID int64, weekday int, templateID int64) (*ScheduleEntry, error) {
	if weekday < 0 || weekday > 6 {
		return nil, fmt.Errorf("weekday %d out of range", weekday)
	}

	entry := &ScheduleEntry{
		UserID:     userID,
		Weekday:    weekday,
		TemplateID: templateID,
		UpdatedAt:  time.Now().Unix(),
	}

	err := db.inTx(func(tx *sql.Tx) error {
		if err := clearScheduleDayTx(tx, userID, weekday); err != nil {
			return err
		}

		id, err := db.allocateID(tx)
		if err != nil {
			return err
		}
		entry.ID = id

		_, err = tx.Exec(`
			INSERT INTO schedule (id, user_id, weekday, template_id, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, entry.ID, entry.UserID, entry.Weekday, entry.TemplateID, entry.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create schedule entry: %w", err)
		}

		return recordMutation(tx, TableSchedule, entry.ID, ActionCreate, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearScheduleDay removes the template assigned to a weekday, if any
func (db *DB) ClearScheduleDay(userID int64, weekday int) error {
	return db.inTx(func(tx *sql.Tx) error {
		return clearScheduleDayTx(tx, userID, weekday)
	})
}

func clearScheduleDayTx(tx *sql.Tx, userID int64, weekday int) error {
	rows, err := tx.Query(
		"SELECT id FROM schedule WHERE user_id = ? AND weekday = ?",
		userID, weekday)
	if err != nil {
		return fmt.Errorf("failed to query schedule: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan schedule id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM schedule WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete schedule entry: %w", err)
		}
		if err := recordMutation(tx, TableSchedule, id, ActionDelete, nil); err != nil {
			return err
		}
	}
	return nil
}

// Schedule returns the user's weekly schedule ordered by weekday
func (db *DB) Schedule(userID int64) ([]ScheduleEntry, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, weekday, template_id, updated_at
		FROM schedule WHERE user_id = ?
		ORDER BY weekday ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Weekday, &e.TemplateID, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ScheduleForDay returns the entry for a weekday, or nil
func (db *DB) ScheduleForDay(userID int64, weekday int) (*ScheduleEntry, error) {
	var e ScheduleEntry
	err := db.conn.QueryRow(`
		SELECT id, user_id, weekday, template_id, updated_at
		FROM schedule WHERE user_id = ? AND weekday = ?
	`, userID, weekday).Scan(&e.ID, &e.UserID, &e.Weekday, &e.TemplateID, &e.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule entry: %w", err)
	}
	return &e, nil
}
