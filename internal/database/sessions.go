package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSessionExists is returned when starting a session for a template
// that already has one in progress
var ErrSessionExists = errors.New("an active session already exists for this template")

// CreateActiveSession inserts the singleton session row for a template.
// Active-session rows are local-only: they are the resumable snapshot
// of an in-progress workout and never go through the outbox.
func (db *DB) CreateActiveSession(s *ActiveSession) error {
	s.UpdatedAt = time.Now().Unix()

	sets, err := json.Marshal(s.Sets)
	if err != nil {
		return fmt.Errorf("failed to marshal session sets: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO active_sessions (template_id, workout_id, user_id, started_at, rest_ends_at, sets_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.TemplateID, s.WorkoutID, s.UserID, s.StartedAt, s.RestEndsAt, string(sets), s.UpdatedAt)
	if err != nil {
		if existing, getErr := db.GetActiveSession(s.TemplateID); getErr == nil && existing != nil {
			return ErrSessionExists
		}
		return fmt.Errorf("failed to create active session: %w", err)
	}
	return nil
}

// SaveActiveSession persists the current in-memory session values.
// Callers treat failures here as best-effort: the session lives on in
// memory even if one snapshot write is lost.
func (db *DB) SaveActiveSession(s *ActiveSession) error {
	s.UpdatedAt = time.Now().Unix()

	sets, err := json.Marshal(s.Sets)
	if err != nil {
		return fmt.Errorf("failed to marshal session sets: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO active_sessions (template_id, workout_id, user_id, started_at, rest_ends_at, sets_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(template_id) DO UPDATE SET
			workout_id = excluded.workout_id,
			user_id = excluded.user_id,
			started_at = excluded.started_at,
			rest_ends_at = excluded.rest_ends_at,
			sets_json = excluded.sets_json,
			updated_at = excluded.updated_at
	`, s.TemplateID, s.WorkoutID, s.UserID, s.StartedAt, s.RestEndsAt, string(sets), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save active session: %w", err)
	}
	return nil
}

// GetActiveSession returns the in-progress session for a template, or
// nil
func (db *DB) GetActiveSession(templateID int64) (*ActiveSession, error) {
	var s ActiveSession
	var sets string
	err := db.conn.QueryRow(`
		SELECT template_id, workout_id, user_id, started_at, rest_ends_at, sets_json, updated_at
		FROM active_sessions WHERE template_id = ?
	`, templateID).Scan(&s.TemplateID, &s.WorkoutID, &s.UserID, &s.StartedAt, &s.RestEndsAt, &sets, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	if err := json.Unmarshal([]byte(sets), &s.Sets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session sets: %w", err)
	}
	return &s, nil
}

// ListActiveSessions returns all in-progress sessions for the user
func (db *DB) ListActiveSessions(userID int64) ([]ActiveSession, error) {
	rows, err := db.conn.Query(`
		SELECT template_id, workout_id, user_id, started_at, rest_ends_at, sets_json, updated_at
		FROM active_sessions WHERE user_id = ?
		ORDER BY started_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ActiveSession
	for rows.Next() {
		var s ActiveSession
		var sets string
		if err := rows.Scan(&s.TemplateID, &s.WorkoutID, &s.UserID, &s.StartedAt, &s.RestEndsAt, &sets, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan active session: %w", err)
		}
		if err := json.Unmarshal([]byte(sets), &s.Sets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session sets: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteActiveSession removes the session row. Called exactly when the
// workout is finished or cancelled.
func (db *DB) DeleteActiveSession(templateID int64) error {
	_, err := db.conn.Exec("DELETE FROM active_sessions WHERE template_id = ?", templateID)
	if err != nil {
		return fmt.Errorf("failed to delete active session: %w", err)
	}
	return nil
}
