package database

import (
	"database/sql"
	"fmt"
)

// GetUser retrieves a user by id
func (db *DB) GetUser(userID int64) (*User, error) {
	var u User
	err := db.conn.QueryRow(`
		SELECT id, username, created_at, updated_at
		FROM users WHERE id = ?
	`, userID).Scan(&u.ID, &u.Username, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetSet retrieves a set by id
func (db *DB) GetSet(setID int64) (*Set, error) {
	var s Set
	err := db.conn.QueryRow(`
		SELECT id, workout_id, exercise, set_number, weight, reps, completed_at, updated_at
		FROM sets WHERE id = ?
	`, setID).Scan(&s.ID, &s.WorkoutID, &s.Exercise, &s.SetNumber, &s.Weight, &s.Reps, &s.CompletedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get set: %w", err)
	}
	return &s, nil
}
