package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// StartWorkout creates an in-progress workout (nil completion time)
func (db *DB) StartWorkout(userID int64, templateID *int64, startedAt int64) (*Workout, error) {
	w := &Workout{
		UserID:     userID,
		TemplateID: templateID,
		StartedAt:  startedAt,
		UpdatedAt:  time.Now().Unix(),
	}

	err := db.inTx(func(tx *sql.Tx) error {
		id, err := db.allocateID(tx)
		if err != nil {
			return err
		}
		w.ID = id

		_, err = tx.Exec(`
			INSERT INTO workouts (id, user_id, template_id, started_at, completed_at, updated_at)
			VALUES (?, ?, ?, ?, NULL, ?)
		`, w.ID, w.UserID, w.TemplateID, w.StartedAt, w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create workout: %w", err)
		}

		return recordMutation(tx, TableWorkouts, w.ID, ActionCreate, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CompleteWorkout stamps the completion time and appends the workout's
// sets in one transaction. Sets are immutable from here on.
func (db *DB) CompleteWorkout(workoutID, completedAt int64, sets []Set) error {
	return db.inTx(func(tx *sql.Tx) error {
		now := time.Now().Unix()

		var w Workout
		err := tx.QueryRow(`
			SELECT id, user_id, template_id, started_at, completed_at, updated_at
			FROM workouts WHERE id = ?
		`, workoutID).Scan(&w.ID, &w.UserID, &w.TemplateID, &w.StartedAt, &w.CompletedAt, &w.UpdatedAt)
		if err == sql.ErrNoRows {
			return fmt.Errorf("workout %d not found", workoutID)
		}
		if err != nil {
			return fmt.Errorf("failed to get workout: %w", err)
		}
		if w.CompletedAt != nil {
			return fmt.Errorf("workout %d already completed", workoutID)
		}

		for i := range sets {
			s := &sets[i]
			id, err := db.allocateID(tx)
			if err != nil {
				return err
			}
			s.ID = id
			s.WorkoutID = workoutID
			s.UpdatedAt = now

			_, err = tx.Exec(`
				INSERT INTO sets (id, workout_id, exercise, set_number, weight, reps, completed_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, s.ID, s.WorkoutID, s.Exercise, s.SetNumber, s.Weight, s.Reps, s.CompletedAt, s.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert set: %w", err)
			}
			if err := recordMutation(tx, TableSets, s.ID, ActionCreate, s); err != nil {
				return err
			}
		}

		w.CompletedAt = &completedAt
		w.UpdatedAt = now
		_, err = tx.Exec(
			"UPDATE workouts SET completed_at = ?, updated_at = ? WHERE id = ?",
			completedAt, now, workoutID)
		if err != nil {
			return fmt.Errorf("failed to complete workout: %w", err)
		}
		return recordMutation(tx, TableWorkouts, w.ID, ActionUpdate, &w)
	})
}

// DeleteWorkout retracts a workout, bulk-deleting its sets. Cycle and
// overload state is derived purely from what remains.
func (db *DB) DeleteWorkout(workoutID int64) error {
	return db.inTx(func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT id FROM sets WHERE workout_id = ?", workoutID)
		if err != nil {
			return fmt.Errorf("failed to query workout sets: %w", err)
		}
		var setIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan set id: %w", err)
			}
			setIDs = append(setIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range setIDs {
			if _, err := tx.Exec("DELETE FROM sets WHERE id = ?", id); err != nil {
				return fmt.Errorf("failed to delete set: %w", err)
			}
			if err := recordMutation(tx, TableSets, id, ActionDelete, nil); err != nil {
				return err
			}
		}

		if _, err := tx.Exec("DELETE FROM active_sessions WHERE workout_id = ?", workoutID); err != nil {
			return fmt.Errorf("failed to delete active session: %w", err)
		}

		if _, err := tx.Exec("DELETE FROM workouts WHERE id = ?", workoutID); err != nil {
			return fmt.Errorf("failed to delete workout: %w", err)
		}
		return recordMutation(tx, TableWorkouts, workoutID, ActionDelete, nil)
	})
}

// GetWorkout retrieves a workout by id
func (db *DB) GetWorkout(workoutID int64) (*Workout, error) {
	var w Workout
	err := db.conn.QueryRow(`
		SELECT id, user_id, template_id, started_at, completed_at, updated_at
		FROM workouts WHERE id = ?
	`, workoutID).Scan(&w.ID, &w.UserID, &w.TemplateID, &w.StartedAt, &w.CompletedAt, &w.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}
	return &w, nil
}

// CompletedWorkoutsForTemplates returns the user's completed workouts
// whose template is in the given set, most recent first. This ordering
// is what the cycle tracker walks.
func (db *DB) CompletedWorkoutsForTemplates(userID int64, templateIDs []int64) ([]Workout, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(templateIDs))
	args := []any{userID}
	for i, id := range templateIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT id, user_id, template_id, started_at, completed_at, updated_at
		FROM workouts
		WHERE user_id = ? AND completed_at IS NOT NULL AND template_id IN (%s)
		ORDER BY completed_at DESC, id DESC
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed workouts: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.TemplateID, &w.StartedAt, &w.CompletedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// SetsForWorkout returns a workout's sets ordered by exercise and set
// number
func (db *DB) SetsForWorkout(workoutID int64) ([]Set, error) {
	rows, err := db.conn.Query(`
		SELECT id, workout_id, exercise, set_number, weight, reps, completed_at, updated_at
		FROM sets WHERE workout_id = ?
		ORDER BY exercise ASC, set_number ASC
	`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sets: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var s Set
		if err := rows.Scan(&s.ID, &s.WorkoutID, &s.Exercise, &s.SetNumber, &s.Weight, &s.Reps, &s.CompletedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// LastPerformance returns the sets logged for an exercise in the most
// recent completed workout that included it, ordered by set number.
// Returns nil when the exercise has never been logged.
func (db *DB) LastPerformance(userID int64, exercise string) ([]Set, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, s.workout_id, s.exercise, s.set_number, s.weight, s.reps, s.completed_at, s.updated_at
		FROM sets s
		WHERE s.exercise = ? AND s.workout_id = (
			SELECT w.id FROM workouts w
			JOIN sets ls ON ls.workout_id = w.id
			WHERE w.user_id = ? AND ls.exercise = ? AND w.completed_at IS NOT NULL
			ORDER BY w.completed_at DESC, w.id DESC
			LIMIT 1
		)
		ORDER BY s.set_number ASC
	`, exercise, userID, exercise)
	if err != nil {
		return nil, fmt.Errorf("failed to query last performance: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var s Set
		if err := rows.Scan(&s.ID, &s.WorkoutID, &s.Exercise, &s.SetNumber, &s.Weight, &s.Reps, &s.CompletedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
