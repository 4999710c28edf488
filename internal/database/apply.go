package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"liftlog/internal/metrics"
)

// ApplyChanges bulk-upserts server-side changes into the local tables,
// last write wins. Server-originated writes bypass the mutation
// recorder: echoing them back through the outbox would loop forever.
// Foreign-key references are client-generated ids that already exist
// locally, so no ordering between tables is required.
func (db *DB) ApplyChanges(changes map[string][]json.RawMessage) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range SyncTables {
		for _, record := range changes[table] {
			if err := upsertRecord(tx, table, record); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pulled changes: %w", err)
	}
	return nil
}

// ReplaceAll throws away every synced table and installs the server's
// complete snapshot in its place. Used at login/session-restore when
// the local watermark cannot be trusted to describe the same account;
// pending outbox entries and active sessions belong to the previous
// identity and are dropped with the data they reference.
func (db *DB) ReplaceAll(snapshot map[string][]json.RawMessage) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range SyncTables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM outbox"); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM active_sessions"); err != nil {
		return fmt.Errorf("failed to clear active sessions: %w", err)
	}

	for _, table := range SyncTables {
		for _, record := range snapshot[table] {
			if err := upsertRecord(tx, table, record); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	metrics.PendingChanges.Set(0)

	// Ids in the snapshot may be lower than anything seen before
	return db.seedIDFloor()
}

func upsertRecord(tx *sql.Tx, table string, record json.RawMessage) error {
	switch table {
	case TableUsers:
		var u User
		if err := json.Unmarshal(record, &u); err != nil {
			return fmt.Errorf("failed to unmarshal user: %w", err)
		}
		_, err := tx.Exec(`
			INSERT INTO users (id, username, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				username = excluded.username,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
		`, u.ID, u.Username, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

	case TableProgrammes:
		var p Programme
		if err := json.Unmarshal(record, &p); err != nil {
			return fmt.Errorf("failed to unmarshal programme: %w", err)
		}
		_, err := tx.Exec(`
			INSERT INTO programmes (id, user_id, name, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				name = excluded.name,
				active = excluded.active,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
		`, p.ID, p.UserID, p.Name, p.Active, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert programme: %w", err)
		}

	case TableTemplates:
		var t Template
		if err := json.Unmarshal(record, &t); err != nil {
			return fmt.Errorf("failed to unmarshal template: %w", err)
		}
		exercises, err := json.Marshal(t.Exercises)
		if err != nil {
			return fmt.Errorf("failed to marshal template exercises: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO templates (id, user_id, programme_id, name, rest_seconds, exercises_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				programme_id = excluded.programme_id,
				name = excluded.name,
				rest_seconds = excluded.rest_seconds,
				exercises_json = excluded.exercises_json,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
		`, t.ID, t.UserID, t.ProgrammeID, t.Name, t.RestSeconds, string(exercises), t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert template: %w", err)
		}

	case TableSchedule:
		var e ScheduleEntry
		if err := json.Unmarshal(record, &e); err != nil {
			return fmt.Errorf("failed to unmarshal schedule entry: %w", err)
		}
		_, err := tx.Exec(`
			INSERT INTO schedule (id, user_id, weekday, template_id, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				weekday = excluded.weekday,
				template_id = excluded.template_id,
				updated_at = excluded.updated_at
		`, e.ID, e.UserID, e.Weekday, e.TemplateID, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert schedule entry: %w", err)
		}

	case TableWorkouts:
		var w Workout
		if err := json.Unmarshal(record, &w); err != nil {
			return fmt.Errorf("failed to unmarshal workout: %w", err)
		}
		_, err := tx.Exec(`
			INSERT INTO workouts (id, user_id, template_id, started_at, completed_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				template_id = excluded.template_id,
				started_at = excluded.started_at,
				completed_at = excluded.completed_at,
				updated_at = excluded.updated_at
		`, w.ID, w.UserID, w.TemplateID, w.StartedAt, w.CompletedAt, w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert workout: %w", err)
		}

	case TableSets:
		var s Set
		if err := json.Unmarshal(record, &s); err != nil {
			return fmt.Errorf("failed to unmarshal set: %w", err)
		}
		_, err := tx.Exec(`
			INSERT INTO sets (id, workout_id, exercise, set_number, weight, reps, completed_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				workout_id = excluded.workout_id,
				exercise = excluded.exercise,
				set_number = excluded.set_number,
				weight = excluded.weight,
				reps = excluded.reps,
				completed_at = excluded.completed_at,
				updated_at = excluded.updated_at
		`, s.ID, s.WorkoutID, s.Exercise, s.SetNumber, s.Weight, s.Reps, s.CompletedAt, s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert set: %w", err)
		}

	default:
		// Tables this client version does not know about are skipped
		// rather than failing the whole pull
		return nil
	}
	return nil
}
