package database

// Synced domain tables, in the order they are replaced during a full
// resync. The structural tables (outbox, active_sessions, meta) never
// leave the device.
var SyncTables = []string{
	TableUsers,
	TableProgrammes,
	TableTemplates,
	TableSchedule,
	TableWorkouts,
	TableSets,
}

const (
	TableUsers      = "users"
	TableProgrammes = "programmes"
	TableTemplates  = "templates"
	TableSchedule   = "schedule"
	TableWorkouts   = "workouts"
	TableSets       = "sets"
)

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Users table: account owners. Offline-only use runs under a local
-- anonymous user with no session token.
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    username TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Programmes table: named rotations of templates. At most one active
-- programme per user, enforced by the write path.
CREATE TABLE IF NOT EXISTS programmes (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Templates table: workout definitions. The ordered exercise list
-- (exercise, weight increment, target sets) is stored as JSON.
CREATE TABLE IF NOT EXISTS templates (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    programme_id INTEGER,
    name TEXT NOT NULL,
    rest_seconds INTEGER NOT NULL DEFAULT 0,
    exercises_json TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Schedule table: at most one template per (user, weekday), enforced
-- by delete-then-insert on save
CREATE TABLE IF NOT EXISTS schedule (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
    template_id INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Workouts table: a NULL completed_at means the workout is in progress
CREATE TABLE IF NOT EXISTS workouts (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    template_id INTEGER,
    started_at INTEGER NOT NULL,
    completed_at INTEGER,
    updated_at INTEGER NOT NULL
);

-- Sets table: append-only within a workout, bulk-deleted when a
-- workout is retracted
CREATE TABLE IF NOT EXISTS sets (
    id INTEGER PRIMARY KEY,
    workout_id INTEGER NOT NULL,
    exercise TEXT NOT NULL,
    set_number INTEGER NOT NULL,
    weight REAL NOT NULL,
    reps INTEGER NOT NULL,
    completed_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (workout_id, exercise, set_number)
);

-- Outbox table: durable queue of not-yet-synced local mutations,
-- processed strictly in enqueue order
CREATE TABLE IF NOT EXISTS outbox (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name TEXT NOT NULL,
    record_id INTEGER NOT NULL,
    action TEXT NOT NULL,
    payload TEXT,
    enqueued_at INTEGER NOT NULL
);

-- Active sessions table: resumable snapshot of an in-progress workout,
-- at most one per template. Local-only.
CREATE TABLE IF NOT EXISTS active_sessions (
    template_id INTEGER PRIMARY KEY,
    workout_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    started_at INTEGER NOT NULL,
    rest_ends_at INTEGER,
    sets_json TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Meta table: watermark, device id, session, id allocator floor
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_programmes_user ON programmes(user_id, active);
CREATE INDEX IF NOT EXISTS idx_templates_user ON templates(user_id);
CREATE INDEX IF NOT EXISTS idx_templates_programme ON templates(programme_id);
CREATE INDEX IF NOT EXISTS idx_schedule_user_day ON schedule(user_id, weekday);
CREATE INDEX IF NOT EXISTS idx_workouts_user_completed ON workouts(user_id, completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_workouts_template ON workouts(template_id);
CREATE INDEX IF NOT EXISTS idx_sets_workout ON sets(workout_id);
CREATE INDEX IF NOT EXISTS idx_sets_exercise ON sets(exercise);
CREATE INDEX IF NOT EXISTS idx_outbox_order ON outbox(enqueued_at);
`
