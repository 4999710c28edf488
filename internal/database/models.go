package database

// User is an account owner. UserID 0 is the local anonymous identity.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Programme is a named rotation of templates
type Programme struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// TargetSet is one planned set within a template exercise; position in
// the slice is the set number
type TargetSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// TemplateExercise is one exercise within a template, with its planned
// sets and the weight increment applied on cycle completion
type TemplateExercise struct {
	Exercise        string      `json:"exercise"`
	WeightIncrement float64     `json:"weight_increment"`
	TargetSets      []TargetSet `json:"target_sets"`
}

// Template is a workout definition
type Template struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	ProgrammeID *int64             `json:"programme_id"`
	Name        string             `json:"name"`
	RestSeconds int                `json:"rest_seconds"`
	Exercises   []TemplateExercise `json:"exercises"`
	CreatedAt   int64              `json:"created_at"`
	UpdatedAt   int64              `json:"updated_at"`
}

// ScheduleEntry assigns a template to a weekday (0 = Sunday)
type ScheduleEntry struct {
	ID         int64 `json:"id"`
	UserID     int64 `json:"user_id"`
	Weekday    int   `json:"weekday"`
	TemplateID int64 `json:"template_id"`
	UpdatedAt  int64 `json:"updated_at"`
}

// Workout is a training session. A nil CompletedAt means it is in
// progress.
type Workout struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	TemplateID  *int64 `json:"template_id"`
	StartedAt   int64  `json:"started_at"`
	CompletedAt *int64 `json:"completed_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Set is a completed repetition group. Immutable once written.
type Set struct {
	ID          int64   `json:"id"`
	WorkoutID   int64   `json:"workout_id"`
	Exercise    string  `json:"exercise"`
	SetNumber   int     `json:"set_number"`
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	CompletedAt int64   `json:"completed_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// SessionSet is the in-memory value of one set during an active
// workout session
type SessionSet struct {
	Exercise  string  `json:"exercise"`
	SetNumber int     `json:"set_number"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Done      bool    `json:"done"`
}

// ActiveSession is the resumable snapshot of an in-progress workout.
// At most one exists per template; it never leaves the device.
type ActiveSession struct {
	TemplateID int64        `json:"template_id"`
	WorkoutID  int64        `json:"workout_id"`
	UserID     int64        `json:"user_id"`
	StartedAt  int64        `json:"started_at"`
	RestEndsAt *int64       `json:"rest_ends_at"`
	Sets       []SessionSet `json:"sets"`
	UpdatedAt  int64        `json:"updated_at"`
}
