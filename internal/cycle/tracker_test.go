package cycle

import (
	"testing"

	"liftlog/internal/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupRotation creates a programme with one template per exercise
// name and returns the programme and templates keyed by name
func setupRotation(t *testing.T, db *database.DB, names ...string) (*database.Programme, map[string]*database.Template) {
	t.Helper()

	p, err := db.CreateProgramme(0, "rotation")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	templates := make(map[string]*database.Template, len(names))
	for _, name := range names {
		tmpl := &database.Template{
			UserID:      0,
			ProgrammeID: &p.ID,
			Name:        name,
			RestSeconds: 90,
			Exercises: []database.TemplateExercise{
				{
					Exercise:        name + " Lift",
					WeightIncrement: 2.5,
					TargetSets: []database.TargetSet{
						{Reps: 5, Weight: 100},
						{Reps: 5, Weight: 100},
					},
				},
			},
		}
		if err := db.CreateTemplate(tmpl); err != nil {
			t.Fatalf("Failed to create template %s: %v", name, err)
		}
		templates[name] = tmpl
	}
	return p, templates
}

// completeTemplate logs a completed workout for the template with the
// given actual weight on both sets
func completeTemplate(t *testing.T, db *database.DB, tmpl *database.Template, completedAt int64, weight float64) int64 {
	t.Helper()

	w, err := db.StartWorkout(0, &tmpl.ID, completedAt-1800)
	if err != nil {
		t.Fatalf("Failed to start workout: %v", err)
	}
	sets := []database.Set{
		{Exercise: tmpl.Exercises[0].Exercise, SetNumber: 1, Weight: weight, Reps: 5, CompletedAt: completedAt - 600},
		{Exercise: tmpl.Exercises[0].Exercise, SetNumber: 2, Weight: weight, Reps: 5, CompletedAt: completedAt - 300},
	}
	if err := db.CompleteWorkout(w.ID, completedAt, sets); err != nil {
		t.Fatalf("Failed to complete workout: %v", err)
	}
	return w.ID
}

func TestEmptyProgramme(t *testing.T) {
	db := setupTestDB(t)

	p, err := db.CreateProgramme(0, "empty")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	progress, err := Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}
	if progress.Total != 0 || progress.CycleComplete || progress.CycleCount != 0 {
		t.Errorf("Expected empty progress, got %+v", progress)
	}
}

func TestNoHistory(t *testing.T) {
	db := setupTestDB(t)
	p, _ := setupRotation(t, db, "A", "B", "C")

	progress, err := Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}
	if progress.Total != 3 {
		t.Errorf("Expected total 3, got %d", progress.Total)
	}
	if len(progress.Completed) != 0 || progress.CycleCount != 0 {
		t.Errorf("Expected no progress, got %+v", progress)
	}
}

func TestRotationWalk(t *testing.T) {
	db := setupTestDB(t)
	p, templates := setupRotation(t, db, "A", "B", "C")

	// Oldest to newest: A C B A C B A
	order := []string{"A", "C", "B", "A", "C", "B", "A"}
	for i, name := range order {
		completeTemplate(t, db, templates[name], int64(1000*(i+1)), 100)
	}

	progress, err := Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}

	if progress.CycleCount != 2 {
		t.Errorf("Expected 2 closed laps, got %d", progress.CycleCount)
	}
	if progress.CycleComplete {
		t.Error("Expected current lap incomplete")
	}
	if len(progress.Completed) != 1 || !progress.Completed[templates["A"].ID] {
		t.Errorf("Expected only A in the current lap, got %v", progress.Completed)
	}
}

func TestDuplicateStopsWalk(t *testing.T) {
	db := setupTestDB(t)
	p, templates := setupRotation(t, db, "A", "B", "C")

	// A B A: the walk from the newest A stops when it meets A again,
	// so the oldest workout contributes nothing
	completeTemplate(t, db, templates["A"], 1000, 100)
	completeTemplate(t, db, templates["B"], 2000, 100)
	completeTemplate(t, db, templates["A"], 3000, 100)

	progress, err := Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}

	if progress.CycleCount != 0 {
		t.Errorf("Expected no closed laps, got %d", progress.CycleCount)
	}
	if len(progress.Completed) != 2 {
		t.Errorf("Expected A and B in the current lap, got %v", progress.Completed)
	}
	if !progress.Completed[templates["A"].ID] || !progress.Completed[templates["B"].ID] {
		t.Errorf("Expected A and B completed, got %v", progress.Completed)
	}
}

func TestSingleTemplateRotation(t *testing.T) {
	db := setupTestDB(t)
	p, templates := setupRotation(t, db, "A")

	completeTemplate(t, db, templates["A"], 1000, 100)

	progress, err := Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}

	// One workout closes the one-template lap immediately
	if progress.CycleCount != 1 {
		t.Errorf("Expected 1 closed lap, got %d", progress.CycleCount)
	}
	if len(progress.Completed) != 0 {
		t.Errorf("Expected fresh lap after closing, got %v", progress.Completed)
	}
}

func TestDeletedWorkoutChangesDerivation(t *testing.T) {
	db := setupTestDB(t)
	p, templates := setupRotation(t, db, "A", "B", "C")

	completeTemplate(t, db, templates["A"], 1000, 100)
	completeTemplate(t, db, templates["B"], 2000, 100)
	cID := completeTemplate(t, db, templates["C"], 3000, 100)

	progress, err := Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}
	if progress.CycleCount != 1 {
		t.Fatalf("Expected 1 closed lap, got %d", progress.CycleCount)
	}

	// Retracting C reopens the lap: nothing is stored, so the next
	// derivation just sees different history
	if err := db.DeleteWorkout(cID); err != nil {
		t.Fatalf("Failed to delete workout: %v", err)
	}

	progress, err = Calculate(db, 0, p.ID)
	if err != nil {
		t.Fatalf("Failed to calculate progress: %v", err)
	}
	if progress.CycleCount != 0 {
		t.Errorf("Expected no closed laps after deletion, got %d", progress.CycleCount)
	}
	if len(progress.Completed) != 2 {
		t.Errorf("Expected A and B in the current lap, got %v", progress.Completed)
	}
}
