package database

import (
	"testing"
)

func completeWorkoutAt(t *testing.T, db *DB, templateID int64, completedAt int64, sets []Set) int64 {
	t.Helper()

	w, err := db.StartWorkout(0, &templateID, completedAt-3600)
	if err != nil {
		t.Fatalf("Failed to start workout: %v", err)
	}
	if err := db.CompleteWorkout(w.ID, completedAt, sets); err != nil {
		t.Fatalf("Failed to complete workout: %v", err)
	}
	return w.ID
}

func TestStartAndCompleteWorkout(t *testing.T) {
	db := setupTestDB(t)

	templateID := int64(-1)
	w, err := db.StartWorkout(0, &templateID, 1000)
	if err != nil {
		t.Fatalf("Failed to start workout: %v", err)
	}
	if w.CompletedAt != nil {
		t.Error("Expected new workout to be in progress")
	}

	sets := []Set{
		{Exercise: "Squat", SetNumber: 1, Weight: 100, Reps: 5, CompletedAt: 2000},
		{Exercise: "Squat", SetNumber: 2, Weight: 100, Reps: 5, CompletedAt: 2100},
	}
	if err := db.CompleteWorkout(w.ID, 2200, sets); err != nil {
		t.Fatalf("Failed to complete workout: %v", err)
	}

	got, err := db.GetWorkout(w.ID)
	if err != nil {
		t.Fatalf("Failed to get workout: %v", err)
	}
	if got.CompletedAt == nil || *got.CompletedAt != 2200 {
		t.Errorf("Expected completion at 2200, got %+v", got.CompletedAt)
	}

	stored, err := db.SetsForWorkout(w.ID)
	if err != nil {
		t.Fatalf("Failed to list sets: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 sets, got %d", len(stored))
	}
	for _, s := range stored {
		if s.ID >= 0 {
			t.Errorf("Expected negative set id, got %d", s.ID)
		}
		if s.WorkoutID != w.ID {
			t.Errorf("Expected workout id %d, got %d", w.ID, s.WorkoutID)
		}
	}

	// Completing twice is rejected
	if err := db.CompleteWorkout(w.ID, 2300, nil); err == nil {
		t.Error("Expected error completing an already completed workout")
	}
}

func TestDeleteWorkoutTombstonesSets(t *testing.T) {
	db := setupTestDB(t)

	id := completeWorkoutAt(t, db, -1, 5000, []Set{
		{Exercise: "Deadlift", SetNumber: 1, Weight: 140, Reps: 3, CompletedAt: 4900},
	})

	if err := db.DeleteWorkout(id); err != nil {
		t.Fatalf("Failed to delete workout: %v", err)
	}

	if got, err := db.GetWorkout(id); err != nil || got != nil {
		t.Errorf("Expected workout gone, got %+v (%v)", got, err)
	}
	sets, err := db.SetsForWorkout(id)
	if err != nil {
		t.Fatalf("Failed to list sets: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("Expected sets gone, got %d", len(sets))
	}

	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	setDeletes, workoutDeletes := 0, 0
	for _, e := range entries {
		if e.Action != ActionDelete {
			continue
		}
		switch e.Table {
		case TableSets:
			setDeletes++
		case TableWorkouts:
			workoutDeletes++
		}
	}
	if setDeletes != 1 || workoutDeletes != 1 {
		t.Errorf("Expected tombstones for the set and the workout, got %d/%d", setDeletes, workoutDeletes)
	}
}

func TestCompletedWorkoutsForTemplatesOrdering(t *testing.T) {
	db := setupTestDB(t)

	completeWorkoutAt(t, db, -1, 1000, nil)
	completeWorkoutAt(t, db, -2, 2000, nil)
	completeWorkoutAt(t, db, -3, 3000, nil)

	// An in-progress workout must not appear
	templateID := int64(-1)
	if _, err := db.StartWorkout(0, &templateID, 4000); err != nil {
		t.Fatalf("Failed to start workout: %v", err)
	}

	workouts, err := db.CompletedWorkoutsForTemplates(0, []int64{-1, -2, -3})
	if err != nil {
		t.Fatalf("Failed to list workouts: %v", err)
	}
	if len(workouts) != 3 {
		t.Fatalf("Expected 3 completed workouts, got %d", len(workouts))
	}
	for i, want := range []int64{-3, -2, -1} {
		if *workouts[i].TemplateID != want {
			t.Errorf("Position %d: expected template %d, got %d", i, want, *workouts[i].TemplateID)
		}
	}

	// Filter excludes templates outside the requested set
	subset, err := db.CompletedWorkoutsForTemplates(0, []int64{-2})
	if err != nil {
		t.Fatalf("Failed to list workouts: %v", err)
	}
	if len(subset) != 1 || *subset[0].TemplateID != -2 {
		t.Errorf("Expected only template -2, got %+v", subset)
	}
}

func TestLastPerformance(t *testing.T) {
	db := setupTestDB(t)

	completeWorkoutAt(t, db, -1, 1000, []Set{
		{Exercise: "Bench Press", SetNumber: 1, Weight: 60, Reps: 8, CompletedAt: 900},
		{Exercise: "Bench Press", SetNumber: 2, Weight: 60, Reps: 7, CompletedAt: 950},
	})
	completeWorkoutAt(t, db, -1, 2000, []Set{
		{Exercise: "Bench Press", SetNumber: 1, Weight: 62.5, Reps: 8, CompletedAt: 1900},
		{Exercise: "Squat", SetNumber: 1, Weight: 100, Reps: 5, CompletedAt: 1950},
	})
	// A later workout without the exercise must not shadow it
	completeWorkoutAt(t, db, -2, 3000, []Set{
		{Exercise: "Squat", SetNumber: 1, Weight: 102.5, Reps: 5, CompletedAt: 2900},
	})

	sets, err := db.LastPerformance(0, "Bench Press")
	if err != nil {
		t.Fatalf("Failed to get last performance: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("Expected 1 set from the most recent bench workout, got %d", len(sets))
	}
	if sets[0].Weight != 62.5 || sets[0].Reps != 8 {
		t.Errorf("Unexpected set: %+v", sets[0])
	}

	never, err := db.LastPerformance(0, "Curl")
	if err != nil {
		t.Fatalf("Failed to get last performance: %v", err)
	}
	if len(never) != 0 {
		t.Errorf("Expected no history for an unlogged exercise, got %+v", never)
	}
}
