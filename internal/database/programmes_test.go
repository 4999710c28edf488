package database

import (
	"testing"
)

func TestActivateProgrammeKeepsSingleActive(t *testing.T) {
	db := setupTestDB(t)

	a, err := db.CreateProgramme(0, "A")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}
	b, err := db.CreateProgramme(0, "B")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	if err := db.ActivateProgramme(0, a.ID); err != nil {
		t.Fatalf("Failed to activate A: %v", err)
	}
	if err := db.ActivateProgramme(0, b.ID); err != nil {
		t.Fatalf("Failed to activate B: %v", err)
	}

	active, err := db.ActiveProgramme(0)
	if err != nil {
		t.Fatalf("Failed to get active programme: %v", err)
	}
	if active == nil || active.ID != b.ID {
		t.Fatalf("Expected B active, got %+v", active)
	}

	programmes, err := db.ListProgrammes(0)
	if err != nil {
		t.Fatalf("Failed to list programmes: %v", err)
	}
	activeCount := 0
	for _, p := range programmes {
		if p.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("Expected exactly 1 active programme, got %d", activeCount)
	}

	// The implicit deactivation of A is itself a recorded mutation
	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	sawDeactivation := false
	for _, e := range entries {
		if e.Table == TableProgrammes && e.RecordID == a.ID && e.Action == ActionUpdate {
			sawDeactivation = true
		}
	}
	if !sawDeactivation {
		t.Error("Expected an update entry for the deactivated programme")
	}
}

func TestActivateMissingProgramme(t *testing.T) {
	db := setupTestDB(t)

	if err := db.ActivateProgramme(0, -99); err == nil {
		t.Error("Expected error activating a missing programme")
	}
}

func TestDeleteProgrammeCascades(t *testing.T) {
	db := setupTestDB(t)

	p, err := db.CreateProgramme(0, "p")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	tmpl := &Template{
		UserID:      0,
		ProgrammeID: &p.ID,
		Name:        "Day A",
		RestSeconds: 90,
		Exercises: []TemplateExercise{
			{Exercise: "Squat", WeightIncrement: 2.5, TargetSets: []TargetSet{{Reps: 5, Weight: 100}}},
		},
	}
	if err := db.CreateTemplate(tmpl); err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}
	if _, err := db.SetSchedule(0, 1, tmpl.ID); err != nil {
		t.Fatalf("Failed to set schedule: %v", err)
	}

	if err := db.DeleteProgramme(p.ID); err != nil {
		t.Fatalf("Failed to delete programme: %v", err)
	}

	if got, err := db.GetProgramme(p.ID); err != nil || got != nil {
		t.Errorf("Expected programme gone, got %+v (%v)", got, err)
	}
	if got, err := db.GetTemplate(tmpl.ID); err != nil || got != nil {
		t.Errorf("Expected template gone, got %+v (%v)", got, err)
	}
	if got, err := db.ScheduleForDay(0, 1); err != nil || got != nil {
		t.Errorf("Expected schedule entry gone, got %+v (%v)", got, err)
	}

	// Every cascaded removal leaves a tombstone for the server
	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	deletes := map[string]int{}
	for _, e := range entries {
		if e.Action == ActionDelete {
			deletes[e.Table]++
		}
	}
	if deletes[TableProgrammes] != 1 || deletes[TableTemplates] != 1 || deletes[TableSchedule] != 1 {
		t.Errorf("Expected one tombstone per cascaded record, got %v", deletes)
	}
}
