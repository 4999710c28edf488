package database

import (
	"testing"
)

func TestSetScheduleReplacesExistingEntry(t *testing.T) {
	db := setupTestDB(t)

	first, err := db.SetSchedule(0, 2, -100)
	if err != nil {
		t.Fatalf("Failed to set schedule: %v", err)
	}

	second, err := db.SetSchedule(0, 2, -200)
	if err != nil {
		t.Fatalf("Failed to replace schedule: %v", err)
	}
	if second.ID == first.ID {
		t.Error("Expected replacement to get a fresh id")
	}

	entries, err := db.Schedule(0)
	if err != nil {
		t.Fatalf("Failed to read schedule: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry for the weekday, got %d", len(entries))
	}
	if entries[0].TemplateID != -200 {
		t.Errorf("Expected template -200, got %d", entries[0].TemplateID)
	}

	// Replacement is delete + create, both recorded
	outbox, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	var actions []Action
	for _, e := range outbox {
		if e.Table == TableSchedule {
			actions = append(actions, e.Action)
		}
	}
	want := []Action{ActionCreate, ActionDelete, ActionCreate}
	if len(actions) != len(want) {
		t.Fatalf("Expected %d schedule entries in outbox, got %d", len(want), len(actions))
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("Outbox action %d: expected %s, got %s", i, want[i], actions[i])
		}
	}
}

func TestScheduleForDay(t *testing.T) {
	db := setupTestDB(t)

	entry, err := db.ScheduleForDay(0, 4)
	if err != nil {
		t.Fatalf("Failed to read schedule: %v", err)
	}
	if entry != nil {
		t.Errorf("Expected rest day, got %+v", entry)
	}

	if _, err := db.SetSchedule(0, 4, -5); err != nil {
		t.Fatalf("Failed to set schedule: %v", err)
	}

	entry, err = db.ScheduleForDay(0, 4)
	if err != nil {
		t.Fatalf("Failed to read schedule: %v", err)
	}
	if entry == nil || entry.TemplateID != -5 {
		t.Errorf("Expected template -5 on day 4, got %+v", entry)
	}
}

func TestClearScheduleDay(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.SetSchedule(0, 5, -5); err != nil {
		t.Fatalf("Failed to set schedule: %v", err)
	}
	if err := db.ClearScheduleDay(0, 5); err != nil {
		t.Fatalf("Failed to clear schedule: %v", err)
	}

	entry, err := db.ScheduleForDay(0, 5)
	if err != nil {
		t.Fatalf("Failed to read schedule: %v", err)
	}
	if entry != nil {
		t.Errorf("Expected rest day after clear, got %+v", entry)
	}

	// Clearing an already empty day is a no-op
	if err := db.ClearScheduleDay(0, 5); err != nil {
		t.Errorf("Expected clearing an empty day to succeed, got %v", err)
	}
}

func TestSetScheduleRejectsBadWeekday(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.SetSchedule(0, 7, -1); err == nil {
		t.Error("Expected error for weekday 7")
	}
	if _, err := db.SetSchedule(0, -1, -1); err == nil {
		t.Error("Expected error for weekday -1")
	}
}
