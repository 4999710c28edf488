package database

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEveryWriteRecordsAnOutboxEntry(t *testing.T) {
	db := setupTestDB(t)

	p, err := db.CreateProgramme(0, "Push Pull Legs")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 outbox entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Table != TableProgrammes {
		t.Errorf("Expected table %s, got %s", TableProgrammes, e.Table)
	}
	if e.RecordID != p.ID {
		t.Errorf("Expected record id %d, got %d", p.ID, e.RecordID)
	}
	if e.Action != ActionCreate {
		t.Errorf("Expected create action, got %s", e.Action)
	}

	// The payload is the full row snapshot
	var snapshot Programme
	if err := json.Unmarshal(e.Payload, &snapshot); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if snapshot.ID != p.ID || snapshot.Name != p.Name {
		t.Errorf("Payload does not match row: %+v vs %+v", snapshot, p)
	}
}

func TestOutboxPreservesEnqueueOrder(t *testing.T) {
	db := setupTestDB(t)

	p, err := db.CreateProgramme(0, "p")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}
	if err := db.ActivateProgramme(0, p.ID); err != nil {
		t.Fatalf("Failed to activate programme: %v", err)
	}
	if err := db.DeleteProgramme(p.ID); err != nil {
		t.Fatalf("Failed to delete programme: %v", err)
	}

	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 outbox entries, got %d", len(entries))
	}

	wantActions := []Action{ActionCreate, ActionUpdate, ActionDelete}
	for i, e := range entries {
		if e.Action != wantActions[i] {
			t.Errorf("Entry %d: expected %s, got %s", i, wantActions[i], e.Action)
		}
		if e.RecordID != p.ID {
			t.Errorf("Entry %d: expected record %d, got %d", i, p.ID, e.RecordID)
		}
		if i > 0 && entries[i].ID <= entries[i-1].ID {
			t.Errorf("Entry %d out of order", i)
		}
	}

	if entries[2].Payload != nil {
		t.Errorf("Expected nil payload on delete, got %s", entries[2].Payload)
	}
}

func TestDeleteOutboxEntriesLeavesConcurrentOnes(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.CreateProgramme(0, "first"); err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}
	if _, err := db.CreateProgramme(0, "second"); err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 outbox entries, got %d", len(entries))
	}

	// A third entry lands while the first two are "in flight"
	if _, err := db.CreateProgramme(0, "third"); err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	if err := db.DeleteOutboxEntries([]int64{entries[0].ID, entries[1].ID}); err != nil {
		t.Fatalf("Failed to delete outbox entries: %v", err)
	}

	remaining, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 remaining entry, got %d", len(remaining))
	}

	var p Programme
	if err := json.Unmarshal(remaining[0].Payload, &p); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if p.Name != "third" {
		t.Errorf("Expected the concurrent entry to remain, got %q", p.Name)
	}

	pending, err := db.PendingCount()
	if err != nil {
		t.Fatalf("Failed to count pending: %v", err)
	}
	if pending != 1 {
		t.Errorf("Expected pending count 1, got %d", pending)
	}
}

func TestMutationHookFiresAfterCommit(t *testing.T) {
	db := setupTestDB(t)

	fired := make(chan struct{}, 10)
	db.SetMutationHook(func() { fired <- struct{}{} })

	if _, err := db.CreateProgramme(0, "p"); err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Expected mutation hook to fire")
	}
}
