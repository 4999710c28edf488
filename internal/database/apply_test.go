package database

import (
	"encoding/json"
	"fmt"
	"testing"
)

func rawProgramme(id int64, name string, active bool, updatedAt int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id":%d,"user_id":1,"name":%q,"active":%t,"created_at":100,"updated_at":%d}`,
		id, name, active, updatedAt))
}

func TestApplyChangesUpsertsWithoutRecording(t *testing.T) {
	db := setupTestDB(t)

	err := db.ApplyChanges(map[string][]json.RawMessage{
		TableProgrammes: {rawProgramme(-1, "From Server", false, 200)},
	})
	if err != nil {
		t.Fatalf("Failed to apply changes: %v", err)
	}

	p, err := db.GetProgramme(-1)
	if err != nil {
		t.Fatalf("Failed to get programme: %v", err)
	}
	if p == nil || p.Name != "From Server" {
		t.Fatalf("Expected pulled programme, got %+v", p)
	}

	// Pulled writes must not loop back through the outbox
	entries, err := db.ListOutbox()
	if err != nil {
		t.Fatalf("Failed to list outbox: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty outbox after pull, got %d entries", len(entries))
	}

	// Redelivery of a newer snapshot overwrites in place
	err = db.ApplyChanges(map[string][]json.RawMessage{
		TableProgrammes: {rawProgramme(-1, "Renamed", true, 300)},
	})
	if err != nil {
		t.Fatalf("Failed to re-apply changes: %v", err)
	}
	p, err = db.GetProgramme(-1)
	if err != nil {
		t.Fatalf("Failed to get programme: %v", err)
	}
	if p.Name != "Renamed" || !p.Active {
		t.Errorf("Expected overwritten programme, got %+v", p)
	}
}

func TestApplyChangesSkipsUnknownTables(t *testing.T) {
	db := setupTestDB(t)

	err := db.ApplyChanges(map[string][]json.RawMessage{
		"future_table": {json.RawMessage(`{"id":-1}`)},
	})
	if err != nil {
		t.Errorf("Expected unknown tables to be skipped, got %v", err)
	}
}

func TestReplaceAllInstallsSnapshot(t *testing.T) {
	db := setupTestDB(t)

	// Local state that must all be dropped: data, outbox, session state
	local, err := db.CreateProgramme(0, "local only")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}
	if err := db.CreateActiveSession(testSession(-50, -51)); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	snapshot := map[string][]json.RawMessage{
		TableUsers:      {json.RawMessage(`{"id":1,"username":"frida","created_at":1,"updated_at":1}`)},
		TableProgrammes: {rawProgramme(-7, "Account Programme", true, 500)},
	}
	if err := db.ReplaceAll(snapshot); err != nil {
		t.Fatalf("Failed to replace all: %v", err)
	}

	if got, err := db.GetProgramme(local.ID); err != nil || got != nil {
		t.Errorf("Expected local programme gone, got %+v (%v)", got, err)
	}
	if got, err := db.GetProgramme(-7); err != nil || got == nil {
		t.Errorf("Expected snapshot programme installed, got %+v (%v)", got, err)
	}
	if u, err := db.GetUser(1); err != nil || u == nil || u.Username != "frida" {
		t.Errorf("Expected snapshot user installed, got %+v (%v)", u, err)
	}

	pending, err := db.PendingCount()
	if err != nil {
		t.Fatalf("Failed to count pending: %v", err)
	}
	if pending != 0 {
		t.Errorf("Expected outbox cleared, got %d pending", pending)
	}

	sessions, err := db.ListActiveSessions(0)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected active sessions cleared, got %d", len(sessions))
	}

	// The id floor accounts for ids present in the snapshot
	p, err := db.CreateProgramme(1, "after snapshot")
	if err != nil {
		t.Fatalf("Failed to create programme: %v", err)
	}
	if p.ID >= -7 {
		t.Errorf("Expected id below snapshot minimum -7, got %d", p.ID)
	}
}
