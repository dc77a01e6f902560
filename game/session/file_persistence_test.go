package session

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/service"
)

func TestFilePersistence_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(filepath.Join(dir, "sessions"))
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	manager := NewManager(createTestLibrary(t))

	session, err := manager.Create("save-test", service.CreateOptions{Level: "default", Class: "Tank", Seed: 5})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if res := session.Engine.MovePlayer(hex.Coord{Row: 5, Col: 7}); !res.Success {
		t.Fatalf("Move failed: %s", res.Message)
	}

	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if !persistence.Exists("save-test") {
		t.Fatal("Expected session file to exist")
	}

	data, err := persistence.Load("save-test")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if data.ID != "save-test" || data.LevelID != "default" || data.Class != "Tank" || data.Seed != 5 {
		t.Errorf("Unexpected session data %+v", data)
	}
	if !data.CreatedAt.Equal(session.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", session.CreatedAt, data.CreatedAt)
	}
	if data.Snapshot == nil || data.Snapshot.Player.Unit.Position != (hex.Coord{Row: 5, Col: 7}) {
		t.Errorf("Expected the moved player in the snapshot")
	}
	if !data.Snapshot.Player.MovementUsed {
		t.Error("Expected the used move to be saved")
	}
	if len(data.Snapshot.Units) != 3 {
		t.Errorf("Expected 3 units, got %d", len(data.Snapshot.Units))
	}
}

func TestFilePersistence_ListDelete(t *testing.T) {
	persistence, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	manager := NewManager(createTestLibrary(t))

	for _, id := range []string{"one", "two"} {
		s, _ := manager.Create(id, service.CreateOptions{})
		if err := persistence.Save(s); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}

	ids, err := persistence.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "one" || ids[1] != "two" {
		t.Errorf("Unexpected ids %v", ids)
	}

	if err := persistence.Delete("one"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if persistence.Exists("one") {
		t.Error("Expected session file to be removed")
	}
	if err := persistence.Delete("one"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := persistence.Load("one"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestFilePersistence_BadInput(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	if err := persistence.Save(nil); err == nil {
		t.Error("Expected error for nil session")
	}
	if _, err := persistence.Load("../escape"); !errors.Is(err, ErrInvalidSessionID) {
		t.Errorf("Expected ErrInvalidSessionID, got %v", err)
	}
	if persistence.Exists("../escape") {
		t.Error("Invalid ids never exist")
	}

	if err := os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("corrupt"); err == nil {
		t.Error("Expected error for corrupt session file")
	}
	if err := os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"id": "empty"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("empty"); err == nil {
		t.Error("Expected error for a session without snapshot")
	}
}
