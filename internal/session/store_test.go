package session

import (
	"testing"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

func TestTargetHash(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"identical targets", "10.10.10.5", "10.10.10.5", true},
		{"whitespace ignored", " 10.10.10.5 ", "10.10.10.5", true},
		{"case ignored", "Target.Local", "target.local", true},
		{"different targets", "10.10.10.5", "10.10.10.6", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha, hb := TargetHash(tt.a), TargetHash(tt.b)
			if (ha == hb) != tt.same {
				t.Errorf("TargetHash(%q) = %q, TargetHash(%q) = %q, same = %v, want %v",
					tt.a, ha, tt.b, hb, ha == hb, tt.same)
			}
			if len(ha) != 12 {
				t.Errorf("hash length = %d, want 12", len(ha))
			}
		})
	}
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := &Record{
		ID:    "sess-1",
		Label: LabelWorker,
		Messages: []engine.ChatMessage{
			{Role: engine.RoleUser, Content: "scan the host"},
			{Role: engine.RoleAssistant, Content: "on it"},
		},
		Usage: engine.Usage{Prompt: 10, Completion: 5, Total: 15},
	}
	if err := store.Save("10.10.10.5", rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("Save() did not stamp timestamps")
	}

	loaded, err := store.Load("10.10.10.5", "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID != "sess-1" || loaded.Label != LabelWorker || loaded.Target != "10.10.10.5" {
		t.Errorf("Load() = %+v, identity fields wrong", loaded)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("Load() has %d messages, want 2", len(loaded.Messages))
	}
	if loaded.Messages[0].Content != "scan the host" {
		t.Errorf("messages not in arrival order: %+v", loaded.Messages)
	}
	if loaded.Usage.Total != 15 {
		t.Errorf("Usage.Total = %d, want 15", loaded.Usage.Total)
	}
}

func TestStoreSavePreservesCreatedAt(t *testing.T) {
	store := NewStore(t.TempDir())
	created := time.Now().Add(-time.Hour)

	rec := &Record{ID: "sess-1", CreatedAt: created}
	if err := store.Save("host", rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt rewritten on save: %v, want %v", rec.CreatedAt, created)
	}
	if !rec.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt = %v, should be after %v", rec.UpdatedAt, created)
	}
}

func TestStoreSaveRejectsMissingID(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save("host", &Record{}); err == nil {
		t.Fatal("Save() without id should fail")
	}
}

func TestStoreList(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, id := range []string{"old", "new"} {
		if err := store.Save("10.10.10.5", &Record{ID: id, Label: LabelPlanner}); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := store.Save("other-host", &Record{ID: "elsewhere"}); err != nil {
		t.Fatalf("Save(elsewhere) error = %v", err)
	}

	metas, err := store.List("10.10.10.5")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List() has %d records, want 2", len(metas))
	}
	if metas[0].ID != "new" {
		t.Errorf("List() not sorted most recent first: %v", metas)
	}
}

func TestStoreListMissingTarget(t *testing.T) {
	store := NewStore(t.TempDir())
	metas, err := store.List("never-scanned")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("List() = %v, want empty", metas)
	}
}
