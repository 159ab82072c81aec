package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/brain"
	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

func testStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessageRoundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "10.10.10.5", "enumerate services"); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	now := time.Now().Truncate(time.Second)
	messages := []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "scan the host", CreatedAt: now},
		{
			Role:      engine.RoleAssistant,
			ToolCalls: []engine.ToolCall{{ID: "call_1", Name: "run_cmd", Args: map[string]any{"command": "nmap -sV 10.10.10.5"}}},
			CreatedAt: now,
		},
		{Role: engine.RoleTool, ToolCallID: "call_1", Content: "22/tcp open ssh", CreatedAt: now},
		{Role: engine.RoleAssistant, Content: "one open port: 22/ssh", CreatedAt: now},
	}
	if err := s.SaveMessages(ctx, "run-1", "sess-w", "worker", messages); err != nil {
		t.Fatalf("SaveMessages() error = %v", err)
	}

	loaded, err := s.Messages(ctx, "sess-w")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(loaded) != 4 {
		t.Fatalf("loaded %d messages, want 4", len(loaded))
	}
	for i, m := range loaded {
		if m.Role != messages[i].Role || m.Content != messages[i].Content {
			t.Errorf("message %d = {%s %q}, want {%s %q}", i, m.Role, m.Content, messages[i].Role, messages[i].Content)
		}
	}
	if loaded[1].ToolCalls[0].Name != "run_cmd" {
		t.Errorf("tool call lost in roundtrip: %+v", loaded[1].ToolCalls)
	}
	if got := loaded[1].ToolCalls[0].Args["command"]; got != "nmap -sV 10.10.10.5" {
		t.Errorf("tool call args = %v", got)
	}
	if loaded[2].ToolCallID != "call_1" {
		t.Errorf("ToolCallID = %q, want call_1", loaded[2].ToolCallID)
	}
}

func TestSaveMessagesIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "t", "g"); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	first := []engine.ChatMessage{{Role: engine.RoleUser, Content: "one"}}
	if err := s.SaveMessages(ctx, "run-1", "sess-1", "planner", first); err != nil {
		t.Fatalf("SaveMessages(first) error = %v", err)
	}

	second := append(first, engine.ChatMessage{Role: engine.RoleAssistant, Content: "two"})
	if err := s.SaveMessages(ctx, "run-1", "sess-1", "planner", second); err != nil {
		t.Fatalf("SaveMessages(second) error = %v", err)
	}

	loaded, err := s.Messages(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d messages after checkpoint, want 2", len(loaded))
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "10.10.10.5", "get root"); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	state := brain.NewTargetState("10.10.10.5", "get root")
	state.AddPort(22)
	state.SetService(22, "ssh")
	state.AddVulnerability("CVE-2021-41773")
	state.AddFinding("first pass complete")
	state.Iterations = 4
	state.Phase = brain.PhaseEnumeration

	if err := s.SaveSnapshot(ctx, "run-1", state); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	loaded, err := s.LatestSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("LatestSnapshot() error = %v", err)
	}
	if loaded.Target != "10.10.10.5" || loaded.Iterations != 4 {
		t.Errorf("snapshot identity = %q/%d", loaded.Target, loaded.Iterations)
	}
	if len(loaded.OpenPorts) != 1 || loaded.OpenPorts[0] != 22 {
		t.Errorf("OpenPorts = %v, want [22]", loaded.OpenPorts)
	}
	if loaded.Services[22] != "ssh" {
		t.Errorf("Services = %v", loaded.Services)
	}
	if loaded.Phase != state.Phase {
		t.Errorf("Phase = %v, want %v", loaded.Phase, state.Phase)
	}

	// Reindex ran on load: dedup survives the roundtrip.
	if loaded.AddPort(22) {
		t.Error("AddPort(22) on loaded snapshot should report duplicate")
	}
}

func TestLatestSnapshotWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "t", "g"); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	early := brain.NewTargetState("t", "g")
	early.Iterations = 1
	late := brain.NewTargetState("t", "g")
	late.Iterations = 2

	if err := s.SaveSnapshot(ctx, "run-1", early); err != nil {
		t.Fatalf("SaveSnapshot(early) error = %v", err)
	}
	if err := s.SaveSnapshot(ctx, "run-1", late); err != nil {
		t.Fatalf("SaveSnapshot(late) error = %v", err)
	}

	loaded, err := s.LatestSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("LatestSnapshot() error = %v", err)
	}
	if loaded.Iterations != 2 {
		t.Errorf("Iterations = %d, want the latest snapshot", loaded.Iterations)
	}
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "10.10.10.5", "get root"); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.FinishedAt != 0 {
		t.Error("new run should have no finish time")
	}

	report := &brain.Report{
		Target:     "10.10.10.5",
		Goal:       "get root",
		Iterations: 7,
		Phase:      brain.PhaseExploitation,
		Body:       "## Executive Summary\nroot obtained",
	}
	if err := s.FinishRun(ctx, "run-1", report); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	run, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() after finish error = %v", err)
	}
	if run.FinishedAt == 0 || run.Iterations != 7 || run.Phase != "EXPLOITATION" || run.Degraded {
		t.Errorf("finished run = %+v", run)
	}

	body, err := s.Report(ctx, "run-1")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if body != report.Body {
		t.Errorf("Report() = %q, want stored body", body)
	}
}

func TestListRunsByTarget(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b"} {
		if err := s.CreateRun(ctx, id, "10.10.10.5", "g"); err != nil {
			t.Fatalf("CreateRun(%s) error = %v", id, err)
		}
	}
	if err := s.CreateRun(ctx, "run-c", "10.10.10.9", "g"); err != nil {
		t.Fatalf("CreateRun(run-c) error = %v", err)
	}

	runs, err := s.ListRuns(ctx, "10.10.10.5")
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() = %d runs, want 2", len(runs))
	}
	for _, r := range runs {
		if r.Target != "10.10.10.5" {
			t.Errorf("run %s target = %q", r.RunID, r.Target)
		}
	}
}
