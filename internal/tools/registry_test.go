package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/recall"
	"github.com/AiWaldoh/a-i-d-a/internal/sandbox"
)

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, workDir, command string, timeout time.Duration) (sandbox.Result, error) {
	return sandbox.Result{Stdout: "ok"}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(query string, k int) ([]recall.Result, error) {
	return nil, nil
}

func TestNewToolRegistryComposition(t *testing.T) {
	reg, err := NewToolRegistry(t.TempDir(), stubSearcher{}, stubRunner{})
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}

	for _, name := range []string{"run_cmd", "read_file", "write_file", "list_files", "search_notes"} {
		if _, ok := reg[name]; !ok {
			t.Errorf("registry missing tool %s", name)
		}
	}
	if len(reg) != 5 {
		t.Errorf("registry has %d tools, want 5", len(reg))
	}
}

func TestNewToolRegistryWithoutSearcher(t *testing.T) {
	reg, err := NewToolRegistry(t.TempDir(), nil, stubRunner{})
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}

	if _, ok := reg["search_notes"]; ok {
		t.Error("registry includes search_notes without a searcher")
	}
	if len(reg) != 4 {
		t.Errorf("registry has %d tools, want 4", len(reg))
	}
}

func TestRegistrySchemasAreValid(t *testing.T) {
	reg, err := NewToolRegistry(t.TempDir(), stubSearcher{}, stubRunner{})
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}

	// Every schema must reject a missing required argument rather than
	// letting a malformed call through to the implementation.
	for name, tool := range reg {
		if tool.SchemaJSON == "" {
			t.Errorf("tool %s has no schema", name)
			continue
		}
		if name == "list_files" {
			// list_files has no required arguments.
			continue
		}
		if err := tool.ValidateArgs(map[string]any{}); err == nil {
			t.Errorf("tool %s accepted empty arguments", name)
		}
	}
}

func TestRegistryDispatchRunCmd(t *testing.T) {
	reg, err := NewToolRegistry(t.TempDir(), nil, stubRunner{})
	if err != nil {
		t.Fatalf("NewToolRegistry() error = %v", err)
	}

	result := reg.Dispatch(context.Background(), "run_cmd", map[string]any{"command": "whoami"})
	if result == "" || strings.HasPrefix(result, "ERROR") {
		t.Errorf("Dispatch(run_cmd) = %q, want successful result", result)
	}
}
