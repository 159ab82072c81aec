package session

import (
	"context"
	"strings"
	"testing"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

type scriptedLLM struct {
	responses []engine.LLMResponse
	calls     int
	sawTools  []bool
}

func (s *scriptedLLM) Chat(_ context.Context, _ string, _ []engine.ChatMessage, toolSchemas []engine.ToolSchema, _ engine.ChatOptions) (engine.LLMResponse, error) {
	s.sawTools = append(s.sawTools, len(toolSchemas) > 0)
	if s.calls >= len(s.responses) {
		return say("done", engine.Usage{}), nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func say(content string, usage engine.Usage) engine.LLMResponse {
	return engine.LLMResponse{
		Assistant:    engine.ChatMessage{Role: engine.RoleAssistant, Content: content},
		FinishReason: "stop",
		Usage:        usage,
	}
}

func testDeps(llm engine.LLMClient) Deps {
	cfg := engine.DefaultConfig()
	cfg.MaxSteps = 5
	cfg.Retry.MaxAttempts = 1
	return Deps{
		Config:       cfg,
		LLM:          llm,
		SystemPrompt: "you are a test agent",
	}
}

func echoRegistry() engine.ToolRegistry {
	reg := make(engine.ToolRegistry)
	reg["echo"] = engine.Tool{
		Name:        "echo",
		Description: "echoes input",
		SchemaJSON:  `{"type": "object", "properties": {"text": {"type": "string"}}, "required": ["text"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			return text, nil
		},
	}
	return reg
}

func TestPlannerNeverSendsToolSchemas(t *testing.T) {
	llm := &scriptedLLM{responses: []engine.LLMResponse{
		say("plan ready", engine.Usage{Prompt: 5, Completion: 5, Total: 10}),
	}}

	s, err := NewPlanner(testDeps(llm))
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}
	if s.Flavor() != LabelPlanner {
		t.Errorf("Flavor() = %q, want %q", s.Flavor(), LabelPlanner)
	}

	text, _, err := s.Ask(context.Background(), "make a plan")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if text != "plan ready" {
		t.Errorf("Ask() = %q, want %q", text, "plan ready")
	}
	for i, saw := range llm.sawTools {
		if saw {
			t.Errorf("call %d received tool schemas, planner must send none", i)
		}
	}
}

func TestWorkerSendsToolSchemas(t *testing.T) {
	llm := &scriptedLLM{responses: []engine.LLMResponse{
		say("done", engine.Usage{}),
	}}

	deps := testDeps(llm)
	deps.Registry = echoRegistry()
	s, err := NewWorker(deps)
	if err != nil {
		t.Fatalf("NewWorker() error = %v", err)
	}

	if _, _, err := s.Ask(context.Background(), "do the thing"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(llm.sawTools) == 0 || !llm.sawTools[0] {
		t.Error("worker session did not send tool schemas")
	}
}

func TestWorkerRequiresRegistry(t *testing.T) {
	_, err := NewWorker(testDeps(&scriptedLLM{}))
	if err == nil {
		t.Fatal("NewWorker() without registry should fail")
	}
	if !engine.IsConfigError(err) {
		t.Errorf("error = %v, want ConfigError", err)
	}
}

type recordingDispatcher struct{ names []string }

func (d *recordingDispatcher) Dispatch(_ context.Context, name string, _ map[string]any) string {
	d.names = append(d.names, name)
	return "dispatched"
}

func TestWorkerDispatcherOverridesRegistry(t *testing.T) {
	llm := &scriptedLLM{responses: []engine.LLMResponse{
		{
			Assistant:    engine.ChatMessage{Role: engine.RoleAssistant},
			ToolCalls:    []engine.ToolCall{{ID: "call_1", Name: "run_cmd", Args: map[string]any{"command": "id"}}},
			FinishReason: "tool_calls",
		},
		say("done", engine.Usage{}),
	}}
	disp := &recordingDispatcher{}

	deps := testDeps(llm)
	deps.Dispatcher = disp
	deps.Schemas = []engine.ToolSchema{{Name: "run_cmd", Description: "run a command", JSONSchema: `{"type": "object"}`}}

	s, err := NewWorker(deps)
	if err != nil {
		t.Fatalf("NewWorker() error = %v", err)
	}
	text, _, err := s.Ask(context.Background(), "check who we are")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if text != "done" {
		t.Errorf("Ask() = %q, want done", text)
	}
	if len(disp.names) != 1 || disp.names[0] != "run_cmd" {
		t.Errorf("dispatched tools = %v, want [run_cmd]", disp.names)
	}
	if len(llm.sawTools) == 0 || !llm.sawTools[0] {
		t.Error("worker session did not send the provided schemas")
	}
}

func TestAskAccumulatesUsage(t *testing.T) {
	llm := &scriptedLLM{responses: []engine.LLMResponse{
		say("first", engine.Usage{Prompt: 10, Completion: 5, Total: 15}),
		say("second", engine.Usage{Prompt: 20, Completion: 5, Total: 25}),
	}}

	s, err := NewPlanner(testDeps(llm))
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}

	if _, _, err := s.Ask(context.Background(), "one"); err != nil {
		t.Fatalf("Ask(one) error = %v", err)
	}
	if _, usage, err := s.Ask(context.Background(), "two"); err != nil {
		t.Fatalf("Ask(two) error = %v", err)
	} else if usage.Total != 25 {
		t.Errorf("second Ask usage.Total = %d, want 25", usage.Total)
	}

	if got := s.TotalUsage().Total; got != 40 {
		t.Errorf("TotalUsage().Total = %d, want 40", got)
	}
	if res := s.LastResult(); res == nil || res.Termination != engine.TerminationFinalAnswer {
		t.Errorf("LastResult() = %+v, want final answer termination", res)
	}
}

func TestSessionKeepsHistoryAcrossAsks(t *testing.T) {
	llm := &scriptedLLM{responses: []engine.LLMResponse{
		say("a", engine.Usage{}),
		say("b", engine.Usage{}),
	}}

	s, err := NewPlanner(testDeps(llm))
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}
	if _, _, err := s.Ask(context.Background(), "first question"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if _, _, err := s.Ask(context.Background(), "second question"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	history := s.History()
	if len(history) != 4 {
		t.Fatalf("History() has %d messages, want 4 (two user + two assistant)", len(history))
	}
	if history[0].Content != "first question" || history[2].Content != "second question" {
		t.Errorf("history out of arrival order: %+v", history)
	}
}

func TestRenderTranscript(t *testing.T) {
	messages := []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "scan the host"},
		{Role: engine.RoleAssistant, ToolCalls: []engine.ToolCall{{ID: "call_1", Name: "run_cmd"}}},
		{Role: engine.RoleTool, ToolCallID: "call_1", Content: "22/tcp open ssh"},
		{Role: engine.RoleAssistant, Content: "found an open ssh port"},
	}

	rendered := RenderTranscript(messages)
	for _, want := range []string{
		"[user] scan the host",
		"[assistant] requested tools: run_cmd",
		"[tool call_1] 22/tcp open ssh",
		"[assistant] found an open ssh port",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("transcript missing %q:\n%s", want, rendered)
		}
	}
}

func TestRenderTranscriptTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("x", 2000)
	rendered := RenderTranscript([]engine.ChatMessage{{Role: engine.RoleUser, Content: long}})
	if len(rendered) >= 2000 {
		t.Errorf("transcript not truncated, length = %d", len(rendered))
	}
	if !strings.HasSuffix(rendered, "...") {
		t.Errorf("truncated transcript should end with ellipsis: %q", rendered[len(rendered)-20:])
	}
}
