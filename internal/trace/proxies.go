package trace

import (
	"context"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

// LLMProxy wraps a reasoning client and emits a request/response event
// pair around every call. It is transparent: responses and errors pass
// through unchanged.
type LLMProxy struct {
	client  engine.LLMClient
	traceID string
	sink    EventSink
}

// NewLLMProxy wraps client so its calls appear in the trace under traceID.
func NewLLMProxy(client engine.LLMClient, traceID string, sink EventSink) *LLMProxy {
	return &LLMProxy{client: client, traceID: traceID, sink: sink}
}

func (p *LLMProxy) Chat(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	toolNames := make([]string, 0, len(toolSchemas))
	for _, s := range toolSchemas {
		toolNames = append(toolNames, s.Name)
	}
	p.sink.Emit(NewEvent("llm_request", p.traceID, map[string]any{
		"model":    model,
		"messages": messages,
		"tools":    toolNames,
	}))

	start := time.Now()
	resp, err := p.client.Chat(ctx, model, messages, toolSchemas, opts)
	duration := time.Since(start)

	data := map[string]any{"duration_ms": duration.Milliseconds()}
	if err != nil {
		data["error"] = err.Error()
	} else {
		calls := make([]string, 0, len(resp.ToolCalls))
		for _, c := range resp.ToolCalls {
			calls = append(calls, c.Name)
		}
		data["content"] = resp.Assistant.Content
		data["tool_calls"] = calls
		data["finish_reason"] = resp.FinishReason
		data["usage"] = resp.Usage
	}
	p.sink.Emit(NewEvent("llm_response", p.traceID, data))

	return resp, err
}

// ToolProxy wraps a dispatcher and emits a request/response event pair
// around every dispatch.
type ToolProxy struct {
	dispatcher engine.Dispatcher
	traceID    string
	sink       EventSink
}

// NewToolProxy wraps dispatcher so its dispatches appear in the trace.
func NewToolProxy(dispatcher engine.Dispatcher, traceID string, sink EventSink) *ToolProxy {
	return &ToolProxy{dispatcher: dispatcher, traceID: traceID, sink: sink}
}

func (p *ToolProxy) Dispatch(ctx context.Context, name string, args map[string]any) string {
	p.sink.Emit(NewEvent("tool_request", p.traceID, map[string]any{
		"tool_name": name,
		"params":    args,
	}))

	start := time.Now()
	output := p.dispatcher.Dispatch(ctx, name, args)
	duration := time.Since(start)

	p.sink.Emit(NewEvent("tool_response", p.traceID, map[string]any{
		"tool_name":   name,
		"output":      output,
		"duration_ms": duration.Milliseconds(),
	}))

	return output
}

// LoopHook emits loop lifecycle events. Attach via the engine's hook
// list; everything except start/done is inherited from NopHook.
type LoopHook struct {
	engine.NopHook
	TraceID string
	Sink    EventSink
}

func (h *LoopHook) OnLoopStart(_ context.Context, task string) {
	h.Sink.Emit(NewEvent("loop_started", h.TraceID, map[string]any{"task": task}))
}

func (h *LoopHook) OnLoopDone(_ context.Context, result *engine.LoopResult) {
	h.Sink.Emit(NewEvent("loop_completed", h.TraceID, map[string]any{
		"termination": string(result.Termination),
		"steps_used":  result.StepsUsed,
		"tool_calls":  len(result.ToolInvocations),
		"usage":       result.Usage,
	}))
}
