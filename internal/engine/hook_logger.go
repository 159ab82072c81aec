// engine/hook_logger.go
package engine

import (
	"context"
	"log"
	"time"
)

type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnLoopStart(_ context.Context, task string) {
	preview := task
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	h.L.Printf("loop start: %s", preview)
}
func (h LoggerHook) OnStepStart(_ context.Context, step int) {
	h.L.Printf("step=%d", step)
}
func (h LoggerHook) OnBeforeLLM(_ context.Context, msgs []ChatMessage, toolSchemas []ToolSchema) {
	h.L.Printf("llm call: %d msgs, %d tools", len(msgs), len(toolSchemas))
}
func (h LoggerHook) OnAfterLLM(_ context.Context, r LLMResponse) {
	h.L.Printf("finish=%s tokens: prompt=%d completion=%d total=%d",
		r.FinishReason, r.Usage.Prompt, r.Usage.Completion, r.Usage.Total)
}
func (h LoggerHook) OnToolCall(_ context.Context, c ToolCall) {
	h.L.Printf("tool → %s args=%v", c.Name, c.Args)
}
func (h LoggerHook) OnToolResult(_ context.Context, c ToolCall, result string, d time.Duration) {
	preview := result
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	h.L.Printf("tool %s (%v): %s", c.Name, d.Round(time.Millisecond), preview)
}
func (h LoggerHook) OnRetryAttempt(_ context.Context, attempt int, maxAttempts int, delay time.Duration, err error) {
	h.L.Printf("retry attempt=%d/%d delay=%v error=%v", attempt, maxAttempts, delay, err)
}
func (h LoggerHook) OnRetryExhausted(_ context.Context, err error) {
	h.L.Printf("retries exhausted: %v", err)
}
func (h LoggerHook) OnLoopDone(_ context.Context, result *LoopResult) {
	h.L.Printf("done: steps=%d termination=%s tokens=%d",
		result.StepsUsed, result.Termination, result.Usage.Total)
}
