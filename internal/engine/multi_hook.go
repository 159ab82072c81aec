package engine

import (
	"context"
	"time"
)

type Hooks []Hook

func (hs Hooks) OnLoopStart(ctx context.Context, task string) {
	for _, h := range hs {
		h.OnLoopStart(ctx, task)
	}
}
func (hs Hooks) OnStepStart(ctx context.Context, step int) {
	for _, h := range hs {
		h.OnStepStart(ctx, step)
	}
}
func (hs Hooks) OnBeforeLLM(ctx context.Context, m []ChatMessage, schemas []ToolSchema) {
	for _, h := range hs {
		h.OnBeforeLLM(ctx, m, schemas)
	}
}
func (hs Hooks) OnAfterLLM(ctx context.Context, r LLMResponse) {
	for _, h := range hs {
		h.OnAfterLLM(ctx, r)
	}
}
func (hs Hooks) OnToolCall(ctx context.Context, c ToolCall) {
	for _, h := range hs {
		h.OnToolCall(ctx, c)
	}
}
func (hs Hooks) OnToolResult(ctx context.Context, c ToolCall, result string, d time.Duration) {
	for _, h := range hs {
		h.OnToolResult(ctx, c, result, d)
	}
}
func (hs Hooks) OnRetryAttempt(ctx context.Context, attempt int, maxAttempts int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, attempt, maxAttempts, delay, err)
	}
}
func (hs Hooks) OnRetryExhausted(ctx context.Context, err error) {
	for _, h := range hs {
		h.OnRetryExhausted(ctx, err)
	}
}
func (hs Hooks) OnLoopDone(ctx context.Context, result *LoopResult) {
	for _, h := range hs {
		h.OnLoopDone(ctx, result)
	}
}
