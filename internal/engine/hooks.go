// engine/hooks.go
package engine

import (
	"context"
	"time"
)

// Hook observes loop execution. Hooks receive notifications but never
// influence control flow; a hook that panics or blocks is a bug in the
// hook, not the loop.
type Hook interface {
	OnLoopStart(ctx context.Context, task string)
	OnStepStart(ctx context.Context, step int)
	OnBeforeLLM(ctx context.Context, messages []ChatMessage, toolSchemas []ToolSchema)
	OnAfterLLM(ctx context.Context, resp LLMResponse)
	OnToolCall(ctx context.Context, call ToolCall)
	OnToolResult(ctx context.Context, call ToolCall, result string, duration time.Duration)
	OnRetryAttempt(ctx context.Context, attempt int, maxAttempts int, delay time.Duration, err error)
	OnRetryExhausted(ctx context.Context, err error)
	OnLoopDone(ctx context.Context, result *LoopResult)
}

// NopHook lets you implement only the hooks you need.
type NopHook struct{}

func (NopHook) OnLoopStart(context.Context, string)                                 {}
func (NopHook) OnStepStart(context.Context, int)                                    {}
func (NopHook) OnBeforeLLM(context.Context, []ChatMessage, []ToolSchema)            {}
func (NopHook) OnAfterLLM(context.Context, LLMResponse)                             {}
func (NopHook) OnToolCall(context.Context, ToolCall)                                {}
func (NopHook) OnToolResult(context.Context, ToolCall, string, time.Duration)       {}
func (NopHook) OnRetryAttempt(context.Context, int, int, time.Duration, error)      {}
func (NopHook) OnRetryExhausted(context.Context, error)                             {}
func (NopHook) OnLoopDone(context.Context, *LoopResult)                             {}
