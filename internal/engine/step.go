package engine

import (
	"context"
	"fmt"
	"time"
)

// stepOnce runs one full reasoning+dispatch round. It returns true when
// the assistant produced a final answer: a response with no tool calls,
// empty content included.
func (e *Engine) stepOnce(ctx context.Context, contextBlock string, res *LoopResult) (bool, error) {
	msgs := e.outboundMessages(contextBlock)

	e.hooks.OnBeforeLLM(ctx, msgs, e.schemas)

	resp, err := RetryLLMCall(
		ctx,
		e.cfg.Retry,
		e.llm,
		e.cfg.Model,
		msgs,
		e.schemas,
		e.chatOptions(),
		func(attempt int, delay time.Duration, retryErr error) {
			e.hooks.OnRetryAttempt(ctx, attempt, e.cfg.Retry.MaxAttempts, delay, retryErr)
		},
	)
	if err != nil {
		if IsRetryExhausted(err) {
			e.hooks.OnRetryExhausted(ctx, err)
		}
		return false, err
	}

	e.hooks.OnAfterLLM(ctx, resp)
	res.Usage.Add(resp.Usage)

	assistant := resp.Assistant
	assistant.Role = RoleAssistant
	assistant.ToolCalls = resp.ToolCalls
	assistant.CreatedAt = e.now()
	e.convo.Append(assistant)

	if len(resp.ToolCalls) == 0 {
		res.FinalText = assistant.Content
		return true, nil
	}

	e.dispatchAll(ctx, resp.ToolCalls, res)
	return false, nil
}

// outboundMessages builds the request sequence: system framing (with the
// per-run context block, when present) followed by the recency window.
// The window bounds per-call token cost independent of task length; the
// full log stays in the conversation for audit.
func (e *Engine) outboundMessages(contextBlock string) []ChatMessage {
	system := e.systemPrompt
	if contextBlock != "" {
		if system != "" {
			system = contextBlock + "\n\n" + system
		} else {
			system = contextBlock
		}
	}

	window := e.convo.Window(e.cfg.WindowSize)
	msgs := make([]ChatMessage, 0, len(window)+1)
	if system != "" {
		msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: system, CreatedAt: e.now()})
	}
	return append(msgs, window...)
}

// dispatchAll invokes the dispatcher for each requested call strictly in
// the order received. Tool side effects may be order-dependent, so calls
// never run concurrently. Every request id receives exactly one answering
/// tool message before the next reasoning call: calls skipped by
// cancellation, and calls arriving with no dispatcher configured, are
// answered with a fabricated error result rather than dropped.
func (e *Engine) dispatchAll(ctx context.Context, calls []ToolCall, res *LoopResult) {
	for _, call := range calls {
		var result string
		var took time.Duration

		switch {
		case ctx.Err() != nil:
			result = "ERROR: cancelled before execution: " + ctx.Err().Error()
		case e.dispatcher == nil:
			result = fmt.Sprintf("ERROR: tool not found: %s (no tools configured)", call.Name)
		default:
			e.hooks.OnToolCall(ctx, call)
			start := e.now()
			result = e.dispatcher.Dispatch(ctx, call.Name, call.Args)
			took = e.now().Sub(start)
		}

		result = TruncateToolResult(result, e.cfg.MaxToolResultChars)

		id := call.ID
		if id == "" {
			// Providers should always set ids; fall back to the name so
			// the answering message still matches something.
			id = call.Name
		}

		e.convo.Append(ChatMessage{
			Role:       RoleTool,
			Content:    result,
			ToolCallID: id,
			CreatedAt:  e.now(),
		})
		e.hooks.OnToolResult(ctx, call, result, took)

		res.ToolInvocations = append(res.ToolInvocations, ToolInvocation{
			Tool:       call.Name,
			Params:     call.Args,
			Result:     result,
			DurationMS: took.Milliseconds(),
		})
	}
}

func (e *Engine) chatOptions() ChatOptions {
	return ChatOptions{
		Temperature:     e.cfg.Temperature,
		MaxOutputTokens: e.cfg.MaxOutputTokens,
	}
}
