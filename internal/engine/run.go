package engine

import (
	"context"
	"strings"
)

// Run executes the Reason-Act loop for one task until a final answer, the
// step limit, or an error. The task is appended as a user message; every
// step is one full reasoning+dispatch round and the step limit is
// evaluated at round boundaries, never mid-round.
//
// Runtime failures never surface as the error return: retry exhaustion,
// cancellation, and step-limit exits are all folded into the LoopResult so
// callers observe one uniform outcome shape. The error return fires only
// for a violated precondition (empty task).
func (e *Engine) Run(ctx context.Context, task string) (*LoopResult, error) {
	if strings.TrimSpace(task) == "" {
		return nil, &ConfigError{Field: "task", Reason: "must not be empty"}
	}

	res := &LoopResult{}
	e.hooks.OnLoopStart(ctx, task)

	// The context block is fetched once per invocation and injected into
	// the initial framing; the loop treats it as opaque text.
	contextBlock := ""
	if e.contextBuilder != nil {
		contextBlock = e.contextBuilder.Build(ctx, task)
	}

	e.convo.Append(ChatMessage{Role: RoleUser, Content: task, CreatedAt: e.now()})

	for res.StepsUsed < e.cfg.MaxSteps {
		// Cancellation is observed between rounds so the conversation log
		// is never left half-updated.
		if err := ctx.Err(); err != nil {
			res.Termination = TerminationError
			res.FinalText = "run cancelled: " + err.Error()
			e.hooks.OnLoopDone(ctx, res)
			return res, nil
		}

		e.hooks.OnStepStart(ctx, res.StepsUsed+1)

		final, err := e.stepOnce(ctx, contextBlock, res)
		if err != nil {
			// Retries were exhausted or a permanent service failure
			// occurred; report it as data, not as an error.
			res.Termination = TerminationError
			res.FinalText = err.Error()
			e.hooks.OnLoopDone(ctx, res)
			return res, nil
		}

		res.StepsUsed++

		if final {
			res.Termination = TerminationFinalAnswer
			break
		}
		if res.StepsUsed >= e.cfg.MaxSteps {
			res.Termination = TerminationStepLimitReached
			res.FinalText = "stopped after reaching the step limit"
		}
	}

	if res.Termination == TerminationFinalAnswer {
		res.FinalText = e.enhanceFinalText(ctx, res.FinalText, res)
	}

	e.hooks.OnLoopDone(ctx, res)
	return res, nil
}
