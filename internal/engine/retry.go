package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior for reasoning-service calls. The
// constants are tunable configuration, not contracts: callers load them
// from config and tests pin them per case.
type RetryPolicy struct {
	MaxAttempts  int           // total attempts including the first (minimum 1)
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration // delay cap
	Multiplier   float64       // exponential backoff multiplier (e.g., 2.0)
	Jitter       bool          // add random jitter to delays
}

// DefaultRetryPolicy returns the default reasoning-call retry policy:
// ten attempts, 2s base delay doubling up to a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy executes fn with retry logic based on the policy.
// Returns the result on success, or a RetryExhaustedError wrapping the
// last failure once attempts run out. Non-retryable errors return
// immediately.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classifyError func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0

	for {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := classifyError(err)
		if class == RetryClassNonRetryable {
			return zero, err
		}

		if attempt >= maxAttempts-1 {
			return zero, NewRetryExhaustedError(err, attempt+1, maxAttempts, false)
		}

		// "maybe" class errors get at most two retries regardless of policy
		if class == RetryClassMaybe && attempt >= 2 {
			return zero, NewRetryExhaustedError(err, attempt+1, 3, true)
		}

		delay := calculateDelay(policy, attempt, err)

		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}

		attempt++
	}
}

// calculateDelay computes the delay for a retry attempt.
func calculateDelay(policy RetryPolicy, attempt int, err error) time.Duration {
	// A Retry-After header overrides the backoff schedule, capped at MaxDelay.
	retryAfter := ExtractRetryAfter(err)
	if retryAfter > 0 {
		if retryAfter > policy.MaxDelay {
			return policy.MaxDelay
		}
		return retryAfter
	}

	// Exponential backoff: initialDelay * (multiplier ^ attempt)
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))

	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}

	// 0-20% random variation
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}

	return time.Duration(delay)
}

// RetryLLMCall wraps a reasoning-service call with retry logic.
func RetryLLMCall(
	ctx context.Context,
	policy RetryPolicy,
	llm LLMClient,
	model string,
	messages []ChatMessage,
	toolSchemas []ToolSchema,
	opts ChatOptions,
	onRetry func(attempt int, delay time.Duration, err error),
) (LLMResponse, error) {
	return RetryWithPolicy(
		ctx,
		policy,
		func(ctx context.Context) (LLMResponse, error) {
			return llm.Chat(ctx, model, messages, toolSchemas, opts)
		},
		ClassifyLLMError,
		onRetry,
	)
}
