// Package engine drives the Reason-Act loop: alternating reasoning calls
// and sequential tool dispatch against an append-only conversation log.
// This file contains error classification and handling.

package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // never retry
)

// ServiceError wraps a reasoning-service failure with classification
// metadata so the retry policy can discriminate transient from permanent
// failures.
type ServiceError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int    // HTTP status code if applicable
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool
	IsTimeout   bool
	IsNetwork   bool
	IsAuth      bool
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("service error: %s", e.Class)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError with an explicit classification.
func NewServiceError(err error, class RetryClass) *ServiceError {
	return &ServiceError{Err: err, Class: class}
}

// ClassifyLLMError classifies an error from a reasoning-service call.
// Providers that populate ServiceError are trusted; everything else falls
// back to string matching on the error text.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Class
	}

	errStr := strings.ToLower(err.Error())

	// Rate limit errors (429) - retryable, respect Retry-After
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return RetryClassRetryable
	}

	// Server errors (5xx) - retryable
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") {
		return RetryClassRetryable
	}

	// Network/timeout errors - retryable
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dns") ||
		strings.Contains(errStr, "temporary failure") {
		return RetryClassRetryable
	}

	// Context deadline exceeded - maybe (limited retries)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "deadline exceeded") {
		return RetryClassMaybe
	}

	// Length/context overflow - maybe
	if strings.Contains(errStr, "context length") ||
		strings.Contains(errStr, "token limit") ||
		strings.Contains(errStr, "maximum context length") {
		return RetryClassMaybe
	}

	// Authentication errors (401, 403) - non-retryable
	if strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "authentication failed") {
		return RetryClassNonRetryable
	}

	// Bad request (400) - non-retryable
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "bad request") ||
		strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "malformed") {
		return RetryClassNonRetryable
	}

	// Quota exhausted (402) - non-retryable
	if strings.Contains(errStr, "402") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing") ||
		strings.Contains(errStr, "payment required") {
		return RetryClassNonRetryable
	}

	// Safety/guardrail refusals - non-retryable
	if strings.Contains(errStr, "content filter") ||
		strings.Contains(errStr, "safety") ||
		strings.Contains(errStr, "policy violation") {
		return RetryClassNonRetryable
	}

	return RetryClassNonRetryable
}

// ExtractRetryAfter extracts the Retry-After value from an error.
// Returns 0 if not found or invalid.
func ExtractRetryAfter(err error) time.Duration {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.RetryAfter != "" {
		var seconds int
		if _, err := fmt.Sscanf(svcErr.RetryAfter, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := time.Parse(time.RFC1123, svcErr.RetryAfter); err == nil {
			now := time.Now()
			if t.After(now) {
				return t.Sub(now)
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "retry after") {
		var seconds int
		if _, err := fmt.Sscanf(errStr, "retry after %d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	return 0
}

// WrapLLMError wraps a provider error with classification metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}

	class := ClassifyLLMError(err)
	return &ServiceError{
		Err:         err,
		Class:       class,
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
	}
}

// RetryExhaustedError indicates that all retry attempts have been used.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
	IsGuarded   bool // true if this was a "maybe" class error with limited retries
}

func (e *RetryExhaustedError) Error() string {
	if e.IsGuarded {
		return fmt.Sprintf("guarded retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// NewRetryExhaustedError creates a new RetryExhaustedError.
func NewRetryExhaustedError(err error, attempts, maxAttempts int, isGuarded bool) *RetryExhaustedError {
	return &RetryExhaustedError{Err: err, Attempts: attempts, MaxAttempts: maxAttempts, IsGuarded: isGuarded}
}

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var retryExhausted *RetryExhaustedError
	return errors.As(err, &retryExhausted)
}

// ToolValidationError indicates that tool arguments failed JSON schema
// validation. It never escapes the dispatch layer: the loop converts it
// into a synthetic failure result so the protocol stays well-formed.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

// ConfigError reports a missing or invalid collaborator at construction
// time. It is the only error class that surfaces to the caller before any
// loop work begins; everything else is absorbed into results.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// IsConfigError checks if an error is a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
