package engine

import (
	"context"
	"fmt"
	"time"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ChatMessage is the provider-agnostic message we pass around.
// Messages are immutable once appended to a Conversation.
type ChatMessage struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`   // tool calls requested by this assistant message
	ToolCallID string      `json:"tool_call_id,omitempty"` // set only when Role == RoleTool
	CreatedAt  time.Time   `json:"created_at"`
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if m.Role == RoleTool && m.ToolCallID == "" {
		return fmt.Errorf("tool messages must carry a tool call id")
	}
	return nil
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(o Usage) {
	u.Prompt += o.Prompt
	u.Completion += o.Completion
	u.Total += o.Total
}

// ToolCall represents a function/tool the assistant requested.
// Each call is consumed exactly once by the loop and answered by exactly
// one tool message carrying the matching ID.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// LLMResponse is a normalized result of one chat call.
type LLMResponse struct {
	Assistant    ChatMessage
	ToolCalls    []ToolCall // zero or more tool calls requested by the model
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}

// LLMClient abstracts the reasoning service SDK (OpenAI, Anthropic, etc.).
// Implementations must wrap failures so ClassifyLLMError can discriminate
// transient classes (network, rate limit) from permanent ones.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error)
}

// ChatOptions keeps knobs forwarded to the SDK.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

// ToolSchema is the JSON schema the provider expects for function calling.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // raw JSON string
}

// Dispatcher executes one requested tool call and reports the outcome as
// text. Implementations never fail the loop: execution errors, unknown
// tools, and invalid parameters come back as "ERROR: ..." result text so
// the next reasoning step can observe and react to them.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) string
}

// ContextBuilder supplies an opaque context block injected once per loop
// invocation into the initial framing. A nil builder and an empty block are
// both valid; retrieval quality is out of the loop's hands.
type ContextBuilder interface {
	Build(ctx context.Context, task string) string
}

// TerminationReason tells the caller why a loop stopped.
type TerminationReason string

const (
	TerminationFinalAnswer      TerminationReason = "final_answer"
	TerminationStepLimitReached TerminationReason = "step_limit_reached"
	TerminationError            TerminationReason = "error"
)

// ToolInvocation records one tool dispatch issued during a loop run.
type ToolInvocation struct {
	Tool       string         `json:"tool"`
	Params     map[string]any `json:"params"`
	Result     string         `json:"result"`
	DurationMS int64          `json:"duration_ms"`
}

// LoopResult is the outcome of one Engine.Run invocation. It is created
// once per run, returned to the caller and never mutated afterwards.
// Failures inside the loop are absorbed here rather than surfaced as
// errors: Termination reports the kind of exit and FinalText carries the
// last failure description when Termination == TerminationError.
type LoopResult struct {
	FinalText       string            `json:"final_text"`
	StepsUsed       int               `json:"steps_used"`
	ToolInvocations []ToolInvocation  `json:"tool_invocations,omitempty"`
	Termination     TerminationReason `json:"termination"`
	Usage           Usage             `json:"usage"`
}
