// Package session binds one conversation log and one Reason-Act engine
// under a stable identifier. A session accumulates usage across tasks and
// keeps its log across Ask calls so later turns see earlier ones.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

// Label distinguishes the two session flavors in traces and transcripts.
type Label string

const (
	LabelPlanner     Label = "planner"
	LabelWorker      Label = "worker"
	LabelInteractive Label = "interactive"
)

// Deps holds the collaborators a session wires into its engine. Registry
// is ignored by the planner flavor; everything else applies to both.
// Dispatcher overrides Registry when set, so callers can interpose a
// decorator (tracing, auditing) between the loop and the tools.
type Deps struct {
	Config            engine.Config
	LLM               engine.LLMClient
	Personality       engine.LLMClient
	PersonalityPrompt string
	Registry          engine.ToolRegistry
	Dispatcher        engine.Dispatcher
	Schemas           []engine.ToolSchema
	ContextBuilder    engine.ContextBuilder
	Hooks             engine.Hooks
	SystemPrompt      string
}

// Session wraps a loop engine with a stable id and usage accounting.
type Session struct {
	id     string
	label  Label
	eng    *engine.Engine
	convo  *engine.Conversation
	totals engine.Usage
	last   *engine.LoopResult
}

// NewPlanner builds a planner-flavored session: the reasoning client never
// receives tool definitions, so it cannot request dispatches.
func NewPlanner(deps Deps) (*Session, error) {
	b := engine.NewBuilder().
		WithConfig(deps.Config).
		WithLLM(deps.LLM).
		WithSystemPrompt(deps.SystemPrompt).
		WithHooks(deps.Hooks)
	return build(b, deps, LabelPlanner)
}

// NewWorker builds a worker-flavored session with the full tool schema.
func NewWorker(deps Deps) (*Session, error) {
	if deps.Registry == nil && deps.Dispatcher == nil {
		return nil, &engine.ConfigError{Field: "registry", Reason: "worker session requires a tool registry"}
	}
	b := engine.NewBuilder().
		WithConfig(deps.Config).
		WithLLM(deps.LLM).
		WithSystemPrompt(deps.SystemPrompt).
		WithContextBuilder(deps.ContextBuilder).
		WithHooks(deps.Hooks)
	if deps.Dispatcher != nil {
		b = b.WithDispatcher(deps.Dispatcher, deps.Schemas)
	} else {
		b = b.WithRegistry(deps.Registry)
	}
	return build(b, deps, LabelWorker)
}

// NewInteractive builds the REPL session: worker wiring under a label of
// its own so transcripts are distinguishable.
func NewInteractive(deps Deps) (*Session, error) {
	s, err := NewWorker(deps)
	if err != nil {
		return nil, err
	}
	s.label = LabelInteractive
	return s, nil
}

func build(b *engine.Builder, deps Deps, label Label) (*Session, error) {
	if deps.Personality != nil {
		b = b.WithPersonality(deps.Personality, deps.PersonalityPrompt)
	}
	eng, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Session{
		id:    uuid.NewString(),
		label: label,
		eng:   eng,
		convo: eng.Conversation(),
	}, nil
}

// ID returns the session's stable identifier.
func (s *Session) ID() string { return s.id }

// Flavor returns the session label.
func (s *Session) Flavor() Label { return s.label }

// Ask runs one task through the engine and returns the response text plus
// the usage of that run. The conversation log is reused, so consecutive
// calls form one multi-turn dialogue. Loop-level failures arrive as
// response text with an Error termination on LastResult, not as the error
// return, which fires only for violated preconditions.
func (s *Session) Ask(ctx context.Context, task string) (string, engine.Usage, error) {
	res, err := s.eng.Run(ctx, task)
	if err != nil {
		return "", engine.Usage{}, err
	}
	s.totals.Add(res.Usage)
	s.last = res
	return res.FinalText, res.Usage, nil
}

// TotalUsage returns the usage accumulated across all Ask calls.
func (s *Session) TotalUsage() engine.Usage { return s.totals }

// LastResult returns the result of the most recent Ask, or nil before the
// first one. Callers must treat it as read-only.
func (s *Session) LastResult() *engine.LoopResult { return s.last }

// History returns a copy of the full conversation in arrival order.
func (s *Session) History() []engine.ChatMessage { return s.convo.Messages() }

// TranscriptTail renders the last n messages as plain text, for feeding
// one session's recent activity into another's prompt.
func (s *Session) TranscriptTail(n int) string {
	return RenderTranscript(s.convo.Window(n))
}

// Record converts the session into its persistable form.
func (s *Session) Record() *Record {
	return &Record{
		ID:       s.id,
		Label:    s.label,
		Messages: s.convo.Messages(),
		Usage:    s.totals,
	}
}

// NewID returns a fresh session identifier.
func NewID() string { return uuid.NewString() }
