package engine

import (
	"time"
)

// Config holds the engine knobs. Retry and window constants are tunable
// configuration loaded by the caller, not fixed contracts.
type Config struct {
	Model              string
	PersonalityModel   string // model for the final-answer rewrite pass ("" = Model)
	MaxSteps           int    // reasoning+dispatch rounds before StepLimitReached
	WindowSize         int    // recency window in messages
	MaxToolResultChars int    // head/tail trim bound for tool output (0 = no trim)
	Temperature        float32
	MaxOutputTokens    int
	Retry              RetryPolicy
}

// DefaultConfig returns a default engine configuration.
func DefaultConfig() Config {
	return Config{
		Model:              "gpt-4o-mini",
		MaxSteps:           50,
		WindowSize:         100,
		MaxToolResultChars: 8000,
		MaxOutputTokens:    8192,
		Retry:              DefaultRetryPolicy(),
	}
}

// Validate reports the first configuration problem as a ConfigError.
func (c Config) Validate() error {
	if c.Model == "" {
		return &ConfigError{Field: "model", Reason: "must not be empty"}
	}
	if c.MaxSteps < 1 {
		return &ConfigError{Field: "max_steps", Reason: "must be at least 1"}
	}
	if c.WindowSize < 1 {
		return &ConfigError{Field: "window_size", Reason: "must be at least 1"}
	}
	if c.Retry.MaxAttempts < 1 {
		return &ConfigError{Field: "retry.max_attempts", Reason: "must be at least 1"}
	}
	return nil
}

// Engine drives the Reason-Act loop for one conversation. It owns no
// shared state: the conversation log belongs to the session that built
// the engine, and everything else is an injected collaborator.
type Engine struct {
	llm               LLMClient
	personality       LLMClient // optional final-answer rewrite client
	personalityPrompt string
	dispatcher        Dispatcher
	schemas           []ToolSchema
	convo             *Conversation
	systemPrompt      string
	contextBuilder    ContextBuilder
	hooks             Hooks
	cfg               Config
	now               func() time.Time
}

// Conversation exposes the engine's message log for audit and persistence.
func (e *Engine) Conversation() *Conversation { return e.convo }

// Builder constructs an Engine with a fluent API and validates the
// wiring. A missing required collaborator fails fast at Build time,
// before any loop starts.
type Builder struct {
	cfg               Config
	llm               LLMClient
	personality       LLMClient
	personalityPrompt string
	dispatcher        Dispatcher
	schemas           []ToolSchema
	convo             *Conversation
	systemPrompt      string
	contextBuilder    ContextBuilder
	hooks             Hooks
	now               func() time.Time
}

// NewBuilder creates a builder with the default configuration.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithLLM sets the reasoning client.
func (b *Builder) WithLLM(llm LLMClient) *Builder {
	b.llm = llm
	return b
}

// WithPersonality sets the optional rewrite client and its style prompt.
func (b *Builder) WithPersonality(llm LLMClient, stylePrompt string) *Builder {
	b.personality = llm
	b.personalityPrompt = stylePrompt
	return b
}

// WithDispatcher sets the tool dispatcher and the schemas advertised to
// the reasoning client. Leaving both unset yields a planner-flavored
// engine that can never request dispatches.
func (b *Builder) WithDispatcher(d Dispatcher, schemas []ToolSchema) *Builder {
	b.dispatcher = d
	b.schemas = schemas
	return b
}

// WithRegistry wires a tool registry as both dispatcher and schema source.
func (b *Builder) WithRegistry(reg ToolRegistry) *Builder {
	return b.WithDispatcher(reg, reg.Schemas())
}

// WithSystemPrompt sets the system framing prepended to every reasoning call.
func (b *Builder) WithSystemPrompt(prompt string) *Builder {
	b.systemPrompt = prompt
	return b
}

// WithContextBuilder sets the retrieval collaborator.
func (b *Builder) WithContextBuilder(cb ContextBuilder) *Builder {
	b.contextBuilder = cb
	return b
}

// WithConversation binds an existing conversation log (multi-turn reuse).
func (b *Builder) WithConversation(c *Conversation) *Builder {
	b.convo = c
	return b
}

// WithHooks sets the observer hooks.
func (b *Builder) WithHooks(hooks Hooks) *Builder {
	b.hooks = hooks
	return b
}

// WithClock overrides the time source (tests).
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the wiring and returns the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.llm == nil {
		return nil, &ConfigError{Field: "llm", Reason: "reasoning client is required"}
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(b.schemas) > 0 && b.dispatcher == nil {
		return nil, &ConfigError{Field: "dispatcher", Reason: "tool schemas configured without a dispatcher"}
	}

	convo := b.convo
	if convo == nil {
		convo = NewConversation()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	cfg := b.cfg
	if cfg.PersonalityModel == "" {
		cfg.PersonalityModel = cfg.Model
	}

	return &Engine{
		llm:               b.llm,
		personality:       b.personality,
		personalityPrompt: b.personalityPrompt,
		dispatcher:        b.dispatcher,
		schemas:           b.schemas,
		convo:             convo,
		systemPrompt:      b.systemPrompt,
		contextBuilder:    b.contextBuilder,
		hooks:             b.hooks,
		cfg:               cfg,
		now:               now,
	}, nil
}
