package brain

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/prompts"
	"github.com/AiWaldoh/a-i-d-a/internal/trace"
)

// Agent is the session surface the orchestrator drives. Both roles are
// ordinary sessions; the planner simply has no tools.
type Agent interface {
	Ask(ctx context.Context, task string) (string, engine.Usage, error)
	TranscriptTail(n int) string
}

// stopKeywords end the cycle when any appears in a planner directive.
// Scanned case-insensitively before the worker is invoked, so a decision
// to stop never costs a worker turn.
var stopKeywords = []string{"complete", "finished", "done", "success", "accomplished"}

const (
	defaultTailLen = 6
	findingPreview = 100
	taskPreview    = 50
)

// Config holds the orchestrator knobs.
type Config struct {
	Target        string
	Goal          string
	MaxIterations int
	Persona       string        // planner persona text; "" uses the registered default
	TailLen       int           // worker transcript messages shown to the planner
	Pause         time.Duration // settle time between iterations
}

// Orchestrator runs the planner/worker cycle against one target.
type Orchestrator struct {
	cfg        Config
	planner    Agent
	worker     Agent
	state      *TargetState
	extractors []Extractor
	registry   *prompts.PromptRegistry
	sink       trace.EventSink
	runID      string
	logger     *log.Logger
}

// New wires an orchestrator. Planner and worker must be distinct
// sessions; the target state is created fresh in the recon phase.
func New(cfg Config, planner, worker Agent, opts ...Option) (*Orchestrator, error) {
	if cfg.Target == "" {
		return nil, &engine.ConfigError{Field: "target", Reason: "must not be empty"}
	}
	if cfg.Goal == "" {
		return nil, &engine.ConfigError{Field: "goal", Reason: "must not be empty"}
	}
	if cfg.MaxIterations < 1 {
		return nil, &engine.ConfigError{Field: "max_iterations", Reason: "must be at least 1"}
	}
	if planner == nil || worker == nil {
		return nil, &engine.ConfigError{Field: "sessions", Reason: "planner and worker sessions are required"}
	}
	if cfg.TailLen <= 0 {
		cfg.TailLen = defaultTailLen
	}

	o := &Orchestrator{
		cfg:        cfg,
		planner:    planner,
		worker:     worker,
		state:      NewTargetState(cfg.Target, cfg.Goal),
		extractors: DefaultExtractors(),
		registry:   prompts.DefaultRegistry(),
		sink:       trace.NopSink{},
		runID:      uuid.NewString(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Option customizes an orchestrator.
type Option func(*Orchestrator)

// WithExtractors replaces the extraction pipeline.
func WithExtractors(extractors []Extractor) Option {
	return func(o *Orchestrator) { o.extractors = extractors }
}

// WithEventSink routes lifecycle events to sink.
func WithEventSink(sink trace.EventSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithLogger replaces the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRegistry replaces the prompt registry.
func WithRegistry(r *prompts.PromptRegistry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithRunID overrides the generated run identifier so sinks and stores
// created before the orchestrator can correlate under the same id.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.runID = id
		}
	}
}

// RunID identifies this orchestration in traces.
func (o *Orchestrator) RunID() string { return o.runID }

// State exposes the target state for persistence after Run returns.
// Callers must not mutate it while Run is in flight.
func (o *Orchestrator) State() *TargetState { return o.state }

// Run drives the cycle until a stop keyword, the iteration cap, or
// cancellation, then asks the planner for a final report. Every exit path
// returns a non-nil report built from whatever state accumulated;
// report-stage failures degrade to a raw state render instead of failing.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	o.logger.Printf("brain: starting run %s target=%s goal=%q max_iterations=%d",
		o.runID, o.cfg.Target, o.cfg.Goal, o.cfg.MaxIterations)
	o.sink.Emit(trace.NewEvent("brain_session_started", o.runID, map[string]any{
		"target":         o.cfg.Target,
		"goal":           o.cfg.Goal,
		"max_iterations": o.cfg.MaxIterations,
	}))

	o.seedPlanner(ctx)

	stopped := false
	for o.state.Iterations < o.cfg.MaxIterations && !stopped {
		if err := ctx.Err(); err != nil {
			o.state.AddFinding(fmt.Sprintf("run cancelled after %d iterations: %v", o.state.Iterations, err))
			break
		}
		stopped = o.iterate(ctx)
		if !stopped && o.cfg.Pause > 0 {
			o.pause(ctx)
		}
	}

	report := o.finalReport(ctx)
	o.sink.Emit(trace.NewEvent("brain_session_completed", o.runID, map[string]any{
		"iterations": o.state.Iterations,
		"phase":      o.state.Phase.String(),
		"degraded":   report.Degraded,
	}))
	o.logger.Printf("brain: run %s finished after %d iterations phase=%s", o.runID, o.state.Iterations, o.state.Phase)
	return report, nil
}

// iterate performs one planner/worker round and reports whether the
// planner asked to stop. Failures inside the round are recorded as
// findings; the cycle itself continues.
func (o *Orchestrator) iterate(ctx context.Context) (stopped bool) {
	n := o.state.Iterations + 1
	o.logger.Printf("brain: iteration %d/%d phase=%s ports=%d findings=%d",
		n, o.cfg.MaxIterations, o.state.Phase, len(o.state.OpenPorts), len(o.state.Findings))

	directive, err := o.decide(ctx)
	if err != nil {
		o.failIteration(n, "planner", err)
		return false
	}
	o.sink.Emit(trace.NewEvent("brain_decision", o.runID, map[string]any{
		"iteration": n,
		"directive": directive,
	}))

	if containsStopKeyword(directive) {
		o.logger.Printf("brain: planner signalled completion on iteration %d", n)
		o.state.Iterations = n
		o.state.AddFinding("planner concluded: " + clip(directive, findingPreview))
		return true
	}

	result, err := o.execute(ctx, directive)
	if err != nil {
		o.failIteration(n, "worker", err)
		return false
	}

	o.state.Observe(result, o.extractors)
	o.state.AddFinding(fmt.Sprintf("Task: %s Result: %s", clip(directive, taskPreview), clip(result, findingPreview)))
	o.state.Iterations = n
	return false
}

// failIteration converts a session failure into a finding so the run
// continues; the failed iteration still counts against the cap.
func (o *Orchestrator) failIteration(n int, role string, err error) {
	finding := fmt.Sprintf("iteration %d failed: %s error: %v", n, role, err)
	o.state.AddFinding(finding)
	o.state.Iterations = n
	o.logger.Printf("brain: %s", finding)
	o.sink.Emit(trace.NewEvent("brain_iteration_failed", o.runID, map[string]any{
		"iteration": n,
		"role":      role,
		"error":     err.Error(),
	}))
}

// seedPlanner sends the initialization message establishing persona,
// target, and goal. A failure here is recorded and the cycle proceeds;
// the decision prompt re-states enough context to recover.
func (o *Orchestrator) seedPlanner(ctx context.Context) {
	persona := o.cfg.Persona
	if persona == "" {
		persona = o.registry.MustContent("operator-persona")
	}
	init := prompts.Render(o.registry.MustContent("operator-init"), map[string]string{
		"persona": persona,
		"target":  o.cfg.Target,
		"goal":    o.cfg.Goal,
	})
	if _, _, err := o.planner.Ask(ctx, init); err != nil {
		o.state.AddFinding(fmt.Sprintf("planner initialization failed: %v", err))
	}
}

// decide asks the planner for the next directive over the current state
// and the worker's recent transcript.
func (o *Orchestrator) decide(ctx context.Context) (string, error) {
	contextBlock := o.state.Render(o.cfg.MaxIterations)
	if tail := o.worker.TranscriptTail(o.cfg.TailLen); tail != "" {
		contextBlock += "\n\nRECENT WORKER ACTIVITY:\n" + tail
	}
	prompt := prompts.Render(o.registry.MustContent("operator-decision"), map[string]string{
		"context": contextBlock,
		"target":  o.cfg.Target,
	})

	directive, _, err := o.planner.Ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	directive = strings.TrimSpace(directive)
	if directive == "" {
		return "", fmt.Errorf("planner returned an empty directive")
	}
	return directive, nil
}

// execute hands the directive to the worker and returns its transcript.
func (o *Orchestrator) execute(ctx context.Context, directive string) (string, error) {
	prompt := prompts.Render(o.registry.MustContent("operator-worker-task"), map[string]string{
		"task": directive,
	})
	result, _, err := o.worker.Ask(ctx, prompt)
	return result, err
}

func (o *Orchestrator) pause(ctx context.Context) {
	t := time.NewTimer(o.cfg.Pause)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func containsStopKeyword(directive string) bool {
	lower := strings.ToLower(directive)
	for _, kw := range stopKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
