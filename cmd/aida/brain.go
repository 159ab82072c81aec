package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/AiWaldoh/a-i-d-a/internal/brain"
	"github.com/AiWaldoh/a-i-d-a/internal/prompts"
	"github.com/AiWaldoh/a-i-d-a/internal/session"
	"github.com/AiWaldoh/a-i-d-a/internal/store"
	"github.com/AiWaldoh/a-i-d-a/internal/trace"
)

// runBrainMode runs the autonomous planner/worker cycle against one
// target and prints the final report. Everything observable about the
// run - trace events, transcripts, state snapshots - is persisted under
// a shared run id.
func runBrainMode(ctx context.Context, env *runtimeEnv, target, goal string, iterations int, tracePath string) error {
	cfg := env.Config
	if iterations <= 0 {
		iterations = cfg.MaxIterations
	}
	runID := uuid.NewString()

	sink := buildSink(env, runID, tracePath)
	defer sink.Close()

	registry := prompts.DefaultRegistry()

	plannerCfg := cfg.EngineConfig()
	if cfg.PlannerModel != "" {
		plannerCfg.Model = cfg.PlannerModel
	}
	planner, err := session.NewPlanner(session.Deps{
		Config: plannerCfg,
		LLM:    trace.NewLLMProxy(env.LLM, runID, sink),
		Hooks:  loggerHooks(),
	})
	if err != nil {
		return fmt.Errorf("failed to create planner session: %w", err)
	}

	deps := env.workerDeps(registry.MustContent("operator-worker-persona"))
	deps.LLM = trace.NewLLMProxy(env.LLM, runID, sink)
	deps.Dispatcher = trace.NewToolProxy(env.Registry, runID, sink)
	deps.Schemas = env.Registry.Schemas()
	deps.Hooks = append(deps.Hooks, &trace.LoopHook{TraceID: runID, Sink: sink})
	worker, err := session.NewWorker(deps)
	if err != nil {
		return fmt.Errorf("failed to create worker session: %w", err)
	}

	orch, err := brain.New(brain.Config{
		Target:        target,
		Goal:          goal,
		MaxIterations: iterations,
	}, planner, worker, brain.WithEventSink(sink), brain.WithRunID(runID))
	if err != nil {
		return err
	}

	if env.Runs != nil {
		if err := env.Runs.CreateRun(ctx, runID, target, goal); err != nil {
			log.Printf("⚠️  Failed to register run: %v", err)
		}
	}

	report, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Text())
	persistRun(env, runID, target, report, orch.State(), planner, worker)
	return nil
}

// buildSink composes the trace sinks for one run: a JSONL file plus the
// run database when it is available. Sink failures reduce coverage, they
// never block the run.
func buildSink(env *runtimeEnv, runID, tracePath string) trace.EventSink {
	var sinks trace.MultiSink

	if tracePath == "" {
		tracePath = filepath.Join(env.Config.DataDir, "traces", runID+".jsonl")
	}
	fileSink, err := trace.NewFileEventSink(tracePath)
	if err != nil {
		log.Printf("⚠️  Trace file unavailable: %v", err)
	} else {
		log.Printf("Trace: %s", tracePath)
		sinks = append(sinks, fileSink)
	}

	if env.Runs != nil {
		sinks = append(sinks, store.NewEventSink(env.Runs))
	}

	if len(sinks) == 0 {
		return trace.NopSink{}
	}
	return sinks
}

// persistRun checkpoints everything the run produced. Each write failure
// is logged on its own; a half-persisted run is better than none.
func persistRun(env *runtimeEnv, runID, target string, report *brain.Report, state *brain.TargetState, planner, worker *session.Session) {
	for _, sess := range []*session.Session{planner, worker} {
		if err := env.Sessions.Save(target, sess.Record()); err != nil {
			log.Printf("⚠️  Failed to save %s transcript: %v", sess.Flavor(), err)
		}
	}

	if env.Runs == nil {
		return
	}
	ctx := context.Background()
	if err := env.Runs.FinishRun(ctx, runID, report); err != nil {
		log.Printf("⚠️  Failed to finish run record: %v", err)
	}
	if err := env.Runs.SaveSnapshot(ctx, runID, state); err != nil {
		log.Printf("⚠️  Failed to save state snapshot: %v", err)
	}
	for _, sess := range []*session.Session{planner, worker} {
		if err := env.Runs.SaveMessages(ctx, runID, sess.ID(), string(sess.Flavor()), sess.History()); err != nil {
			log.Printf("⚠️  Failed to save %s messages: %v", sess.Flavor(), err)
		}
	}
	log.Printf("Run %s persisted (%d iterations)", runID, report.Iterations)
}
