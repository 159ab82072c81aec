package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/AiWaldoh/a-i-d-a/internal/config"
	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/prompts"
	"github.com/AiWaldoh/a-i-d-a/internal/providers"
	"github.com/AiWaldoh/a-i-d-a/internal/recall"
	"github.com/AiWaldoh/a-i-d-a/internal/session"
	"github.com/AiWaldoh/a-i-d-a/internal/store"
	"github.com/AiWaldoh/a-i-d-a/internal/tools"
	"github.com/AiWaldoh/a-i-d-a/internal/tools/search"
)

// runtimeEnv holds everything a mode needs: resolved configuration, the
// reasoning client, the tool registry, notes recall, and the stores.
// Recall and the run store degrade to nil with a warning; the reasoning
// client and registry are mandatory.
type runtimeEnv struct {
	Config   *config.Config
	LLM      engine.LLMClient
	Registry engine.ToolRegistry
	Recall   *recall.Builder // nil when the notes index is unavailable
	Runs     *store.RunStore // nil when the run database could not open
	Sessions *session.Store

	index   *recall.Index
	watcher *recall.Watcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			log.Printf("⚠️  Failed to stop notes watcher: %v", err)
		}
	}
	if r.index != nil {
		r.index.Close()
	}
	if r.Runs != nil {
		r.Runs.Close()
	}
}

func prepareRuntimeEnv(ctx context.Context) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.WorkDir, cfg.NotesDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	log.Printf("Workspace root: %s", cfg.WorkDir)

	client, model, err := providers.NewClient(cfg.Provider, resolveAPIKey(cfg), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	// Keep the resolved model so every engine config carries a concrete name.
	cfg.Model = model

	env := &runtimeEnv{
		Config:   cfg,
		LLM:      client,
		Sessions: session.NewStore(cfg.DataDir),
	}

	env.setupRecall()

	registry, err := tools.NewToolRegistry(cfg.WorkDir, env.searcher(), nil)
	if err != nil {
		return nil, err
	}
	env.Registry = registry

	runs, err := store.NewRunStore(ctx, filepath.Join(cfg.DataDir, "runs.db"))
	if err != nil {
		log.Printf("⚠️  Run store unavailable: %v (runs will not be persisted)", err)
	} else {
		env.Runs = runs
	}

	return env, nil
}

// setupRecall opens the notes index, reindexes it, and starts the
// watcher. Any failure degrades to running without recall.
func (r *runtimeEnv) setupRecall() {
	index, err := recall.Open(r.Config.NotesDir, r.Config.DataDir)
	if err != nil {
		log.Printf("⚠️  Notes index unavailable: %v (search_notes disabled)", err)
		return
	}
	r.index = index

	count, err := index.Reindex()
	if err != nil {
		log.Printf("⚠️  Notes reindex failed: %v (continuing with stale index)", err)
	} else {
		log.Printf("📝 Notes index ready (%d notes)", count)
	}

	watcher, err := recall.NewWatcher(index)
	if err != nil {
		log.Printf("⚠️  Notes watcher unavailable: %v (index updates on restart only)", err)
	} else if err := watcher.Start(); err != nil {
		log.Printf("⚠️  Notes watcher failed to start: %v (index updates on restart only)", err)
	} else {
		r.watcher = watcher
	}

	r.Recall = recall.NewBuilder(index)
}

// searcher returns the notes searcher for the tool registry. Must return
// an untyped nil when recall is disabled or the registry would register a
// search_notes tool over a nil index.
func (r *runtimeEnv) searcher() search.NotesSearcher {
	if r.index == nil {
		return nil
	}
	return r.index
}

// workerDeps assembles the baseline session dependencies for a
// tool-carrying agent. Callers layer tracing or personality on top.
func (r *runtimeEnv) workerDeps(systemPrompt string) session.Deps {
	deps := session.Deps{
		Config:       r.Config.EngineConfig(),
		LLM:          r.LLM,
		Registry:     r.Registry,
		SystemPrompt: systemPrompt,
		Hooks:        loggerHooks(),
	}
	if r.Recall != nil {
		deps.ContextBuilder = r.Recall
	}
	return deps
}

// applyPersonality attaches the final-answer rewrite pass when a
// personality model is configured.
func (r *runtimeEnv) applyPersonality(deps *session.Deps) {
	if r.Config.PersonalityModel == "" {
		return
	}
	deps.Personality = r.LLM
	deps.PersonalityPrompt = prompts.DefaultRegistry().MustContent("personality")
}

// resolveAPIKey prefers the provider's own environment variable and falls
// back to the key stored in the config file.
func resolveAPIKey(cfg *config.Config) string {
	var envKey string
	switch cfg.Provider {
	case "openai":
		envKey = os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		envKey = os.Getenv("OPENROUTER_API_KEY")
	case "anthropic":
		envKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if envKey != "" {
		return envKey
	}
	return cfg.APIKey
}
