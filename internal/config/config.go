// Package config loads the persistent application configuration: a JSON
// file under the user config dir, overridden by AIDA_* environment
// variables. Validation is fail-fast; a bad configuration surfaces as a
// ConfigError before any session starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/workspace"
)

// Config holds the user's persistent configuration preferences.
// Zero values mean "use the default"; Normalize fills them in.
type Config struct {
	Provider         string `json:"provider,omitempty"`          // openai, openrouter, anthropic, ollama, lmstudio
	APIKey           string `json:"api_key,omitempty"`           // fallback when the provider env key is unset
	Model            string `json:"model,omitempty"`             // worker model ("" = provider default)
	BaseURL          string `json:"base_url,omitempty"`          // optional API base URL override
	PlannerModel     string `json:"planner_model,omitempty"`     // planner model ("" = Model)
	PersonalityModel string `json:"personality_model,omitempty"` // final-answer rewrite model ("" = disabled)

	MaxSteps           int `json:"max_steps,omitempty"`             // worker loop budget per directive
	MaxIterations      int `json:"max_iterations,omitempty"`        // orchestrator plan/act cycles
	WindowSize         int `json:"window_size,omitempty"`           // recency window in messages
	MaxToolResultChars int `json:"max_tool_result_chars,omitempty"` // tool output trim bound
	RetryMaxAttempts   int `json:"retry_max_attempts,omitempty"`    // reasoning-call retry budget

	WorkDir  string `json:"work_dir,omitempty"`  // engagement working directory
	NotesDir string `json:"notes_dir,omitempty"` // notes indexed for recall ("" = WorkDir/notes)
	DataDir  string `json:"data_dir,omitempty"`  // session records, run store, notes index ("" = ~/.aida)
}

// ApplyEnv overlays AIDA_* environment variables onto the config.
// A malformed numeric variable is a fatal configuration error, not a
// silent fallback.
func (c *Config) ApplyEnv() error {
	applyString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	applyInt := func(dst *int, key string) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &engine.ConfigError{Field: key, Reason: fmt.Sprintf("invalid integer %q", v)}
		}
		*dst = n
		return nil
	}

	applyString(&c.Provider, "AIDA_PROVIDER")
	applyString(&c.APIKey, "AIDA_API_KEY")
	applyString(&c.Model, "AIDA_MODEL")
	applyString(&c.BaseURL, "AIDA_BASE_URL")
	applyString(&c.PlannerModel, "AIDA_PLANNER_MODEL")
	applyString(&c.PersonalityModel, "AIDA_PERSONALITY_MODEL")
	applyString(&c.WorkDir, "AIDA_WORKDIR")
	applyString(&c.NotesDir, "AIDA_NOTES_DIR")
	applyString(&c.DataDir, "AIDA_DATA_DIR")

	for _, bind := range []struct {
		dst *int
		key string
	}{
		{&c.MaxSteps, "AIDA_MAX_STEPS"},
		{&c.MaxIterations, "AIDA_MAX_ITERATIONS"},
		{&c.WindowSize, "AIDA_WINDOW_SIZE"},
		{&c.MaxToolResultChars, "AIDA_MAX_TOOL_RESULT_CHARS"},
		{&c.RetryMaxAttempts, "AIDA_RETRY_MAX_ATTEMPTS"},
	} {
		if err := applyInt(bind.dst, bind.key); err != nil {
			return err
		}
	}

	return nil
}

// Normalize fills defaults for unset fields.
func (c *Config) Normalize() {
	if c.Provider == "" {
		c.Provider = "openrouter"
	}

	def := engine.DefaultConfig()
	if c.MaxSteps == 0 {
		c.MaxSteps = def.MaxSteps
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 50
	}
	if c.WindowSize == 0 {
		c.WindowSize = def.WindowSize
	}
	if c.MaxToolResultChars == 0 {
		c.MaxToolResultChars = def.MaxToolResultChars
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = def.Retry.MaxAttempts
	}

	if c.WorkDir == "" {
		c.WorkDir = workspace.DefaultRoot()
	}
	if c.NotesDir == "" {
		c.NotesDir = filepath.Join(c.WorkDir, "notes")
	}
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".aida")
		} else {
			c.DataDir = ".aida"
		}
	}
}

// Validate reports the first configuration problem. Call after Normalize.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "openrouter", "anthropic", "ollama", "lmstudio":
	default:
		return &engine.ConfigError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", c.Provider)}
	}
	if c.MaxSteps < 1 {
		return &engine.ConfigError{Field: "max_steps", Reason: "must be at least 1"}
	}
	if c.MaxIterations < 1 {
		return &engine.ConfigError{Field: "max_iterations", Reason: "must be at least 1"}
	}
	if c.WindowSize < 1 {
		return &engine.ConfigError{Field: "window_size", Reason: "must be at least 1"}
	}
	if c.RetryMaxAttempts < 1 {
		return &engine.ConfigError{Field: "retry_max_attempts", Reason: "must be at least 1"}
	}
	if c.WorkDir == "" {
		return &engine.ConfigError{Field: "work_dir", Reason: "must not be empty"}
	}
	return nil
}

// EngineConfig maps the application configuration onto the loop engine's.
func (c *Config) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if c.Model != "" {
		cfg.Model = c.Model
	}
	cfg.PersonalityModel = c.PersonalityModel
	cfg.MaxSteps = c.MaxSteps
	cfg.WindowSize = c.WindowSize
	cfg.MaxToolResultChars = c.MaxToolResultChars
	cfg.Retry.MaxAttempts = c.RetryMaxAttempts
	return cfg
}

// Load is the standard startup path: read the config file if present,
// overlay the environment, fill defaults, and validate.
func Load() (*Config, error) {
	mgr, err := NewManager()
	if err != nil {
		return nil, err
	}

	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
