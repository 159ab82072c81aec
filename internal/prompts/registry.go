package prompts

import (
	"fmt"
	"sync"
)

// PromptRegistry manages versioned prompts.
type PromptRegistry struct {
	mu      sync.RWMutex
	prompts map[string]map[PromptVersion]*Prompt // ID -> Version -> Prompt
}

var defaultRegistry *PromptRegistry
var defaultRegistryOnce sync.Once

// DefaultRegistry returns the default global prompt registry.
func DefaultRegistry() *PromptRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewPromptRegistry()
	})
	return defaultRegistry
}

// NewPromptRegistry creates a new prompt registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{
		prompts: make(map[string]map[PromptVersion]*Prompt),
	}
}

// Register registers a prompt in the registry.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// Get retrieves a specific version of a prompt.
func (r *PromptRegistry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	prompt, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}

	return prompt, nil
}

// GetLatest retrieves the latest non-deprecated version of a prompt,
// falling back to the most recent deprecated one if nothing else exists.
func (r *PromptRegistry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest *Prompt
	var latestVersion PromptVersion
	for version, prompt := range versions {
		if prompt.Deprecated {
			continue
		}
		if latest == nil || version > latestVersion {
			latest = prompt
			latestVersion = version
		}
	}
	if latest == nil {
		for version, prompt := range versions {
			if latest == nil || version > latestVersion {
				latest = prompt
				latestVersion = version
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no versions found for prompt: %s", id)
	}
	return latest, nil
}

// MustContent returns the latest content for id, or panics. Reserved for
// prompts registered by this package's own init functions, where absence
// is a programming error.
func (r *PromptRegistry) MustContent(id string) string {
	p, err := r.GetLatest(id)
	if err != nil {
		panic(err)
	}
	return p.Content
}

// List returns all prompt IDs in the registry.
func (r *PromptRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	return ids
}
