package prompts

import (
	"fmt"
	"strings"
)

// PromptBuilder helps compose prompts from fragments and variables.
type PromptBuilder struct {
	fragments []string
	variables map[string]string
}

// NewPromptBuilder creates a builder seeded with a registered prompt.
func NewPromptBuilder(registry *PromptRegistry, id string, version PromptVersion) (*PromptBuilder, error) {
	basePrompt, err := registry.Get(id, version)
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}

	return &PromptBuilder{
		fragments: []string{basePrompt.Content},
		variables: make(map[string]string),
	}, nil
}

// AddFragment appends a fragment to the prompt.
func (b *PromptBuilder) AddFragment(text string) *PromptBuilder {
	b.fragments = append(b.fragments, text)
	return b
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build constructs the final prompt string.
func (b *PromptBuilder) Build() string {
	result := strings.Join(b.fragments, "\n\n")
	return substitute(result, b.variables)
}

// Render performs one-shot {{key}} substitution on a template.
func Render(template string, vars map[string]string) string {
	return substitute(template, vars)
}

func substitute(text string, vars map[string]string) string {
	for key, value := range vars {
		placeholder := fmt.Sprintf("{{%s}}", key)
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text
}
