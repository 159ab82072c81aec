package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one capability in the static registry. Registries are resolved
// at process start; there is no runtime discovery.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
}

// ValidateArgs validates the provided arguments against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return &ToolValidationError{
			ToolName: t.Name,
			Errors:   errorMsgs,
		}
	}

	return nil
}

type ToolRegistry map[string]Tool

// Schemas returns the tool schemas in stable name order, ready to hand to
// the reasoning client.
func (r ToolRegistry) Schemas() []ToolSchema {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	s := make([]ToolSchema, 0, len(r))
	for _, name := range names {
		t := r[name]
		s = append(s, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
		})
	}
	return s
}

// Dispatch implements Dispatcher. It validates arguments, executes the
// tool, and encodes every failure as result text: an unknown tool or
// schema-invalid arguments produce a synthetic failure result instead of
// breaking the loop, and execution errors are surfaced to the next
// reasoning step rather than treated as infrastructure faults.
func (r ToolRegistry) Dispatch(ctx context.Context, name string, args map[string]any) string {
	t, ok := r[name]
	if !ok {
		return fmt.Sprintf("ERROR: tool not found: %s (available tools: %v)", name, r.names())
	}

	if err := t.ValidateArgs(args); err != nil {
		return "ERROR: " + err.Error()
	}

	result, err := t.Fn(ctx, args)
	if err != nil {
		return fmt.Sprintf("ERROR: execution failed for tool %s: %v", name, err)
	}

	return result
}

func (r ToolRegistry) names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
