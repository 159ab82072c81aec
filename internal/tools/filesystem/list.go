package filesystem

import (
	"context"
	"encoding/json"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/workspace"
)

// listFilesImpl lists files under a subdirectory of the work directory,
// honoring .gitignore plus any extra patterns the caller supplies.
func listFilesImpl(workDir, path string, recursive bool, maxDepth, limit int, ignorePatterns []string) (string, error) {
	ig := workspace.NewIgnorer(workDir, ignorePatterns...)

	files, truncated, err := workspace.List(workDir, path, recursive, maxDepth, limit, ig)
	if err != nil {
		return "", err
	}

	result := map[string]interface{}{
		"path":      path,
		"files":     files,
		"recursive": recursive,
		"truncated": truncated,
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	return string(resultJSON), nil
}

// NewListFilesTool creates an engine.Tool that wraps the list_files functionality.
func NewListFilesTool(workDir string) engine.Tool {
	return engine.Tool{
		Name:        "list_files",
		Description: "Lists files in the work directory. Use this to discover scan output, loot, and notes before reading them. Supports recursive listing; .gitignore patterns are respected.",
		SchemaJSON: `{"type":"object","properties":{
			"path":{"type":"string","description":"Optional: subdirectory path relative to the work directory (empty string for root)"},
			"recursive":{"type":"boolean","description":"If true, list files recursively. Default: false"},
			"max_depth":{"type":"integer","description":"Maximum depth for recursive listing. Default: -1 (unlimited)"},
			"limit":{"type":"integer","description":"Maximum number of entries to return. Default: 1000"},
			"ignore_patterns":{"type":"array","items":{"type":"string"},"description":"Extra gitignore-style patterns to exclude"}
		},"required":[]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path := ""
			if p, ok := args["path"].(string); ok {
				path = p
			}
			recursive := false
			if r, ok := args["recursive"].(bool); ok {
				recursive = r
			}
			maxDepth := -1
			if d, ok := args["max_depth"].(float64); ok {
				maxDepth = int(d)
			}
			limit := 1000
			if l, ok := args["limit"].(float64); ok {
				limit = int(l)
			}
			var ignorePatterns []string
			if patterns, ok := args["ignore_patterns"].([]interface{}); ok {
				for _, p := range patterns {
					if s, ok := p.(string); ok {
						ignorePatterns = append(ignorePatterns, s)
					}
				}
			}

			return listFilesImpl(workDir, path, recursive, maxDepth, limit, ignorePatterns)
		},
	}
}
