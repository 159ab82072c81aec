package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/workspace"
)

const (
	defaultReadLines = 200
	maxReadLines     = 1000
)

// readFileImpl reads a line window from a file in the work directory.
// Scan logs and wordlists run long, so reads are windowed: callers page
// through with start_line rather than pulling whole files into context.
func readFileImpl(fileSys FileSystem, workDir, path string, startLine, maxLines int) (string, error) {
	filePath, err := workspace.Resolve(workDir, path)
	if err != nil {
		return "", err
	}

	contentBytes, err := fileSys.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	lines := strings.Split(string(contentBytes), "\n")
	// A trailing newline produces a phantom empty last element.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	totalLines := len(lines)

	if startLine < 1 {
		startLine = 1
	}
	if maxLines <= 0 {
		maxLines = defaultReadLines
	}
	if maxLines > maxReadLines {
		maxLines = maxReadLines
	}

	endLine := startLine + maxLines - 1
	if endLine > totalLines {
		endLine = totalLines
	}

	content := ""
	if startLine <= totalLines {
		content = strings.Join(lines[startLine-1:endLine], "\n")
	} else {
		endLine = totalLines
	}

	result := map[string]interface{}{
		"path":        path,
		"content":     content,
		"start_line":  startLine,
		"end_line":    endLine,
		"total_lines": totalLines,
		"truncated":   endLine < totalLines,
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	return string(resultJSON), nil
}

// NewReadFileTool creates an engine.Tool that wraps the read_file functionality.
func NewReadFileTool(workDir string) engine.Tool {
	fs := NewOSFileSystem()
	return engine.Tool{
		Name:        "read_file",
		Description: "Reads a window of lines from a file in the work directory. Large outputs (scan logs, wordlists) should be paged with start_line; the result reports total_lines so you know how much remains.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path to the file relative to the work directory"},"start_line":{"type":"integer","minimum":1,"description":"First line to read (default: 1)"},"max_lines":{"type":"integer","minimum":1,"maximum":1000,"description":"Maximum lines to return (default: 200)"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, ok := args["path"].(string)
			if !ok {
				return "", fmt.Errorf("path must be a string")
			}
			startLine := 1
			if s, ok := args["start_line"].(float64); ok {
				startLine = int(s)
			}
			maxLines := defaultReadLines
			if m, ok := args["max_lines"].(float64); ok {
				maxLines = int(m)
			}
			return readFileImpl(fs, workDir, path, startLine, maxLines)
		},
	}
}
