package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/workspace"
)

// writeFileImpl writes content to a file in the work directory, creating
// parent directories as needed.
func writeFileImpl(fileSys FileSystem, workDir, path, content string) (string, error) {
	filePath, err := workspace.Resolve(workDir, path)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(filePath)
	if err := fileSys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := fileSys.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	result := map[string]interface{}{
		"path":          path,
		"bytes_written": len(content),
		"success":       true,
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	return string(resultJSON), nil
}

// NewWriteFileTool creates an engine.Tool that wraps the write_file functionality.
func NewWriteFileTool(workDir string) engine.Tool {
	fs := NewOSFileSystem()
	return engine.Tool{
		Name:        "write_file",
		Description: "Writes content to a file in the work directory. Creates the file and any missing parent directories; overwrites if it exists. Use this to save findings, notes, and generated payloads.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path to the file relative to the work directory"},"content":{"type":"string","description":"Content to write to the file"}},"required":["path","content"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, ok := args["path"].(string)
			if !ok {
				return "", fmt.Errorf("path must be a string")
			}
			content, ok := args["content"].(string)
			if !ok {
				return "", fmt.Errorf("content must be a string")
			}
			return writeFileImpl(fs, workDir, path, content)
		},
	}
}
