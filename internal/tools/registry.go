// Package tools assembles the static tool registry handed to the agent
// loop. The set is fixed at process start: what the assessment needs is
// decided by configuration, not discovered at runtime.
package tools

import (
	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/sandbox"
	"github.com/AiWaldoh/a-i-d-a/internal/tools/execution"
	"github.com/AiWaldoh/a-i-d-a/internal/tools/filesystem"
	"github.com/AiWaldoh/a-i-d-a/internal/tools/search"
)

// NewToolRegistry creates the engine.ToolRegistry for an assessment session.
// A nil runner falls back to the default sandbox; a nil searcher omits the
// search_notes tool (the agent still works, it just cannot recall notes).
func NewToolRegistry(workDir string, searcher search.NotesSearcher, runner sandbox.Runner) (engine.ToolRegistry, error) {
	if runner == nil {
		runner = sandbox.NewDefaultRunner()
	}

	reg := make(engine.ToolRegistry)

	reg["run_cmd"] = execution.NewRunCmdTool(workDir, runner)
	reg["read_file"] = filesystem.NewReadFileTool(workDir)
	reg["write_file"] = filesystem.NewWriteFileTool(workDir)
	reg["list_files"] = filesystem.NewListFilesTool(workDir)

	if searcher != nil {
		reg["search_notes"] = search.NewSearchNotesTool(searcher)
	}

	return reg, nil
}
