package sandbox

import (
	"context"
	"time"
)

// Result captures the output of one executed command line.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner executes a full shell command line in an isolated environment.
// Assessment commands routinely use pipes and redirects, so the line is
// handed to a shell rather than split into argv.
type Runner interface {
	// Run executes command via `sh -c` with workDir mounted as the
	// working directory. A timeout <= 0 uses the runner default.
	Run(ctx context.Context, workDir, command string, timeout time.Duration) (Result, error)
}

// Run is a convenience wrapper around the default runner. It favors Docker
// when available and falls back to host execution.
func Run(ctx context.Context, workDir, command string, timeout time.Duration) (Result, error) {
	runner := NewDefaultRunner()
	return runner.Run(ctx, workDir, command, timeout)
}
