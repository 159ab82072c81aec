//go:build !windows
// +build !windows

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

const defaultCmdTimeout = 2 * time.Minute

// HostRunner runs command lines directly on the host without isolation.
// It should only be used when Docker is unavailable or explicitly requested;
// whatever the model asks for runs with the caller's privileges.
type HostRunner struct {
	config Config
}

// Run executes a shell line in the given work directory with a timeout.
func (r *HostRunner) Run(ctx context.Context, workDir, command string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		if r.config.CmdTimeout > 0 {
			timeout = r.config.CmdTimeout
		} else {
			timeout = defaultCmdTimeout
		}
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = workDir
	// New process group so the whole pipeline dies on cancel, not just sh.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Start()
	if err != nil {
		return Result{}, err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-cctx.Done():
			// Negative PID kills the entire process group.
			if cmd.Process != nil {
				syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	res := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
		Code:   0,
	}

	if waitErr != nil {
		res.Code = 1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Code = exitErr.ExitCode()
		}
		if errors.Is(cctx.Err(), context.DeadlineExceeded) || errors.Is(cctx.Err(), context.Canceled) {
			res.TimedOut = true
		}
		return res, waitErr
	}

	if errors.Is(cctx.Err(), context.DeadlineExceeded) || errors.Is(cctx.Err(), context.Canceled) {
		res.TimedOut = true
	}

	return res, nil
}
