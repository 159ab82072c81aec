package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-units"
)

// DockerRunner runs command lines in disposable Docker containers.
type DockerRunner struct {
	client *client.Client
	config Config
}

// NewDockerRunner creates a new Docker-based runner.
func NewDockerRunner(config Config) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("Docker daemon not accessible: %w", err)
	}

	return &DockerRunner{
		client: cli,
		config: config,
	}, nil
}

// Run executes a shell line in a fresh container. The work directory is
// bind-mounted at /workspace so scan output and loot written by the command
// survive the container.
func (r *DockerRunner) Run(ctx context.Context, workDir, command string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		if r.config.CmdTimeout > 0 {
			timeout = r.config.CmdTimeout
		} else {
			timeout = defaultCmdTimeout
		}
	}

	img := r.config.Image
	if img == "" {
		img = DefaultImage
	}

	if err := r.ensureImage(ctx, img); err != nil {
		return Result{}, fmt.Errorf("failed to ensure image %s: %w", img, err)
	}

	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	containerConfig := &container.Config{
		Image:           img,
		Cmd:             []string{"/bin/sh", "-c", command},
		WorkingDir:      "/workspace",
		NetworkDisabled: !r.config.Network,
	}

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: absWorkDir,
				Target: "/workspace",
			},
		},
		Resources: container.Resources{
			Memory:   parseMemory(r.config.Memory),
			NanoCPUs: parseCPU(r.config.CPU) * 1e9,
			Ulimits: []*units.Ulimit{
				{
					// Port scans hold many sockets open at once.
					Name: "nofile",
					Soft: 8192,
					Hard: 8192,
				},
			},
		},
		SecurityOpt: []string{"no-new-privileges"},
		// SYN scans and traceroute need raw sockets; everything else
		// stays dropped.
		CapDrop: []string{"ALL"},
		CapAdd:  []string{"NET_RAW", "NET_ADMIN"},
		Tmpfs: map[string]string{
			"/tmp": "rw,nosuid,size=200m",
		},
		AutoRemove: true,
	}

	createResp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create container: %w", err)
	}

	containerID := createResp.ID

	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{
			Force: true,
		})
	}()

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.client.ContainerStart(execCtx, containerID, container.StartOptions{}); err != nil {
		return Result{}, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := r.client.ContainerWait(execCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case <-execCtx.Done():
		killCtx, killCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer killCancel()
		_ = r.client.ContainerKill(killCtx, containerID, "SIGKILL")
		return Result{
			Code:     1,
			TimedOut: true,
			Stderr:   "Command execution timed out",
		}, execCtx.Err()
	case err := <-errCh:
		if err != nil {
			return Result{}, fmt.Errorf("container wait error: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := r.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "all",
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()

	// Docker multiplexes both streams over one connection; stdcopy
	// demultiplexes them back.
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, logs); err != nil && err != io.EOF {
		return Result{}, fmt.Errorf("failed to demux container logs: %w", err)
	}

	return Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Code:     int(exitCode),
		TimedOut: execCtx.Err() == context.DeadlineExceeded,
	}, nil
}

// ensureImage checks if the image exists locally, and pulls it if not.
func (r *DockerRunner) ensureImage(ctx context.Context, imageName string) error {
	_, _, err := r.client.ImageInspectWithRaw(ctx, imageName)
	if err == nil {
		return nil
	}

	reader, err := r.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// Drain the pull output, required for the pull to complete.
	_, _ = io.Copy(io.Discard, reader)

	return nil
}

// parseMemory parses a memory string (e.g. "1g", "512m") to bytes.
func parseMemory(memStr string) int64 {
	memStr = strings.TrimSpace(memStr)
	if memStr == "" {
		return 2 * units.GiB
	}
	bytes, err := units.RAMInBytes(memStr)
	if err != nil || bytes <= 0 {
		return 2 * units.GiB
	}
	return bytes
}

// parseCPU parses a CPU count string (e.g. "2", "1.5") to whole CPUs.
func parseCPU(cpuStr string) int64 {
	cpuStr = strings.TrimSpace(cpuStr)
	if cpuStr == "" {
		return 2
	}
	value, err := strconv.ParseFloat(cpuStr, 64)
	if err != nil || value <= 0 {
		return 2
	}
	return int64(value)
}
