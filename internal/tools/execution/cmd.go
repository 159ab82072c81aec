package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/sandbox"
	"github.com/AiWaldoh/a-i-d-a/internal/workspace"
)

const (
	defaultRunCmdTimeout = 120 * time.Second
	maxRunCmdTimeout     = 10 * time.Minute
	minRunCmdTimeout     = 5 * time.Second
	defaultRunCmdLines   = 100
	minRunCmdLines       = 10
	maxRunCmdLines       = 400
	maxRunCmdChars       = 12000
)

// The allowlist is checked against the first command token only; a full
// shell line runs after that, so pipes and chains stay available. The
// sandbox is the real boundary, the allowlist just keeps the model on
// assessment tooling.
var runCmdAllowedCommands = []string{
	// Host discovery & port scanning
	"nmap", "masscan", "rustscan", "ping", "traceroute",
	"arp-scan", "netdiscover",

	// DNS & whois
	"dig", "host", "nslookup", "whois", "dnsrecon", "dnsenum",

	// Web enumeration
	"curl", "wget", "nikto", "whatweb", "gobuster", "dirb",
	"ffuf", "feroxbuster", "wfuzz", "wpscan", "sqlmap",

	// Service enumeration
	"smbclient", "smbmap", "enum4linux", "enum4linux-ng", "rpcclient",
	"snmpwalk", "onesixtyone", "ldapsearch", "showmount",
	"ftp", "telnet", "mysql", "psql", "redis-cli",

	// Credentials & exploitation support
	"hydra", "medusa", "john", "hashcat", "searchsploit",
	"crackmapexec", "netexec",

	// Remote access
	"ssh", "sshpass", "scp", "nc", "ncat", "socat", "openssl",

	// Scripting
	"python", "python3", "pip", "pip3", "perl", "ruby", "php",

	// File operations
	"mkdir", "touch", "rm", "cp", "mv",
	"cat", "head", "tail", "ls", "find", "tree", "file",
	"wc", "grep", "awk", "sed", "sort", "uniq", "cut", "tr",
	"diff", "strings", "base64", "xxd", "md5sum", "sha256sum",
	"tar", "zip", "unzip", "gzip", "gunzip",

	// Version control
	"git",

	// Shell
	"sh", "bash", "zsh",

	// Utilities
	"echo", "printf", "date", "which", "env", "id", "whoami",
	"hostname", "uname", "pwd", "tee", "timeout", "sleep", "seq",
	"xargs", "jq",
}

// ExecutionResult is the JSON shape handed back to the model.
type ExecutionResult struct {
	Command         string `json:"command"`
	ExitCode        int    `json:"exit_code"`
	Stdout          string `json:"stdout"`
	Stderr          string `json:"stderr"`
	StdoutTruncated bool   `json:"stdout_truncated,omitempty"`
	StderrTruncated bool   `json:"stderr_truncated,omitempty"`
	TimedOut        bool   `json:"timed_out,omitempty"`
	Status          string `json:"status"`
}

// runCmdImpl executes a shell command line through the sandbox runner.
func runCmdImpl(ctx context.Context, runner sandbox.Runner, workDir, command, subDir string, timeout time.Duration, maxLines int) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("command must not be empty")
	}

	name := commandName(command)
	isAllowed := false
	for _, allowed := range runCmdAllowedCommands {
		if name == allowed {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		execResult := ExecutionResult{
			Command:  command,
			ExitCode: 1,
			Stderr:   fmt.Sprintf("Command '%s' is not in allowlist. Allowed commands: %s", name, strings.Join(runCmdAllowedCommands, ", ")),
			Status:   "failed",
		}
		resultJSON, _ := json.Marshal(execResult)
		return string(resultJSON), nil
	}

	runDir := workDir
	if subDir != "" {
		resolved, err := workspace.Resolve(workDir, subDir)
		if err != nil {
			return "", err
		}
		runDir = resolved
	}

	if timeout <= 0 {
		timeout = defaultRunCmdTimeout
	}
	if timeout > maxRunCmdTimeout {
		timeout = maxRunCmdTimeout
	}

	result, err := runner.Run(ctx, runDir, command, timeout)

	timedOut := result.TimedOut || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !timedOut && result.Code == 0 && result.Stdout == "" && result.Stderr == "" {
		// Nothing ran: a sandbox failure, not a command failure.
		return "", fmt.Errorf("command execution failed: %w", err)
	}

	if maxLines <= 0 {
		maxLines = defaultRunCmdLines
	} else if maxLines > maxRunCmdLines {
		maxLines = maxRunCmdLines
	}

	stdout, stdoutTruncated := truncateOutput(result.Stdout, maxLines)
	stderr, stderrTruncated := truncateOutput(result.Stderr, maxLines)

	execResult := ExecutionResult{
		Command:         command,
		ExitCode:        result.Code,
		Stdout:          stdout,
		Stderr:          stderr,
		StdoutTruncated: stdoutTruncated,
		StderrTruncated: stderrTruncated,
		Status:          "ok",
	}
	if timedOut {
		execResult.TimedOut = true
		execResult.Status = "failed"
	}
	if result.Code != 0 {
		execResult.Status = "failed"
	}

	resultJSON, marshalErr := json.Marshal(execResult)
	if marshalErr != nil {
		return "", marshalErr
	}

	return string(resultJSON), nil
}

// commandName extracts the command being invoked from a shell line:
// leading VAR=value assignments are skipped and a path prefix is stripped,
// so "HOME=/tmp /usr/bin/nmap -sV host" checks as "nmap".
func commandName(command string) string {
	for _, tok := range strings.Fields(command) {
		if strings.Contains(tok, "=") && !strings.HasPrefix(tok, "=") {
			continue
		}
		return filepath.Base(tok)
	}
	return ""
}

func parseTimeoutArg(value any) time.Duration {
	if value == nil {
		return defaultRunCmdTimeout
	}
	var seconds float64
	switch v := value.(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	default:
		return defaultRunCmdTimeout
	}
	if seconds <= 0 {
		return defaultRunCmdTimeout
	}
	timeout := time.Duration(seconds) * time.Second
	if timeout < minRunCmdTimeout {
		timeout = minRunCmdTimeout
	}
	if timeout > maxRunCmdTimeout {
		timeout = maxRunCmdTimeout
	}
	return timeout
}

func parseMaxOutputLinesArg(value any) int {
	if value == nil {
		return defaultRunCmdLines
	}
	var lines int
	switch v := value.(type) {
	case float64:
		lines = int(v)
	case int:
		lines = v
	default:
		return defaultRunCmdLines
	}
	if lines < minRunCmdLines {
		lines = minRunCmdLines
	}
	if lines > maxRunCmdLines {
		lines = maxRunCmdLines
	}
	return lines
}

func truncateOutput(output string, maxLines int) (string, bool) {
	if output == "" {
		return "", false
	}
	truncated := false
	lines := strings.Split(output, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	joined := strings.Join(lines, "\n")
	if len(joined) > maxRunCmdChars {
		joined = joined[:maxRunCmdChars]
		truncated = true
	}
	return joined, truncated
}

// NewRunCmdTool creates an engine.Tool that wraps the run_cmd functionality.
func NewRunCmdTool(workDir string, runner sandbox.Runner) engine.Tool {
	return engine.Tool{
		Name:        "run_cmd",
		Description: "Runs a full shell command line in the sandbox with allowlist enforcement on the command name. Pipes, redirects and && chains are supported. Allowed: scanners (nmap, masscan), DNS tools (dig, whois), web tooling (curl, gobuster, ffuf, nikto, sqlmap, wpscan), service clients (smbclient, enum4linux, snmpwalk), credential tools (hydra, john, hashcat), remote access (ssh, nc), scripting (python3), and standard shell utilities. Long scans should raise timeout_seconds.",
		SchemaJSON: `{
			"type": "object",
			"properties": {
				"command": {"type":"string","description":"Full shell command line to execute"},
				"run_in_directory": {"type":"string","description":"Optional subdirectory of the work directory to run in"},
				"timeout_seconds": {"type":"integer","minimum":5,"maximum":600,"description":"Maximum seconds to allow the command to run (default: 120)"},
				"max_output_lines": {"type":"integer","minimum":10,"maximum":400,"description":"Maximum stdout/stderr lines to return (default: 100)"}
			},
			"required": ["command"]
		}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			command, ok := args["command"].(string)
			if !ok {
				return "", fmt.Errorf("command must be a string")
			}
			subDir := ""
			if d, ok := args["run_in_directory"].(string); ok {
				subDir = d
			}
			timeout := parseTimeoutArg(args["timeout_seconds"])
			maxLines := parseMaxOutputLinesArg(args["max_output_lines"])

			return runCmdImpl(ctx, runner, workDir, command, subDir, timeout, maxLines)
		},
	}
}
