// Package runner executes commands on fleet nodes through a cluster client.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	// Maximum output size to prevent memory exhaustion.
	maxOutputSize = 10 * 1024 // 10KB limit
	// Maximum log output length for readability.
	maxLogLength = 200
	// Retry configuration for read-only verification probes.
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Result holds the captured output of a completed command.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs a shell command in the context of a fleet node. A returned
// error means the transport itself failed (client missing, node debug pod
// could not start, timeout); a command's own non-zero exit is reported
// through Result.ExitCode instead.
type Runner interface {
	Run(ctx context.Context, node, command string) (Result, error)
}

// OCRunner runs commands on nodes via `oc debug node/<name>` with a chroot
// into the host filesystem.
type OCRunner struct {
	Binary  string        // cluster client binary, e.g. "oc"
	Timeout time.Duration // per-command timeout
	Debug   bool
}

// debugArgs builds the client argument list that runs command on node.
func debugArgs(node, command string) []string {
	return []string{"debug", "node/" + node, "--quiet", "--", "chroot", "/host", "bash", "-c", command}
}

// Run executes command on the named node's host.
func (r *OCRunner) Run(ctx context.Context, node, command string) (Result, error) {
	return r.execute(ctx, command, debugArgs(node, command))
}

// Local executes a client subcommand against the cluster itself (not a node).
// Result.Command records the command handed to the transport, matching Run,
// which records the remote shell command rather than the full client line.
func (r *OCRunner) Local(ctx context.Context, args ...string) (Result, error) {
	return r.execute(ctx, strings.Join(args, " "), args)
}

func (r *OCRunner) execute(ctx context.Context, command string, args []string) (Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if r.Debug {
		log.Printf("[DEBUG] Executing: %s %s", r.Binary, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)

	var stdoutBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	duration := time.Since(start)

	result := Result{
		Command: command,
		Stdout:  limitOutput(stdoutBuf.Bytes(), maxOutputSize),
		Stderr:  limitOutput(stderrBuf.Bytes(), maxOutputSize),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("[WARN] Command timed out after %v: %s", duration, command)
			return result, fmt.Errorf("command timed out after %v", duration)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The client never started: transport failure, not a command exit.
			return result, fmt.Errorf("failed to run %s: %w", r.Binary, err)
		}
	}

	if r.Debug {
		trimmed := strings.TrimSpace(result.Stdout)
		if len(trimmed) > maxLogLength {
			trimmed = trimmed[:maxLogLength] + "..."
		}
		log.Printf("[DEBUG] Command completed in %v (exit: %d, stdout: %d bytes): %s",
			duration, result.ExitCode, len(result.Stdout), trimmed)
	}

	return result, nil
}

// Verify checks the prerequisites for a run: client binary present, cluster
// reachable, and admin privilege held. Any failure here is fatal to the run.
// The probes are read-only, so transient failures are retried.
func (r *OCRunner) Verify(ctx context.Context) error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("cluster client %q not found in PATH: %w", r.Binary, err)
	}

	err := retry.Do(func() error {
		res, err := r.Local(ctx, "whoami")
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("cluster unreachable: %s", strings.TrimSpace(res.Stderr))
		}
		log.Printf("[INFO] Authenticated to cluster as %s", strings.TrimSpace(res.Stdout))
		return nil
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		return fmt.Errorf("cluster verification failed: %w", err)
	}

	err = retry.Do(func() error {
		res, err := r.Local(ctx, "auth", "can-i", "*", "*", "--quiet")
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("current user lacks cluster-admin privilege")
		}
		return nil
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		return fmt.Errorf("privilege verification failed: %w", err)
	}

	return nil
}

// limitOutput truncates output if it exceeds maxSize.
func limitOutput(data []byte, maxSize int) string {
	if len(data) > maxSize {
		truncated := data[:maxSize]
		return string(truncated) + "\n[Output truncated to 10KB]..."
	}
	return string(data)
}
