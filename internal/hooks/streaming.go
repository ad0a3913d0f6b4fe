package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/styles"
)

// PrefixWriter writes complete lines to target, each prefixed. Writers
// sharing mu never interleave within a line.
type PrefixWriter struct {
	prefix string
	target io.Writer
	mu     *sync.Mutex
	buf    bytes.Buffer
}

func NewPrefixWriter(prefix string, target io.Writer, mu *sync.Mutex) *PrefixWriter {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &PrefixWriter{prefix: prefix, target: target, mu: mu}
}

func (w *PrefixWriter) Write(p []byte) (n int, err error) {
	n, err = w.buf.Write(p)
	if err != nil {
		return n, err
	}

	for {
		line, readErr := w.buf.ReadString('\n')
		if readErr != nil {
			if line != "" {
				w.buf.WriteString(line)
			}
			break
		}

		if writeErr := w.emit(line); writeErr != nil {
			return n, writeErr
		}
	}

	return n, nil
}

// Flush writes any trailing partial line.
func (w *PrefixWriter) Flush() error {
	remaining := w.buf.String()
	if remaining == "" {
		return nil
	}
	w.buf.Reset()
	return w.emit(remaining + "\n")
}

func (w *PrefixWriter) emit(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.target, "%s %s", w.prefix, line)
	return err
}

// Runner executes hook commands with `sh -c`, streaming their output.
type Runner struct {
	Output io.Writer
}

func NewRunner(output io.Writer) *Runner {
	if output == nil {
		output = os.Stderr
	}
	return &Runner{Output: output}
}

// Run executes commands in order. Commands run in the space directory, or in
// the repository root once the space is gone. PreRemove stops at the first
// failure; other phases run every command.
func (r *Runner) Run(ctx context.Context, phase Phase, commands []string, env Env) *Result {
	result := &Result{Phase: phase, Disposition: Success}
	if len(commands) == 0 {
		return result
	}

	workDir := env.SpacePath
	if !fs.DirectoryExists(workDir) {
		workDir = env.RepoRoot
	}
	logger.Debug("Running %d %s hooks in %s", len(commands), phase, workDir)

	for _, command := range commands {
		if err := r.runOne(ctx, phase, command, workDir, env); err != nil {
			result.Failed = append(result.Failed, err)
			if phase.abortsOnFailure() {
				result.Disposition = Abort
				return result
			}
			result.Disposition = NonFatal
			continue
		}
		result.Succeeded = append(result.Succeeded, command)
	}
	return result
}

func (r *Runner) runOne(ctx context.Context, phase Phase, command, workDir string, env Env) *HookResult {
	logger.Debug("Executing hook: %s", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec // user-configured hooks are intentionally executed
	cmd.Dir = workDir
	cmd.Env = env.environ(phase)

	var mu sync.Mutex
	prefix := styles.Render(&styles.Dimmed, fmt.Sprintf("  [%s]", command))
	stdout := NewPrefixWriter(prefix, r.Output, &mu)
	stderr := NewPrefixWriter(prefix, r.Output, &mu)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	_ = stdout.Flush()
	_ = stderr.Flush()

	if err == nil {
		logger.Debug("Hook succeeded: %s", command)
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	logger.Debug("Hook failed with exit code %d: %s", exitCode, command)
	return &HookResult{Command: command, ExitCode: exitCode, Err: fmt.Errorf("hook %q failed: %w", command, err)}
}
