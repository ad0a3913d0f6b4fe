package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sqve/spaces/internal/logger"
)

// GitError represents an error from a git command execution.
type GitError struct {
	Command  string
	Args     []string
	Dir      string
	Stderr   string
	ExitCode int
}

func (e *GitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no error output"
	}
	return fmt.Sprintf("git %s failed (exit %d): %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

// ExitCode returns the exit code of a failed git command, or -1 when err is
// not a GitError.
func ExitCode(err error) int {
	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return gitErr.ExitCode
	}
	return -1
}

// Commander abstracts git command execution so callers can be tested with
// fakes and so every invocation shares logging and error capture.
type Commander interface {
	// Run executes git with args in workDir and returns trimmed stdout.
	// Failures return a *GitError carrying stderr and the exit code.
	Run(ctx context.Context, workDir string, args ...string) (string, error)
}

// LiveCommander shells out to the git binary.
type LiveCommander struct{}

func NewLiveCommander() *LiveCommander {
	return &LiveCommander{}
}

func (c *LiveCommander) Run(ctx context.Context, workDir string, args ...string) (string, error) {
	start := time.Now()
	logger.Debug("Executing: git %s (in %s)", strings.Join(args, " "), displayDir(workDir))

	cmd := exec.CommandContext(ctx, "git", args...) // nolint:gosec // args are built by this package
	if workDir != "" {
		cmd.Dir = workDir
	}
	// Never block on credential prompts
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to run git: %w", err)
		}

		logger.Debug("git %s failed after %s (exit %d)", args[0], duration.Round(time.Millisecond), exitCode)
		return "", &GitError{
			Command:  "git",
			Args:     args,
			Dir:      workDir,
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: exitCode,
		}
	}

	logger.Debug("git %s succeeded in %s", args[0], duration.Round(time.Millisecond))
	return strings.TrimSpace(stdout.String()), nil
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// DefaultCommander is used by the package level helpers.
var DefaultCommander Commander = NewLiveCommander()

func run(ctx context.Context, dir string, args ...string) (string, error) {
	return DefaultCommander.Run(ctx, dir, args...)
}

// succeeds runs a check command and reports whether it exited 0. Errors that
// are not command failures are returned.
func succeeds(ctx context.Context, dir string, args ...string) (bool, error) {
	_, err := run(ctx, dir, args...)
	if err == nil {
		return true, nil
	}
	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return false, nil
	}
	return false, err
}
