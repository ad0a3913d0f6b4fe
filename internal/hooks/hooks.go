// Package hooks runs user-configured lifecycle commands around space
// creation and removal.
package hooks

import (
	"fmt"
	"os"

	"github.com/sqve/spaces/internal/errors"
)

type Phase string

const (
	PostCreate Phase = "postCreate"
	PreRemove  Phase = "preRemove"
	PostRemove Phase = "postRemove"
)

// Disposition is the outcome of a phase as a whole.
type Disposition int

const (
	// Success means every command exited zero.
	Success Disposition = iota
	// NonFatal means some commands failed but the operation continues.
	NonFatal
	// Abort means a command failed and the operation must stop.
	Abort
)

func (d Disposition) String() string {
	switch d {
	case Success:
		return "success"
	case NonFatal:
		return "non-fatal"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("Disposition(%d)", int(d))
}

// abortsOnFailure reports whether a failing command stops the phase.
func (p Phase) abortsOnFailure() bool {
	return p == PreRemove
}

// Env is exported to every hook command.
type Env struct {
	Space     string
	SpacePath string
	Branch    string
	BaseRef   string
	RepoRoot  string
}

func (e Env) environ(phase Phase) []string {
	return append(os.Environ(),
		"SPACE="+e.Space,
		"SPACE_PATH="+e.SpacePath,
		"CLONE_PATH="+e.SpacePath,
		"BRANCH="+e.Branch,
		"BASE_REF="+e.BaseRef,
		"REPO_ROOT="+e.RepoRoot,
		"SPACES_HOOK="+string(phase),
	)
}

type HookResult struct {
	Command  string
	ExitCode int
	Err      error
}

type Result struct {
	Phase       Phase
	Disposition Disposition
	Succeeded   []string
	Failed      []*HookResult
}

// Err converts a failed result into a HOOK_FAILED error. Non-fatal failures
// are recoverable: the operation completed.
func (r *Result) Err() error {
	if r == nil || r.Disposition == Success {
		return nil
	}

	err := errors.ErrHookFailed(string(r.Phase), len(r.Failed), r.Disposition == NonFatal)
	if len(r.Failed) > 0 {
		first := r.Failed[0]
		err.Cause = first.Err
		err.WithContext("command", first.Command).WithContext("exit_code", first.ExitCode)
	}
	return err
}
