package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sqve/spaces/internal/fs"
)

// TempDir returns a temp directory with symlinks resolved.
// On macOS, /var symlinks to /private/var which causes path mismatches
// when comparing with git output.
//
// Use this instead of t.TempDir() when tests compare filesystem paths with
// git command output (e.g. git rev-parse). For tests that don't involve git
// path comparisons, t.TempDir() is sufficient.
func TempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("failed to resolve symlinks: %v", err)
	}
	return resolved
}

// IsolateGit points HOME at a fresh directory with a minimal .gitconfig and
// disables the system config, so tests never see the developer's settings.
// Returns the new home directory.
func IsolateGit(t *testing.T) string {
	t.Helper()
	home := TempDir(t)
	WriteFile(t, filepath.Join(home, ".gitconfig"),
		"[user]\n\temail = test@example.com\n\tname = Test User\n[commit]\n\tgpgsign = false\n[init]\n\tdefaultBranch = main\n")

	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(home, ".gitconfig"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	return home
}

// WriteFile writes content to path, creating parent dirs. Fails test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	WriteFileMode(t, path, content, fs.FileGit)
}

// WriteFileMode writes content with specific permissions.
func WriteFileMode(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, fs.DirGit); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	// WriteFile leaves the mode of an existing file untouched
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("failed to chmod file %s: %v", path, err)
	}
}

// MustExec runs a command in dir, fails on error, returns stdout.
func MustExec(t *testing.T, dir, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...) // nolint:gosec
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, stderr)
	}
	return string(out)
}

// Chdir changes the working directory for the rest of the test.
// WARNING: Not safe for use with t.Parallel() as it changes process cwd.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change to %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Logf("warning: failed to restore cwd: %v", err)
		}
	})
}
