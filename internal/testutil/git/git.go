package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/testutil"
)

// TestRepo provides a test git repository with proper configuration
type TestRepo struct {
	t    *testing.T
	Dir  string
	Path string
}

// NewTestRepo creates a new test repository with an initial commit, inside a
// git environment isolated from the developer's configuration.
// Pass an optional branch name (default "main").
func NewTestRepo(t *testing.T, branchName ...string) *TestRepo {
	t.Helper()

	testutil.IsolateGit(t)

	dir := testutil.TempDir(t)
	repoPath := filepath.Join(dir, "repo")

	if err := os.MkdirAll(repoPath, fs.DirGit); err != nil {
		t.Fatalf("Failed to create repo dir: %v", err)
	}

	branch := "main"
	if len(branchName) > 0 && branchName[0] != "" {
		branch = branchName[0]
	}

	repo := &TestRepo{t: t, Dir: dir, Path: repoPath}
	repo.Run("init", "-b", branch)
	repo.Run("config", "commit.gpgsign", "false")
	repo.WriteFile("README.md", "test\n")
	repo.Run("add", ".")
	repo.Run("commit", "-m", "initial")

	return repo
}

// NewTestRepoWithOrigin creates a test repository whose origin is a bare
// repository next to it, with the initial branch pushed.
func NewTestRepoWithOrigin(t *testing.T) (*TestRepo, string) {
	t.Helper()

	repo := NewTestRepo(t)
	origin := filepath.Join(repo.Dir, "origin.git")
	testutil.MustExec(t, repo.Dir, "git", "init", "--bare", "-b", "main", origin)

	repo.Run("remote", "add", "origin", origin)
	repo.Run("push", "--quiet", "-u", "origin", "main")
	repo.Run("remote", "set-head", "origin", "main")
	return repo, origin
}

// Run runs git in the repository and fails the test on error.
func (r *TestRepo) Run(args ...string) {
	r.t.Helper()
	cmd := exec.Command("git", args...) // nolint:gosec // Test helper with controlled input
	cmd.Dir = r.Path
	if out, err := cmd.CombinedOutput(); err != nil {
		r.t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
}

// RunOutput runs git in the repository and returns trimmed stdout.
func (r *TestRepo) RunOutput(args ...string) string {
	r.t.Helper()
	return strings.TrimSpace(testutil.MustExec(r.t, r.Path, "git", args...))
}

// CreateBranch creates a new branch at the current HEAD
func (r *TestRepo) CreateBranch(name string) {
	r.t.Helper()
	r.Run("branch", name)
}

// Checkout switches to a branch
func (r *TestRepo) Checkout(name string) {
	r.t.Helper()
	r.Run("checkout", "--quiet", name)
}

// WriteFile writes content to a file in the repository
func (r *TestRepo) WriteFile(name, content string) {
	r.t.Helper()
	testutil.WriteFile(r.t, filepath.Join(r.Path, filepath.FromSlash(name)), content)
}

// Commit stages everything and creates a commit with the given message
func (r *TestRepo) Commit(message string) {
	r.t.Helper()
	r.Run("add", "-A")
	r.Run("commit", "--quiet", "-m", message)
}
