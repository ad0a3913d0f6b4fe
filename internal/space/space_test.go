package space

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/copyrules"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/filelock"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/hooks"
	"github.com/sqve/spaces/internal/testutil"
	testgit "github.com/sqve/spaces/internal/testutil/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo   *testgit.TestRepo
	origin string
	cfg    *config.Effective
	m      *Manager
}

func newFixture(t *testing.T, tweak ...func(*config.Effective)) *fixture {
	t.Helper()
	repo, origin := testgit.NewTestRepoWithOrigin(t)
	root := testutil.TempDir(t)

	cfg := &config.Effective{
		RepoRoot:      repo.Path,
		RepoName:      "repo",
		Origin:        origin,
		ClonesDir:     filepath.Join(root, "repo-clones"),
		MirrorsRoot:   filepath.Join(root, "mirrors"),
		MirrorPath:    filepath.Join(root, "mirrors", "repo-test"),
		LockTimeout:   10 * time.Second,
		DefaultBranch: "main",
	}
	for _, fn := range tweak {
		fn(cfg)
	}
	return &fixture{repo: repo, origin: origin, cfg: cfg, m: NewManager(cfg, hooks.NewRunner(io.Discard))}
}

func currentBranch(t *testing.T, dir string) string {
	t.Helper()
	branch, err := git.CurrentBranch(context.Background(), dir)
	require.NoError(t, err)
	return branch
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"feat/login":   "feat-login",
		`a\b:c*d?e`:    "a-b-c-d-e",
		`"x" <y> | #z`: "x---y-----z",
		"  trimmed  ":  "trimmed",
		"/leading/":    "leading",
		"///":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), in)
	}
}

func TestNewCreatesBranchFromDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp, err := f.m.New(ctx, NewOptions{Name: "feat/login", Branch: "feat/login"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.cfg.ClonesDir, "feat-login"), sp.Path)
	assert.Equal(t, "feat/login", sp.Branch)
	assert.Equal(t, "main", sp.BaseRef)
	assert.Equal(t, StatusOK, sp.Status)
	testutil.AssertFileContent(t, filepath.Join(sp.Path, "README.md"), "test\n")
	testutil.AssertPathExists(t, f.cfg.MirrorPath)

	// The space borrows objects from the mirror.
	testutil.AssertPathExists(t, filepath.Join(sp.Path, ".git", "objects", "info", "alternates"))

	spaces, err := f.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "feat-login", spaces[0].Name)
	assert.Equal(t, "feat/login", spaces[0].Branch)
}

func TestNewWithoutBranchKeepsDefault(t *testing.T) {
	f := newFixture(t)

	sp, err := f.m.New(context.Background(), NewOptions{Name: "scratch"})
	require.NoError(t, err)
	assert.Equal(t, "main", currentBranch(t, sp.Path))
}

func TestNewTracksRemoteBranch(t *testing.T) {
	f := newFixture(t)
	f.repo.Checkout("main")
	f.repo.Run("checkout", "--quiet", "-b", "remote-b")
	f.repo.WriteFile("remote.txt", "remote\n")
	f.repo.Commit("remote branch")
	f.repo.Run("push", "--quiet", "origin", "remote-b")
	f.repo.Checkout("main")

	sp, err := f.m.New(context.Background(), NewOptions{Name: "rb", Branch: "remote-b"})
	require.NoError(t, err)

	assert.Equal(t, "remote-b", currentBranch(t, sp.Path))
	testutil.AssertFileContent(t, filepath.Join(sp.Path, "remote.txt"), "remote\n")
	upstream := testutil.MustExec(t, sp.Path, "git", "rev-parse", "--abbrev-ref", "remote-b@{upstream}")
	assert.Contains(t, upstream, "origin/remote-b")
}

func TestNewChecksOutLocalOnlyBranch(t *testing.T) {
	f := newFixture(t)
	f.repo.Run("checkout", "--quiet", "-b", "local-only")
	f.repo.WriteFile("local.txt", "local\n")
	f.repo.Commit("local branch")
	f.repo.Checkout("main")

	sp, err := f.m.New(context.Background(), NewOptions{Name: "lo", Branch: "local-only"})
	require.NoError(t, err)

	assert.Equal(t, "local-only", currentBranch(t, sp.Path))
	testutil.AssertFileContent(t, filepath.Join(sp.Path, "local.txt"), "local\n")
}

func TestNewFromRef(t *testing.T) {
	f := newFixture(t)
	f.repo.Run("checkout", "--quiet", "-b", "base")
	f.repo.WriteFile("base.txt", "base\n")
	f.repo.Commit("base")
	f.repo.Run("push", "--quiet", "origin", "base")
	f.repo.Checkout("main")

	sp, err := f.m.New(context.Background(), NewOptions{Name: "child", Branch: "child", From: "base"})
	require.NoError(t, err)

	assert.Equal(t, "base", sp.BaseRef)
	assert.Equal(t, "child", currentBranch(t, sp.Path))
	testutil.AssertPathExists(t, filepath.Join(sp.Path, "base.txt"))
}

func TestNewWithoutOrigin(t *testing.T) {
	f := newFixture(t)
	f.repo.Run("remote", "remove", "origin")
	f.cfg.Origin = ""
	m := NewManager(f.cfg, hooks.NewRunner(io.Discard))

	sp, err := m.New(context.Background(), NewOptions{Name: "offline", Branch: "offline"})
	require.NoError(t, err)
	assert.Equal(t, "offline", currentBranch(t, sp.Path))
}

func TestNewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, opts := range []NewOptions{
		{Name: ""},
		{Name: "///"},
		{Name: "1"},
		{Name: "main"},
		{Name: "x", From: "main"},
		{Name: "x", Branch: "bad..name"},
	} {
		_, err := f.m.New(ctx, opts)
		assert.Error(t, err, "%+v", opts)
	}
	testutil.AssertNoPath(t, f.cfg.ClonesDir)
	testutil.AssertNoPath(t, f.cfg.MirrorPath)
}

func TestNewExistingSpace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.ClonesDir, "taken"), 0o755))

	_, err := f.m.New(context.Background(), NewOptions{Name: "taken"})
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceExists))
	assert.Equal(t, "taken", errors.GetErrorContext(err)["space"])
}

func TestNewBusySpace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.cfg.ClonesDir, 0o755))
	held, err := filelock.TryAcquire(f.m.lockPath("busy"))
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	_, err = f.m.New(context.Background(), NewOptions{Name: "busy"})
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceBusy))
	testutil.AssertNoPath(t, f.m.PathFor("busy"))
}

func TestNewSameNameRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.m.New(ctx, NewOptions{Name: "race", NoFetch: true})
		}(i)
	}
	wg.Wait()

	var succeeded, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.IsSpacesError(err, errors.ErrCodeSpaceBusy), errors.IsSpacesError(err, errors.ErrCodeSpaceExists):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, lost)
}

func TestNewDifferentNamesShareMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"one", "two"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = f.m.New(ctx, NewOptions{Name: name, Branch: name})
		}(i, name)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	spaces, err := f.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, "one", spaces[0].Name)
	assert.Equal(t, "two", spaces[1].Name)

	matches, _ := filepath.Glob(filepath.Join(f.cfg.MirrorsRoot, "*"))
	assert.ElementsMatch(t, []string{f.cfg.MirrorPath, f.cfg.MirrorPath + ".lock"}, matches)
}

func TestNewCopiesConfiguredFiles(t *testing.T) {
	f := newFixture(t, func(cfg *config.Effective) {
		cfg.Copy = copyrules.Config{Include: []string{".env*"}, Exclude: []string{".env.secret"}}
	})
	f.repo.WriteFile(".env", "A=1\n")
	f.repo.WriteFile(".env.secret", "S=1\n")
	f.repo.WriteFile(".spacesinclude", "# local tooling\nconfig/local.json\n")
	f.repo.WriteFile("config/local.json", "{}\n")

	sp, err := f.m.New(context.Background(), NewOptions{Name: "copied"})
	require.NoError(t, err)

	testutil.AssertFileContent(t, filepath.Join(sp.Path, ".env"), "A=1\n")
	testutil.AssertFileContent(t, filepath.Join(sp.Path, "config", "local.json"), "{}\n")
	testutil.AssertNoPath(t, filepath.Join(sp.Path, ".env.secret"))
	testutil.AssertFileContent(t, filepath.Join(sp.Path, "README.md"), "test\n")
}

func TestNewNoCopy(t *testing.T) {
	f := newFixture(t, func(cfg *config.Effective) {
		cfg.Copy = copyrules.Config{Include: []string{".env"}}
	})
	f.repo.WriteFile(".env", "A=1\n")

	sp, err := f.m.New(context.Background(), NewOptions{Name: "bare", NoCopy: true})
	require.NoError(t, err)
	testutil.AssertNoPath(t, filepath.Join(sp.Path, ".env"))
}

func TestNewInvalidPatternFileFailsBeforeCloning(t *testing.T) {
	f := newFixture(t)
	f.repo.WriteFile(".spacesinclude", "../escape\n")

	_, err := f.m.New(context.Background(), NewOptions{Name: "bad"})
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeCopyPattern))
	testutil.AssertNoPath(t, f.m.PathFor("bad"))
	testutil.AssertNoPath(t, f.cfg.MirrorPath)
}

func TestNewCheckoutFailureCleansUp(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.New(context.Background(), NewOptions{Name: "x", Branch: "x", From: "no-such-ref"})
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeGitCommand))
	testutil.AssertNoPath(t, f.m.PathFor("x"))
}

func TestNewPostCreateHookFailureKeepsSpace(t *testing.T) {
	f := newFixture(t, func(cfg *config.Effective) {
		cfg.Hooks.PostCreate = []string{`echo "$SPACE $BRANCH $BASE_REF" > hook.txt`, "exit 3"}
	})

	sp, err := f.m.New(context.Background(), NewOptions{Name: "hooked", Branch: "hooked"})
	require.Error(t, err)
	require.NotNil(t, sp)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeHookFailed))
	assert.True(t, errors.IsRecoverable(err))
	testutil.AssertFileContent(t, filepath.Join(sp.Path, "hook.txt"), "hooked hooked main\n")
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"1", "main"} {
		sp, err := f.m.Resolve(ctx, name)
		require.NoError(t, err)
		assert.True(t, sp.IsMain)
		assert.Equal(t, f.repo.Path, sp.Path)
		assert.Equal(t, "main", sp.Branch)
	}

	_, err := f.m.Resolve(ctx, "ghost")
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceNotFound))

	_, err = f.m.New(ctx, NewOptions{Name: "feat/a", Branch: "feat/a"})
	require.NoError(t, err)
	sp, err := f.m.Resolve(ctx, "feat/a")
	require.NoError(t, err)
	assert.Equal(t, f.m.PathFor("feat-a"), sp.Path)
}

func TestResolveRejectsDotNames(t *testing.T) {
	ctx := context.Background()
	marker := filepath.Join(testutil.TempDir(t), "pre-remove.txt")
	f := newFixture(t, func(cfg *config.Effective) {
		cfg.Hooks.PreRemove = []string{"touch " + marker}
	})
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.ClonesDir, ".hidden"), 0o755))
	outside := filepath.Dir(f.cfg.ClonesDir)
	f.repo.WriteFile(".env", "A=1\n")

	for _, name := range []string{".", "..", ".hidden", "/..", "../x"} {
		_, err := f.m.Resolve(ctx, name)
		assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceNotFound), name)

		_, err = f.m.New(ctx, NewOptions{Name: name, NoFetch: true})
		assert.Error(t, err, name)

		err = f.m.Remove(ctx, name, RemoveOptions{Force: true})
		assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceNotFound), name)

		_, err = f.m.Copy(ctx, CopyOptions{Targets: []string{name}, Patterns: []string{".env"}})
		assert.Error(t, err, name)
	}

	testutil.AssertNoPath(t, marker)
	testutil.AssertNoPath(t, filepath.Join(outside, ".env"))
	testutil.AssertNoPath(t, filepath.Join(f.cfg.ClonesDir, ".env"))
	testutil.AssertPathExists(t, f.cfg.ClonesDir)
}

func TestListStatusesAndPrefix(t *testing.T) {
	f := newFixture(t, func(cfg *config.Effective) { cfg.ClonesPrefix = "s-" })
	ctx := context.Background()

	clean, err := f.m.New(ctx, NewOptions{Name: "clean", NoFetch: true})
	require.NoError(t, err)
	dirty, err := f.m.New(ctx, NewOptions{Name: "dirty", NoFetch: true})
	require.NoError(t, err)
	det, err := f.m.New(ctx, NewOptions{Name: "det", NoFetch: true})
	require.NoError(t, err)

	assert.Equal(t, "s-clean", filepath.Base(clean.Path))
	testutil.WriteFile(t, filepath.Join(dirty.Path, "new.txt"), "x\n")
	testutil.MustExec(t, det.Path, "git", "checkout", "--quiet", "--detach")
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.ClonesDir, "s-partial"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.ClonesDir, "unrelated"), 0o755))

	spaces, err := f.m.List(ctx)
	require.NoError(t, err)

	got := map[string]Status{}
	var names []string
	for _, sp := range spaces {
		got[sp.Name] = sp.Status
		names = append(names, sp.Name)
	}
	assert.Equal(t, []string{"clean", "det", "dirty", "partial"}, names)
	assert.Equal(t, StatusOK, got["clean"])
	assert.Equal(t, StatusDirty, got["dirty"])
	assert.Equal(t, StatusDetached, got["det"])
	assert.Equal(t, StatusMissing, got["partial"])
	assert.Equal(t, []string{"clean", "det", "dirty", "partial"}, f.m.Names(ctx))
}

func TestListWithoutClonesDir(t *testing.T) {
	f := newFixture(t)

	spaces, err := f.m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, spaces)
}
