package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/filelock"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/testutil"
	testgit "github.com/sqve/spaces/internal/testutil/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, repo *testgit.TestRepo, origin string) *Manager {
	t.Helper()
	return NewManager(Options{
		RepoRoot:    repo.Path,
		Origin:      origin,
		Path:        filepath.Join(testutil.TempDir(t), "mirrors", "repo-0123456789abcdef"),
		LockTimeout: time.Second,
	})
}

func TestEnsureFreshCreatesMirror(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	m := newManager(t, repo, "")
	ctx := context.Background()

	status, err := m.Status()
	require.NoError(t, err)
	assert.False(t, status.Exists)

	mirror, err := m.EnsureFresh(ctx, false)
	require.NoError(t, err)

	assert.True(t, mirror.Exists)
	assert.False(t, mirror.FetchInProgress)
	assert.Empty(t, mirror.LastError)
	assert.False(t, mirror.LastFetch.IsZero())
	assert.Equal(t, repo.Path, mirror.Identity)
	testutil.AssertPathExists(t, filepath.Join(mirror.Path, StateFile))

	ok, err := git.RefExists(ctx, mirror.Path, "refs/heads/main")
	require.NoError(t, err)
	assert.True(t, ok)

	matches, _ := filepath.Glob(m.Path() + ".tmp-*")
	assert.Empty(t, matches)
}

func TestEnsureFreshCreatesWithNoFetch(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	m := newManager(t, repo, "")

	mirror, err := m.EnsureFresh(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, mirror.Exists)
}

func TestEnsureFreshFetchesOriginAndLocalBranches(t *testing.T) {
	repo, origin := testgit.NewTestRepoWithOrigin(t)
	m := newManager(t, repo, origin)
	ctx := context.Background()

	_, err := m.EnsureFresh(ctx, false)
	require.NoError(t, err)

	// A branch that only exists upstream.
	other := filepath.Join(repo.Dir, "other")
	testutil.MustExec(t, repo.Dir, "git", "clone", "--quiet", origin, other)
	testutil.MustExec(t, other, "git", "checkout", "-q", "-b", "upstream-only")
	testutil.MustExec(t, other, "git", "push", "--quiet", "origin", "upstream-only")

	// A branch that was never pushed.
	repo.CreateBranch("local-only")

	t.Run("no fetch keeps existing refs", func(t *testing.T) {
		_, err := m.EnsureFresh(ctx, true)
		require.NoError(t, err)

		ok, err := git.RefExists(ctx, m.Path(), "refs/heads/upstream-only")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("fetch picks up both", func(t *testing.T) {
		_, err := m.ForceUpdate(ctx)
		require.NoError(t, err)

		for _, ref := range []string{"refs/heads/upstream-only", "refs/heads/local-only", "refs/heads/main"} {
			ok, err := git.RefExists(ctx, m.Path(), ref)
			require.NoError(t, err)
			assert.True(t, ok, ref)
		}
	})
}

func TestFetchIsIdempotent(t *testing.T) {
	repo, origin := testgit.NewTestRepoWithOrigin(t)
	m := newManager(t, repo, origin)
	ctx := context.Background()

	_, err := m.EnsureFresh(ctx, false)
	require.NoError(t, err)
	before, err := git.ListRefs(ctx, m.Path())
	require.NoError(t, err)

	_, err = m.ForceUpdate(ctx)
	require.NoError(t, err)
	_, err = m.ForceUpdate(ctx)
	require.NoError(t, err)

	after, err := git.ListRefs(ctx, m.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateFailureIsNotFatal(t *testing.T) {
	repo, origin := testgit.NewTestRepoWithOrigin(t)
	m := newManager(t, repo, origin)
	ctx := context.Background()

	_, err := m.EnsureFresh(ctx, false)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(origin))

	mirror, err := m.ForceUpdate(ctx)
	require.NoError(t, err)
	assert.True(t, mirror.Exists)
	assert.NotEmpty(t, mirror.LastError)

	ok, err := git.RefExists(ctx, m.Path(), "refs/heads/main")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateFailureIsFatal(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	m := newManager(t, repo, filepath.Join(repo.Dir, "does-not-exist.git"))

	_, err := m.EnsureFresh(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeMirrorFetch))

	status, err := m.Status()
	require.NoError(t, err)
	assert.False(t, status.Exists)
}

func TestLockContention(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	m := NewManager(Options{
		RepoRoot:    repo.Path,
		Path:        filepath.Join(testutil.TempDir(t), "repo-mirror"),
		LockTimeout: 150 * time.Millisecond,
	})

	held, err := filelock.TryAcquire(m.Path() + ".lock")
	require.NoError(t, err)

	status, err := m.Status()
	require.NoError(t, err)
	assert.True(t, status.FetchInProgress)
	assert.Equal(t, os.Getpid(), status.LockHolder)

	_, err = m.EnsureFresh(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeMirrorLockTimeout))
	assert.False(t, status.Exists)

	require.NoError(t, held.Release())

	mirror, err := m.EnsureFresh(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, mirror.Exists)
	assert.False(t, mirror.FetchInProgress)
}

func TestLockContentionZeroTimeout(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	m := NewManager(Options{
		RepoRoot: repo.Path,
		Path:     filepath.Join(testutil.TempDir(t), "repo-mirror"),
	})

	held, err := filelock.TryAcquire(m.Path() + ".lock")
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	start := time.Now()
	_, err = m.EnsureFresh(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsSpacesError(err, errors.ErrCodeMirrorLockTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestListAll(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	root := testutil.TempDir(t)

	for _, name := range []string{"b-mirror", "a-mirror"} {
		m := NewManager(Options{RepoRoot: repo.Path, Path: filepath.Join(root, name), LockTimeout: time.Second})
		_, err := m.EnsureFresh(context.Background(), false)
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "unrelated"), 0o755))

	mirrors, err := ListAll(root)
	require.NoError(t, err)
	require.Len(t, mirrors, 2)
	assert.Equal(t, filepath.Join(root, "a-mirror"), mirrors[0].Path)
	assert.Equal(t, repo.Path, mirrors[0].Identity)

	none, err := ListAll(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
