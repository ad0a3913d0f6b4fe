package space

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/copyrules"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *config.Effective) {
		cfg.Copy = copyrules.Config{Include: []string{".env"}, Exclude: []string{"*.log"}}
	})
	a, err := f.m.New(ctx, NewOptions{Name: "a", NoFetch: true, NoCopy: true})
	require.NoError(t, err)
	b, err := f.m.New(ctx, NewOptions{Name: "b", NoFetch: true, NoCopy: true})
	require.NoError(t, err)

	f.repo.WriteFile(".env", "A=2\n")
	f.repo.WriteFile("notes/todo.md", "todo\n")
	f.repo.WriteFile("notes/debug.log", "log\n")

	t.Run("explicit patterns from main overwrite", func(t *testing.T) {
		testutil.WriteFile(t, filepath.Join(a.Path, "notes", "todo.md"), "old\n")

		results, err := f.m.Copy(ctx, CopyOptions{Targets: []string{"a"}, Patterns: []string{"notes/**"}})
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Equal(t, []string{"notes/todo.md"}, results[0].Copied)
		testutil.AssertFileContent(t, filepath.Join(a.Path, "notes", "todo.md"), "todo\n")
		testutil.AssertNoPath(t, filepath.Join(a.Path, "notes", "debug.log"))
		testutil.AssertNoPath(t, filepath.Join(a.Path, ".env"))
	})

	t.Run("configured patterns to all spaces", func(t *testing.T) {
		results, err := f.m.Copy(ctx, CopyOptions{All: true})
		require.NoError(t, err)
		require.Len(t, results, 2)

		testutil.AssertFileContent(t, filepath.Join(a.Path, ".env"), "A=2\n")
		testutil.AssertFileContent(t, filepath.Join(b.Path, ".env"), "A=2\n")
	})

	t.Run("source is never a target", func(t *testing.T) {
		testutil.WriteFile(t, filepath.Join(a.Path, ".env"), "A=from-a\n")

		results, err := f.m.Copy(ctx, CopyOptions{From: "a", All: true})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].Target.Name)
		testutil.AssertFileContent(t, filepath.Join(b.Path, ".env"), "A=from-a\n")
	})

	t.Run("into the main repository", func(t *testing.T) {
		testutil.WriteFile(t, filepath.Join(b.Path, "back.txt"), "back\n")

		_, err := f.m.Copy(ctx, CopyOptions{From: "b", Targets: []string{"1"}, Patterns: []string{"back.txt"}})
		require.NoError(t, err)
		testutil.AssertFileContent(t, filepath.Join(f.repo.Path, "back.txt"), "back\n")
	})

	t.Run("dry run mutates nothing", func(t *testing.T) {
		f.repo.WriteFile("dry.txt", "dry\n")

		results, err := f.m.Copy(ctx, CopyOptions{Targets: []string{"b"}, Patterns: []string{"dry.txt"}, DryRun: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"dry.txt"}, results[0].Copied)
		testutil.AssertNoPath(t, filepath.Join(b.Path, "dry.txt"))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := f.m.Copy(ctx, CopyOptions{Targets: []string{"ghost"}, Patterns: []string{"x"}})
		assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceNotFound))

		_, err = f.m.Copy(ctx, CopyOptions{From: "ghost", All: true})
		assert.True(t, errors.IsSpacesError(err, errors.ErrCodeSpaceNotFound))

		_, err = f.m.Copy(ctx, CopyOptions{Targets: []string{"a"}, Patterns: []string{"../x"}})
		assert.True(t, errors.IsSpacesError(err, errors.ErrCodeCopyPattern))

		_, err = f.m.Copy(ctx, CopyOptions{Patterns: []string{"x"}})
		assert.Error(t, err)
	})
}

func TestCopyWithoutPatterns(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.New(context.Background(), NewOptions{Name: "a", NoFetch: true})
	require.NoError(t, err)

	_, err = f.m.Copy(context.Background(), CopyOptions{All: true})
	assert.Error(t, err)
}
