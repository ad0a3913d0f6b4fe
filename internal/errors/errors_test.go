package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpacesError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewSpacesError(ErrCodeSpaceBusy, "space is busy", nil)

		assert.Equal(t, ErrCodeSpaceBusy, err.Code)
		assert.Equal(t, "space is busy", err.Message)
		assert.Nil(t, err.Cause)
		assert.Equal(t, "space is busy", err.Error())
	})

	t.Run("error with cause", func(t *testing.T) {
		cause := fmt.Errorf("underlying error")
		err := NewSpacesError(ErrCodeGitCommand, "git clone failed", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "git clone failed: underlying error", err.Error())
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("operation prefixes message", func(t *testing.T) {
		err := ErrSpaceNotFound("feat")
		err.Operation = "rm feat"

		assert.Equal(t, "rm feat: space not found: feat", err.Error())
	})

	t.Run("error with context", func(t *testing.T) {
		err := NewSpacesError(ErrCodeConfigInvalid, "bad value", nil).
			WithContext("key", "spaces.clones.dir").
			WithContext("layer", "env")

		assert.Equal(t, "spaces.clones.dir", err.Context["key"])
		assert.Equal(t, "env", err.Context["layer"])
	})
}

func TestErrorFactoryFunctions(t *testing.T) {
	tests := []struct {
		name string
		err  *SpacesError
		code string
	}{
		{"ErrConfigInvalid", ErrConfigInvalid("spaces.mirrors.lockTimeout", New("bad")), ErrCodeConfigInvalid},
		{"ErrMirrorLockTimeout", ErrMirrorLockTimeout("/tmp/m.lock", time.Second), ErrCodeMirrorLockTimeout},
		{"ErrMirrorFetch", ErrMirrorFetch("/tmp/m", New("offline")), ErrCodeMirrorFetch},
		{"ErrGitCommand", ErrGitCommand("clone", New("exit 128")), ErrCodeGitCommand},
		{"ErrCopyPattern", ErrCopyPattern("[", "syntax error"), ErrCodeCopyPattern},
		{"ErrSpaceExists", ErrSpaceExists("feat", "/tmp/feat"), ErrCodeSpaceExists},
		{"ErrSpaceNotFound", ErrSpaceNotFound("feat"), ErrCodeSpaceNotFound},
		{"ErrSpaceBusy", ErrSpaceBusy("feat", nil), ErrCodeSpaceBusy},
		{"ErrHookFailed", ErrHookFailed("postCreate", 1, true), ErrCodeHookFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Error())
			assert.True(t, IsSpacesError(tt.err, tt.code))
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrSpaceNotFound("a"))

	assert.True(t, Is(err, ErrSpaceNotFound("b")))
	assert.False(t, Is(err, ErrSpaceBusy("a", nil)))
	assert.Equal(t, ErrCodeSpaceNotFound, GetErrorCode(err))
	assert.Equal(t, "a", GetErrorContext(err)["space"])
	assert.Empty(t, GetErrorCode(New("plain")))
	assert.Nil(t, GetErrorContext(New("plain")))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrHookFailed("postCreate", 1, true)))
	assert.False(t, IsRecoverable(ErrHookFailed("preRemove", 1, false)))
	assert.False(t, IsRecoverable(ErrSpaceBusy("a", nil)))
	assert.False(t, IsRecoverable(New("plain")))
	assert.True(t, IsRecoverable(fmt.Errorf("ctx: %w", ErrHookFailed("postCreate", 2, true))))
}

func TestWithOperation(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WithOperation(nil, "new"))
	})

	t.Run("annotates coded error once", func(t *testing.T) {
		err := WithOperation(ErrSpaceBusy("feat", nil), "new feat")
		err = WithOperation(err, "outer")

		var spacesErr *SpacesError
		require.True(t, As(err, &spacesErr))
		assert.Equal(t, "new feat", spacesErr.Operation)
		assert.Equal(t, ErrCodeSpaceBusy, spacesErr.Code)
	})

	t.Run("wraps uncoded error keeping cause", func(t *testing.T) {
		cause := New("disk full")
		err := WithOperation(cause, "new feat")

		assert.True(t, Is(err, cause))
		assert.Equal(t, "new feat: disk full", err.Error())
		assert.Empty(t, GetErrorCode(err))
	})
}

func TestWithContext(t *testing.T) {
	err := WithContext(ErrSpaceExists("feat", "/p"), "branch", "feat")
	assert.Equal(t, "feat", GetErrorContext(err)["branch"])

	plain := WithContext(New("boom"), "space", "x")
	assert.Equal(t, "x", GetErrorContext(plain)["space"])
	assert.Equal(t, "boom", plain.Error())

	assert.NoError(t, WithContext(nil, "k", "v"))
}

func TestJoin(t *testing.T) {
	base := New("base")
	joined := Join(base, New("other"))

	assert.Error(t, joined)
	assert.True(t, Is(joined, base))
	assert.NoError(t, Join(nil, nil))
}
