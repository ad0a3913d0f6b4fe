// Package filelock provides exclusive, process-scoped file locks. The OS
// releases a lock when its owner exits, so a lock file left on disk never
// blocks later callers.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/retry"
)

// ErrLocked reports that another owner currently holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// Lock is an acquired lock. The zero value is not usable.
type Lock struct {
	path string
	file *os.File
}

type lockedError struct {
	path string
	pid  int
}

func (e *lockedError) Error() string {
	if e.pid > 0 {
		return fmt.Sprintf("%s is held by PID %d", e.path, e.pid)
	}
	return fmt.Sprintf("%s is held by another process", e.path)
}

func (e *lockedError) Is(target error) bool { return target == ErrLocked }

func (e *lockedError) IsRetryable() bool { return true }

// TryAcquire takes the lock at path without waiting. It returns an error
// matching ErrLocked when the lock is busy.
func TryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, fs.FileStrict) //nolint:gosec // path derived from the clones or mirrors dir
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, &lockedError{path: path, pid: readPID(path)}
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	logger.Debug("Acquired lock %s", path)
	return &Lock{path: path, file: f}, nil
}

// Acquire polls with backoff until the lock is taken, ctx is done or timeout
// elapses. A timeout yields an error matching both ErrLocked and
// retry.ErrDeadlineExceeded. A timeout of zero or less makes one attempt.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		lock, err := TryAcquire(path)
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%w: %w", retry.ErrDeadlineExceeded, err)
		}
		return lock, err
	}

	var lock *Lock
	err := retry.ExecuteWithRetry(ctx, retry.PollConfig(timeout), func() error {
		l, err := TryAcquire(path)
		if err != nil {
			return err
		}
		lock = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// Held reports whether another owner holds the lock at path, and its PID when
// known. A missing lock file is not held.
func Held(path string) (bool, int) {
	if !fs.PathExists(path) {
		return false, 0
	}

	l, err := TryAcquire(path)
	if err != nil {
		var locked *lockedError
		if errors.As(err, &locked) {
			return true, locked.pid
		}
		return false, 0
	}
	_ = l.Release()
	return false, 0
}

func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. The file itself stays on disk;
// removing it would let a racing opener lock a different inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	_ = l.file.Truncate(0)
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil

	logger.Debug("Released lock %s", l.path)
	return errors.Join(unlockErr, closeErr)
}

func readPID(path string) int {
	content, err := os.ReadFile(path) //nolint:gosec // path derived from the clones or mirrors dir
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0
	}
	return pid
}
