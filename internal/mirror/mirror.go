// Package mirror keeps one shared mirror clone per origin. Spaces borrow its
// objects so creating a space never re-downloads history.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/filelock"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/retry"
)

// Mirror describes the mirror of one origin.
type Mirror struct {
	Origin   string
	Path     string
	Identity string
	Exists   bool

	LastFetch time.Time
	LastError string

	FetchInProgress bool
	LockHolder      int // PID of the process fetching, when known
}

// Options locate the mirror of a repository.
type Options struct {
	RepoRoot    string
	Origin      string // empty when the repository has no origin remote
	Identity    string
	Path        string
	LockTimeout time.Duration
}

// Manager creates and refreshes one mirror.
type Manager struct {
	opts Options
}

func NewManager(opts Options) *Manager {
	if opts.Identity == "" {
		opts.Identity = opts.Origin
		if opts.Identity == "" {
			opts.Identity = opts.RepoRoot
		}
	}
	return &Manager{opts: opts}
}

func (m *Manager) Path() string {
	return m.opts.Path
}

func (m *Manager) lockPath() string {
	return m.opts.Path + ".lock"
}

// EnsureFresh creates the mirror when missing and otherwise fetches unless
// noFetch is set. A failed fetch of an existing mirror is logged and the
// last known good mirror is returned.
func (m *Manager) EnsureFresh(ctx context.Context, noFetch bool) (*Mirror, error) {
	if fs.DirectoryExists(m.opts.Path) && noFetch {
		logger.Debug("Using mirror %s without fetching", m.opts.Path)
		return m.Status()
	}

	if err := m.refresh(ctx, noFetch); err != nil {
		return nil, err
	}
	return m.Status()
}

// refresh holds the mirror lock only for the git step.
func (m *Manager) refresh(ctx context.Context, noFetch bool) error {
	lock, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	// Another process may have created the mirror while we waited.
	if !fs.DirectoryExists(m.opts.Path) {
		return m.create(ctx)
	}
	if !noFetch {
		m.update(ctx)
	}
	return nil
}

// ForceUpdate creates or fetches the mirror regardless of any no-fetch
// preference.
func (m *Manager) ForceUpdate(ctx context.Context) (*Mirror, error) {
	return m.EnsureFresh(ctx, false)
}

// Status reads the mirror's state without taking the lock.
func (m *Manager) Status() (*Mirror, error) {
	mirror := &Mirror{
		Origin:   m.opts.Origin,
		Path:     m.opts.Path,
		Identity: m.opts.Identity,
		Exists:   fs.DirectoryExists(m.opts.Path),
	}
	mirror.FetchInProgress, mirror.LockHolder = filelock.Held(m.lockPath())

	if !mirror.Exists {
		return mirror, nil
	}

	st, err := loadState(m.opts.Path)
	if err != nil {
		return nil, err
	}
	mirror.LastFetch = st.LastFetch
	mirror.LastError = st.LastError
	return mirror, nil
}

func (m *Manager) acquire(ctx context.Context) (*filelock.Lock, error) {
	if err := os.MkdirAll(filepath.Dir(m.opts.Path), fs.DirGit); err != nil {
		return nil, fmt.Errorf("failed to create mirrors directory: %w", err)
	}

	lock, err := filelock.Acquire(ctx, m.lockPath(), m.opts.LockTimeout)
	if err != nil {
		if errors.Is(err, retry.ErrDeadlineExceeded) {
			return nil, errors.ErrMirrorLockTimeout(m.lockPath(), m.opts.LockTimeout)
		}
		return nil, fmt.Errorf("failed to lock mirror: %w", err)
	}
	return lock, nil
}

// create clones into a temporary directory and renames it into place, so a
// half-written mirror is never visible at the final path.
func (m *Manager) create(ctx context.Context) error {
	tmp := fmt.Sprintf("%s.tmp-%d", m.opts.Path, os.Getpid())
	if err := os.RemoveAll(tmp); err != nil {
		return errors.ErrMirrorFetch(m.opts.Path, err)
	}

	err := logger.WithSpinner("Creating mirror...", func() error {
		if err := git.CloneMirror(ctx, m.opts.RepoRoot, tmp); err != nil {
			return err
		}
		return m.fetch(ctx, tmp)
	})
	if err != nil {
		_ = os.RemoveAll(tmp)
		return errors.ErrMirrorFetch(m.opts.Path, err)
	}

	if err := os.Rename(tmp, m.opts.Path); err != nil {
		_ = os.RemoveAll(tmp)
		return errors.ErrMirrorFetch(m.opts.Path, err)
	}

	logger.Debug("Created mirror %s", m.opts.Path)
	return m.record(nil)
}

func (m *Manager) update(ctx context.Context) {
	err := logger.WithSpinner("Updating mirror...", func() error {
		return m.fetch(ctx, m.opts.Path)
	})
	if err != nil {
		logger.Warning("Failed to update mirror, using last fetched state: %v", err)
	}
	if recordErr := m.record(err); recordErr != nil {
		logger.Debug("Failed to record mirror state: %v", recordErr)
	}
}

// fetch refreshes dir from origin, then pulls local branches and tags from
// the repository so branches that were never pushed are visible too.
func (m *Manager) fetch(ctx context.Context, dir string) error {
	if m.opts.Origin != "" {
		if err := git.SetRemoteURL(ctx, dir, "origin", m.opts.Origin); err != nil {
			return err
		}
		if err := git.Fetch(ctx, dir, "origin", true); err != nil {
			return err
		}
	}
	return git.Fetch(ctx, dir, m.opts.RepoRoot, false,
		"+refs/heads/*:refs/heads/*",
		"+refs/tags/*:refs/tags/*",
	)
}

func (m *Manager) record(fetchErr error) error {
	st, err := loadState(m.opts.Path)
	if err != nil {
		return err
	}

	st.Origin = m.opts.Origin
	st.Identity = m.opts.Identity
	if fetchErr != nil {
		st.LastError = fetchErr.Error()
	} else {
		st.LastFetch = time.Now().UTC().Truncate(time.Second)
		st.LastError = ""
	}
	return saveState(m.opts.Path, st)
}

// ListAll returns every mirror under root that carries a state file, sorted
// by path.
func ListAll(root string) ([]*Mirror, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read mirrors directory: %w", err)
	}

	var mirrors []*Mirror
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if !fs.PathExists(statePath(path)) {
			continue
		}

		st, err := loadState(path)
		if err != nil {
			logger.Debug("Skipping mirror %s: %v", path, err)
			continue
		}
		m := NewManager(Options{Origin: st.Origin, Identity: st.Identity, Path: path})
		status, err := m.Status()
		if err != nil {
			continue
		}
		mirrors = append(mirrors, status)
	}

	sort.Slice(mirrors, func(i, j int) bool { return mirrors[i].Path < mirrors[j].Path })
	return mirrors, nil
}
