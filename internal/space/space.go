// Package space creates, lists, resolves and removes spaces: full clones of
// the repository that borrow objects from a shared mirror.
package space

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/filelock"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/hooks"
	"github.com/sqve/spaces/internal/mirror"
)

// MainName identifies the repository itself. "1" is accepted as an alias.
const MainName = "main"

const detached = "(detached)"

type Status string

const (
	StatusOK       Status = "ok"
	StatusDirty    Status = "dirty"
	StatusDetached Status = "detached"
	StatusMissing  Status = "missing"
)

type Space struct {
	Name    string
	Path    string
	Branch  string // "(detached)" when HEAD is detached
	BaseRef string // only set by New
	Status  Status
	Created time.Time
	IsMain  bool
}

// Manager runs space operations against one resolved configuration.
type Manager struct {
	cfg     *config.Effective
	mirrors *mirror.Manager
	hooks   *hooks.Runner
}

func NewManager(cfg *config.Effective, runner *hooks.Runner) *Manager {
	if runner == nil {
		runner = hooks.NewRunner(nil)
	}
	return &Manager{
		cfg: cfg,
		mirrors: mirror.NewManager(mirror.Options{
			RepoRoot:    cfg.RepoRoot,
			Origin:      cfg.Origin,
			Identity:    config.MirrorIdentity(cfg.Origin, cfg.RepoRoot),
			Path:        cfg.MirrorPath,
			LockTimeout: cfg.LockTimeout,
		}),
		hooks: runner,
	}
}

func (m *Manager) Config() *config.Effective {
	return m.cfg
}

func (m *Manager) Mirror() *mirror.Manager {
	return m.mirrors
}

// Sanitize replaces characters that are unsafe in directory names with
// dashes and trims leading and trailing dashes.
func Sanitize(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		" ", "-",
		":", "-",
		"*", "-",
		"?", "-",
		`"`, "-",
		"<", "-",
		">", "-",
		"|", "-",
		"#", "-",
	)
	return strings.Trim(replacer.Replace(strings.TrimSpace(name)), "-")
}

// validName reports whether name sanitizes to a usable directory name. Names
// that sanitize to a dot-leading form would be hidden or, for "." and "..",
// resolve outside the clones directory.
func validName(name string) bool {
	s := Sanitize(name)
	return s != "" && !strings.HasPrefix(s, ".")
}

// IsMainName reports whether name refers to the repository itself.
func IsMainName(name string) bool {
	return name == "1" || name == MainName
}

// DirName is the directory name of a space inside the clones directory.
func (m *Manager) DirName(name string) string {
	return m.cfg.ClonesPrefix + Sanitize(name)
}

// PathFor returns where the space called name lives.
func (m *Manager) PathFor(name string) string {
	return filepath.Join(m.cfg.ClonesDir, m.DirName(name))
}

func (m *Manager) lockPath(name string) string {
	return filepath.Join(m.cfg.ClonesDir, "."+m.DirName(name)+".lock")
}

func (m *Manager) lockSpace(name string) (*filelock.Lock, error) {
	if err := os.MkdirAll(m.cfg.ClonesDir, fs.DirGit); err != nil {
		return nil, err
	}
	lock, err := filelock.TryAcquire(m.lockPath(name))
	if err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			return nil, errors.ErrSpaceBusy(name, err)
		}
		return nil, err
	}
	return lock, nil
}

// Resolve finds an existing space, or the repository for "1" and "main".
func (m *Manager) Resolve(ctx context.Context, name string) (*Space, error) {
	if IsMainName(name) {
		sp := &Space{Name: MainName, Path: m.cfg.RepoRoot, IsMain: true}
		m.inspect(ctx, sp)
		return sp, nil
	}

	if !validName(name) {
		return nil, errors.ErrSpaceNotFound(name)
	}
	path := m.PathFor(name)
	if !fs.DirectoryExists(path) {
		return nil, errors.ErrSpaceNotFound(name)
	}

	sp := &Space{Name: name, Path: path}
	m.inspect(ctx, sp)
	return sp, nil
}

// List returns the spaces in the clones directory sorted by name. It takes
// no locks.
func (m *Manager) List(ctx context.Context) ([]*Space, error) {
	entries, err := os.ReadDir(m.cfg.ClonesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithOperation(err, "list")
	}

	spaces := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*Space, bool) {
		dir := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(dir, ".") || !strings.HasPrefix(dir, m.cfg.ClonesPrefix) {
			return nil, false
		}
		name := strings.TrimPrefix(dir, m.cfg.ClonesPrefix)
		if name == "" {
			return nil, false
		}
		return &Space{Name: name, Path: filepath.Join(m.cfg.ClonesDir, dir)}, true
	})

	for _, sp := range spaces {
		m.inspect(ctx, sp)
	}
	sort.Slice(spaces, func(i, j int) bool { return spaces[i].Name < spaces[j].Name })
	return spaces, nil
}

// Names returns the names of all spaces, for completion.
func (m *Manager) Names(ctx context.Context) []string {
	spaces, err := m.List(ctx)
	if err != nil {
		return nil
	}
	return lo.Map(spaces, func(sp *Space, _ int) string { return sp.Name })
}

func (m *Manager) inspect(ctx context.Context, sp *Space) {
	if info, err := os.Stat(sp.Path); err == nil {
		sp.Created = info.ModTime()
	}
	sp.Branch, sp.Status = status(ctx, sp.Path)
}

// status reports a space's branch and state. A directory without .git is
// missing its working tree, typically after an interrupted creation.
func status(ctx context.Context, path string) (string, Status) {
	if !fs.PathExists(filepath.Join(path, ".git")) {
		return "", StatusMissing
	}

	branch, err := git.CurrentBranch(ctx, path)
	if err != nil {
		return "", StatusMissing
	}
	if branch == "" {
		return detached, StatusDetached
	}

	if dirty, err := git.IsDirty(ctx, path); err == nil && dirty {
		return branch, StatusDirty
	}
	return branch, StatusOK
}

func annotate(err error, operation, name string) error {
	if err == nil {
		return nil
	}
	return errors.WithContext(errors.WithOperation(err, operation), "space", name)
}
