package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sqve/spaces/internal/fs"
)

// StateFile is written inside the mirror directory after every clone or fetch.
const StateFile = "spaces-mirror.toml"

type state struct {
	Origin    string    `toml:"origin"`
	Identity  string    `toml:"identity"`
	LastFetch time.Time `toml:"last_fetch"`
	LastError string    `toml:"last_error,omitempty"`
}

func statePath(mirrorPath string) string {
	return filepath.Join(mirrorPath, StateFile)
}

// loadState returns the zero state when the file does not exist.
func loadState(mirrorPath string) (state, error) {
	var st state
	content, err := os.ReadFile(statePath(mirrorPath)) //nolint:gosec // path under the mirrors root
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("failed to read mirror state: %w", err)
	}
	if err := toml.Unmarshal(content, &st); err != nil {
		return st, fmt.Errorf("failed to parse %s: %w", statePath(mirrorPath), err)
	}
	return st, nil
}

func saveState(mirrorPath string, st state) error {
	content, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode mirror state: %w", err)
	}
	return fs.WriteFileAtomic(statePath(mirrorPath), content, fs.FileGit)
}
