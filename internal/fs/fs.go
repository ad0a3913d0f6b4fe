package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// Strict permissions (gosec-compliant defaults)
	DirStrict  = 0o750 // rwxr-x---
	FileStrict = 0o600 // rw-------

	// Git-compatible permissions
	DirGit  = 0o755 // rwxr-xr-x
	FileGit = 0o644 // rw-r--r--
)

// DirectoryExists checks if a directory exists
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsEmptyDir checks if a directory is empty
func IsEmptyDir(path string) (bool, error) {
	f, err := os.Open(path) // nolint:gosec // Controlled path inside the clones dir
	if err != nil {
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()

	_, err = f.Readdirnames(1)
	if err == nil {
		return false, nil
	}

	if errors.Is(err, io.EOF) {
		return true, nil
	}

	return false, err
}

// PathExists checks if any path exists, without following a final symlink
func PathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CopyFile copies content from src to dst using streaming I/O, replacing dst
// and setting the given permissions.
func CopyFile(src, dst string, perm os.FileMode) error {
	return copyFile(src, dst, perm, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

// CopyFileExclusive copies content from src to dst, failing if dst already exists.
// Returns os.ErrExist if destination file exists. This avoids TOCTOU races.
func CopyFileExclusive(src, dst string, perm os.FileMode) error {
	return copyFile(src, dst, perm, os.O_CREATE|os.O_EXCL|os.O_WRONLY)
}

func copyFile(src, dst string, perm os.FileMode, flag int) error {
	in, err := os.Open(src) // nolint:gosec // Controlled path from the copy plan
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, flag, perm) // nolint:gosec // Controlled path inside a space
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst) // Clean up partial/corrupt file
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile applies the umask and leaves an existing file's mode alone
	return os.Chmod(dst, perm)
}

// CopySymlink recreates the symlink src at dst with the same target. An
// existing dst is replaced only when overwrite is set, otherwise os.ErrExist
// is returned.
func CopySymlink(src, dst string, overwrite bool) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("failed to read symlink: %w", err)
	}

	if PathExists(dst) {
		if !overwrite {
			return os.ErrExist
		}
		if err := os.Remove(dst); err != nil {
			return err
		}
	}

	return os.Symlink(target, dst)
}

// WriteFileAtomic writes data to a file atomically by writing to a temp file then renaming
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// PathsEqual compares two cleaned paths for equality.
// On Windows, comparison is case-insensitive since the filesystem is case-insensitive.
func PathsEqual(path1, path2 string) bool {
	clean1 := filepath.Clean(path1)
	clean2 := filepath.Clean(path2)

	if runtime.GOOS == "windows" {
		return strings.EqualFold(clean1, clean2)
	}
	return clean1 == clean2
}

// PathHasPrefix checks if path is strictly below prefix, accounting for path separators.
// On Windows, comparison is case-insensitive.
func PathHasPrefix(path, prefix string) bool {
	cleanPath := filepath.Clean(path)
	cleanPrefix := filepath.Clean(prefix) + string(filepath.Separator)

	if runtime.GOOS == "windows" {
		return strings.HasPrefix(strings.ToLower(cleanPath), strings.ToLower(cleanPrefix))
	}
	return strings.HasPrefix(cleanPath, cleanPrefix)
}
