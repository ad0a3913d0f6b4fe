//go:build windows

package filelock

import (
	"os"

	"golang.org/x/sys/windows"
)

var errWouldBlock = windows.ERROR_LOCK_VIOLATION

// The locked range starts past any PID content so readers are not blocked.
const lockOffsetHigh = 1

func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	ol.OffsetHigh = lockOffsetHigh
	return windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, ol)
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	ol.OffsetHigh = lockOffsetHigh
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
