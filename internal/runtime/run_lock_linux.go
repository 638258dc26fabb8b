// SPDX-License-Identifier: MPL-2.0

//go:build linux

package runtime

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockFileName is the well-known lock file shared by all cputest processes.
// An orphaned zero-byte lock file is harmless: the kernel drops the flock
// when the descriptor is closed, including on crash.
const lockFileName = "cputest-emulator.lock"

// runLock holds an exclusive flock that serializes emulator runs across
// processes, so two suites started on one host (parallel "go test" packages,
// a CLI run next to a test run) never contend for /dev/kvm or the terminal.
type runLock struct {
	file *os.File
}

// acquireRunLock blocks until the host-wide run lock is held.
func acquireRunLock() (*runLock, error) {
	return acquireRunLockAt(lockFilePath())
}

// acquireRunLockAt opens (or creates) the lock file at path and takes a
// blocking exclusive flock on it.
func acquireRunLockAt(path string) (*runLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &runLock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *runLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}

// lockFilePath prefers $XDG_RUNTIME_DIR (per-user tmpfs) and falls back to
// os.TempDir().
func lockFilePath() string {
	return lockFilePathWith(os.Getenv)
}

// lockFilePathWith returns the lock file path using the provided getenv function.
func lockFilePathWith(getenv func(string) string) string {
	dir := getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, lockFileName)
}
