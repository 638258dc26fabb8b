// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package runtime

// runLock is the non-Linux stub; runs are only serialized within the process.
type runLock struct{}

func acquireRunLock() (*runLock, error) {
	return &runLock{}, nil
}

func acquireRunLockAt(string) (*runLock, error) {
	return &runLock{}, nil
}

// Release is a no-op on non-Linux platforms.
func (l *runLock) Release() {}
