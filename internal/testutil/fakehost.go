// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"io/fs"
	"slices"
)

// FakeHost describes a machine for capability tests without touching the
// real system.
type FakeHost struct {
	// MachineName is returned by Machine.
	MachineName string
	// MachineErr, when set, is returned by Machine instead.
	MachineErr error
	// Devices lists the paths Access reports as read/write accessible.
	Devices []string
	// AccessErr is returned for paths not in Devices. Defaults to fs.ErrNotExist.
	AccessErr error
}

// Machine returns the configured machine name.
func (h *FakeHost) Machine() (string, error) {
	if h.MachineErr != nil {
		return "", h.MachineErr
	}
	return h.MachineName, nil
}

// Access succeeds only for paths listed in Devices.
func (h *FakeHost) Access(path string) error {
	if slices.Contains(h.Devices, path) {
		return nil
	}
	if h.AccessErr != nil {
		return fmt.Errorf("access %s: %w", path, h.AccessErr)
	}
	return fmt.Errorf("access %s: %w", path, fs.ErrNotExist)
}
