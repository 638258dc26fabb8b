// SPDX-License-Identifier: MPL-2.0

//go:build linux

package host

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type systemHost struct{}

// System returns the Host describing the running machine.
func System() Host {
	return systemHost{}
}

// Machine returns the uname(2) machine field (e.g. "i686", "x86_64").
func (systemHost) Machine() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uts.Machine[:]), nil
}

// Access checks read/write permission with access(2).
func (systemHost) Access(path string) error {
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("access %s: %w", path, err)
	}
	return nil
}
