// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package host

import (
	"errors"
	"runtime"
)

// errNoDevice is returned by Access on platforms without KVM.
var errNoDevice = errors.New("virtualization devices are only available on Linux")

type systemHost struct{}

// System returns the Host describing the running machine.
func System() Host {
	return systemHost{}
}

// Machine maps GOARCH onto the uname machine vocabulary used by the gate.
func (systemHost) Machine() (string, error) {
	if runtime.GOARCH == "386" {
		return "i686", nil
	}
	return runtime.GOARCH, nil
}

func (systemHost) Access(string) error {
	return errNoDevice
}
