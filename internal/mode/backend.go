// SPDX-License-Identifier: MPL-2.0

package mode

import (
	"errors"
	"fmt"
)

const (
	// Native runs guest code directly on the host CPU (vm86() syscall or native DPMI).
	Native Backend = iota + 1
	// KVM runs guest code under hardware-assisted virtualization.
	KVM
	// JIT runs guest code through the just-in-time translator.
	JIT
	// Sim runs guest code in the fully simulated CPU.
	Sim
)

const (
	// ConfigNative is the emulator configuration label for native execution.
	ConfigNative ConfigMode = "native"
	// ConfigKVM is the emulator configuration label for KVM execution.
	ConfigKVM ConfigMode = "kvm"
	// ConfigEmulated is the emulator configuration label shared by JIT and simulation.
	ConfigEmulated ConfigMode = "emulated"
)

var (
	// ErrInvalidBackend is the sentinel error wrapped by InvalidBackendError.
	ErrInvalidBackend = errors.New("invalid CPU backend")

	backendLabels = map[Backend]string{
		Native: "native",
		KVM:    "kvm",
		JIT:    "jit",
		Sim:    "sim",
	}
)

type (
	// Backend is a CPU execution backend. The zero value is invalid.
	Backend uint8

	// ConfigMode is a backend as spelled in the emulator's configuration keys.
	ConfigMode string

	// InvalidBackendError is returned when a backend label or value is not recognized.
	// It wraps ErrInvalidBackend for errors.Is() compatibility.
	InvalidBackendError struct {
		Label string
	}
)

// Backends returns every valid backend in declaration order.
func Backends() []Backend {
	return []Backend{Native, KVM, JIT, Sim}
}

// ParseBackend converts a label ("native", "kvm", "jit", "sim") into a Backend.
func ParseBackend(label string) (Backend, error) {
	for _, b := range Backends() {
		if backendLabels[b] == label {
			return b, nil
		}
	}
	return 0, &InvalidBackendError{Label: label}
}

// String returns the backend label.
func (b Backend) String() string {
	if label, ok := backendLabels[b]; ok {
		return label
	}
	return fmt.Sprintf("Backend(%d)", uint8(b))
}

// IsValid returns whether the Backend is one of the declared constants,
// and a list of validation errors if it is not.
func (b Backend) IsValid() (bool, []error) {
	if _, ok := backendLabels[b]; !ok {
		return false, []error{&InvalidBackendError{Label: b.String()}}
	}
	return true, nil
}

// ConfigMode returns the configuration label the emulator expects for b.
// JIT and Sim both collapse to ConfigEmulated.
func (b Backend) ConfigMode() ConfigMode {
	switch b {
	case Native:
		return ConfigNative
	case KVM:
		return ConfigKVM
	case JIT, Sim:
		return ConfigEmulated
	default:
		panic(fmt.Sprintf("mode: no config mode for %s", b))
	}
}

// String returns the configuration label.
func (m ConfigMode) String() string { return string(m) }

// Error implements the error interface.
func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("invalid CPU backend %q (expected one of: native, kvm, jit, sim)", e.Label)
}

// Unwrap returns ErrInvalidBackend for errors.Is() compatibility.
func (e *InvalidBackendError) Unwrap() error { return ErrInvalidBackend }
