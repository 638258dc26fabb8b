// SPDX-License-Identifier: MPL-2.0

package host

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dosemu2/cputest/internal/mode"
)

// DefaultKVMDevice is the KVM control device on Linux hosts.
const DefaultKVMDevice = "/dev/kvm"

var (
	// ErrUnsupported is the sentinel error wrapped by UnsupportedError.
	ErrUnsupported = errors.New("unsupported on this host")

	// x86Machines are the uname machine names of 32-bit x86 hosts, the only
	// hosts where the vm86() syscall exists.
	x86Machines = []string{"i386", "i486", "i586", "i686"}
)

type (
	// Host exposes the facts about the running machine the Gate needs.
	Host interface {
		// Machine returns the hardware name as reported by uname(2).
		Machine() (string, error)
		// Access returns nil if path can be opened for reading and writing.
		Access(path string) error
	}

	// Gate decides whether a backend pair can run on Host.
	Gate struct {
		Host Host
		// KVMDevice is the device node checked for KVM pairs.
		// Empty means DefaultKVMDevice.
		KVMDevice string
	}

	// UnsupportedError carries the one-line reason a pair cannot run here.
	UnsupportedError struct {
		Pair   mode.Pair
		Reason string
	}

	// Verdict is the gate decision for one pair.
	Verdict struct {
		Pair mode.Pair
		// Err is nil when the pair is runnable.
		Err error
	}
)

// NewGate creates a Gate for the given host and KVM device.
func NewGate(h Host, kvmDevice string) *Gate {
	return &Gate{Host: h, KVMDevice: kvmDevice}
}

// Check returns nil if p can run on the host, or an *UnsupportedError.
func (g *Gate) Check(p mode.Pair) error {
	if p.Uses(mode.KVM) {
		dev := g.kvmDevice()
		if err := g.Host.Access(dev); err != nil {
			return &UnsupportedError{Pair: p, Reason: fmt.Sprintf("requires KVM (%s not accessible)", dev)}
		}
	}

	if p.VM86 == mode.Native {
		machine, err := g.Host.Machine()
		if err != nil {
			return &UnsupportedError{Pair: p, Reason: fmt.Sprintf("native vm86() only on 32bit x86 (cannot identify host: %v)", err)}
		}
		if !IsX86_32(machine) {
			return &UnsupportedError{Pair: p, Reason: "native vm86() only on 32bit x86"}
		}
	}

	return nil
}

// Report returns the verdict for each pair, in order.
func (g *Gate) Report(pairs []mode.Pair) []Verdict {
	verdicts := make([]Verdict, 0, len(pairs))
	for _, p := range pairs {
		verdicts = append(verdicts, Verdict{Pair: p, Err: g.Check(p)})
	}
	return verdicts
}

func (g *Gate) kvmDevice() string {
	if g.KVMDevice == "" {
		return DefaultKVMDevice
	}
	return g.KVMDevice
}

// IsX86_32 reports whether machine names a 32-bit x86 CPU.
//
//nolint:revive // underscore keeps the architecture name readable
func IsX86_32(machine string) bool {
	return slices.Contains(x86Machines, machine)
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return e.Reason
}

// Unwrap returns ErrUnsupported for errors.Is() compatibility.
func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }
