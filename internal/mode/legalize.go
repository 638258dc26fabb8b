// SPDX-License-Identifier: MPL-2.0

package mode

import (
	"errors"
	"fmt"
)

// ErrIllegalPair is the sentinel error wrapped by IllegalPairError.
var ErrIllegalPair = errors.New("illegal CPU backend combination")

type (
	// Pair selects the backend for the vm86 path and the DPMI path of one run.
	Pair struct {
		VM86 Backend
		DPMI Backend
	}

	// Settings is the legalized form of a Pair, expressed in the emulator's
	// configuration vocabulary.
	Settings struct {
		// VM86 is the value for the emulator's vm86 backend key.
		VM86 ConfigMode
		// DPMI is the value for the emulator's DPMI backend key.
		DPMI ConfigMode
		// CPUEmu enables the simulated CPU globally. True when either side is Sim.
		CPUEmu bool
	}

	// IllegalPairError is returned by Legalize for combinations the emulator
	// cannot run. Reaching it from the fixed matrix is a programming error.
	IllegalPairError struct {
		Pair Pair
	}
)

// NewPair creates a Pair.
func NewPair(vm86, dpmi Backend) Pair {
	return Pair{VM86: vm86, DPMI: dpmi}
}

// ParsePair builds a Pair from two backend labels.
func ParsePair(vm86, dpmi string) (Pair, error) {
	v, err := ParseBackend(vm86)
	if err != nil {
		return Pair{}, fmt.Errorf("vm86: %w", err)
	}
	d, err := ParseBackend(dpmi)
	if err != nil {
		return Pair{}, fmt.Errorf("dpmi: %w", err)
	}
	return NewPair(v, d), nil
}

// String returns "<vm86>/<dpmi>".
func (p Pair) String() string {
	return p.VM86.String() + "/" + p.DPMI.String()
}

// Uses reports whether either side of the pair selects b.
func (p Pair) Uses(b Backend) bool {
	return p.VM86 == b || p.DPMI == b
}

// Legalize validates p and derives its emulator Settings.
//
// JIT and Sim are alternative implementations of the same CPU emulator and
// cannot be mixed across the vm86 and DPMI paths.
func Legalize(p Pair) (Settings, error) {
	for _, b := range []Backend{p.VM86, p.DPMI} {
		if ok, errs := b.IsValid(); !ok {
			return Settings{}, errors.Join(errs...)
		}
	}

	if (p.VM86 == JIT && p.DPMI == Sim) || (p.VM86 == Sim && p.DPMI == JIT) {
		return Settings{}, &IllegalPairError{Pair: p}
	}

	return Settings{
		VM86:   p.VM86.ConfigMode(),
		DPMI:   p.DPMI.ConfigMode(),
		CPUEmu: p.Uses(Sim),
	}, nil
}

// MustLegalize is like Legalize but panics on an illegal pair.
func MustLegalize(p Pair) Settings {
	s, err := Legalize(p)
	if err != nil {
		panic(err)
	}
	return s
}

// Error implements the error interface.
func (e *IllegalPairError) Error() string {
	return fmt.Sprintf("invalid JIT/SIM combination: vm86=%s dpmi=%s", e.Pair.VM86, e.Pair.DPMI)
}

// Unwrap returns ErrIllegalPair for errors.Is() compatibility.
func (e *IllegalPairError) Unwrap() error { return ErrIllegalPair }
