// SPDX-License-Identifier: MPL-2.0

// Package matrix enumerates the CPU backend combinations under test and turns
// them into suite cases.
package matrix

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dosemu2/cputest/internal/mode"
	"github.com/dosemu2/cputest/internal/suite"
	"github.com/dosemu2/cputest/pkg/types"
)

// Tag is carried by every case built here.
const Tag = "cputest"

// Factory binds the procedure that runs one combination.
type Factory func(p mode.Pair, s mode.Settings) suite.Procedure

// pairs is ordered by DPMI backend, then vm86 backend. (jit, sim) and
// (sim, jit) are absent: the emulator cannot run both at once.
var pairs = []mode.Pair{
	{VM86: mode.Native, DPMI: mode.Native},
	{VM86: mode.KVM, DPMI: mode.Native},
	{VM86: mode.JIT, DPMI: mode.Native},
	{VM86: mode.Sim, DPMI: mode.Native},

	{VM86: mode.KVM, DPMI: mode.KVM},
	{VM86: mode.JIT, DPMI: mode.KVM},
	{VM86: mode.Sim, DPMI: mode.KVM},

	{VM86: mode.KVM, DPMI: mode.JIT},
	{VM86: mode.JIT, DPMI: mode.JIT},

	{VM86: mode.KVM, DPMI: mode.Sim},
	{VM86: mode.Sim, DPMI: mode.Sim},
}

// Pairs returns the combinations under test, in execution order.
func Pairs() []mode.Pair {
	return slices.Clone(pairs)
}

// Name returns the case name of p, e.g. "cpu_method_kvm_native".
func Name(p mode.Pair) string {
	return fmt.Sprintf("cpu_method_%s_%s", p.VM86, p.DPMI)
}

// Describe returns the one-line description of p,
// e.g. "CPU KVM vm86 + simulated DPMI".
func Describe(p mode.Pair) types.DescriptionText {
	var vm86 string
	switch p.VM86 {
	case mode.Native:
		vm86 = "native vm86(i386 only)"
	case mode.Sim:
		vm86 = "simulated vm86"
	default:
		vm86 = strings.ToUpper(p.VM86.String()) + " vm86"
	}

	var dpmi string
	switch p.DPMI {
	case mode.Native:
		dpmi = "native DPMI"
	case mode.Sim:
		dpmi = "simulated DPMI"
	default:
		dpmi = strings.ToUpper(p.DPMI.String()) + " DPMI"
	}

	return types.DescriptionText(fmt.Sprintf("CPU %s + %s", vm86, dpmi))
}

// Cases builds one case per pair, in order. It panics if a pair is illegal,
// so a bad matrix entry fails before anything runs.
func Cases(ps []mode.Pair, factory Factory) []suite.Case {
	cases := make([]suite.Case, 0, len(ps))
	for _, p := range ps {
		s := mode.MustLegalize(p)
		cases = append(cases, suite.Case{
			Name:        Name(p),
			Description: Describe(p),
			Tags:        []string{Tag},
			Run:         factory(p, s),
		})
	}
	return cases
}

// Register adds the full matrix to s.
func Register(s *suite.Suite, factory Factory) error {
	return s.Register(Cases(Pairs(), factory)...)
}
