// SPDX-License-Identifier: MPL-2.0

// Package synth turns legalized backend settings into the two artifacts an
// emulator run needs: the configuration overrides handed to the emulator and
// the DOS batch file the guest executes. Stage writes both into a run's work
// directory together with the DOS test binary.
package synth
