// SPDX-License-Identifier: MPL-2.0

// Package conformance binds the CPU backend matrix to the emulator: for one
// backend pair it legalizes the pair, checks the host can run it, stages the
// work directory, runs the emulator and compares the guest's output with the
// checked-in reference.
package conformance
