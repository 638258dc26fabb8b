// SPDX-License-Identifier: MPL-2.0

// Package mode defines the CPU execution backends selectable for the emulator's
// vm86 and DPMI paths, and legalizes a (vm86, DPMI) pair into the settings the
// emulator's configuration surface accepts.
//
// Backends form a closed enumeration. JIT and simulated backends both map to the
// "emulated" configuration label; the distinction between them is carried by the
// separate CPU-emulation flag in Settings.
package mode
