// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* file helpers it provides FakeHost, an in-memory
// implementation of the capability gate's host facts, and WriteFakeEmulator,
// which writes a shell script that stands in for the emulator binary.
package testutil
