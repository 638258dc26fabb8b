// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Exit statuses of the cputest command.
const (
	// ExitPassed means every selected case passed or was skipped.
	ExitPassed ExitCode = 0
	// ExitFailed means at least one case failed.
	ExitFailed ExitCode = 1
	// ExitSetupError means at least one case could not be run because of a
	// broken environment or build.
	ExitSetupError ExitCode = 2
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status, either the emulator's or cputest's own.
	// -1 is used for a process that was killed before it could report one.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true for exit status 0.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsTransient returns true for the container engine's own failure codes
// (125: engine error, 126: entrypoint not executable).
func (c ExitCode) IsTransient() bool { return c == 125 || c == 126 }

// Signal returns the signal number for shell-style statuses 129-255,
// or 0 if the status does not encode a signal.
func (c ExitCode) Signal() int {
	if c > 128 && c <= 255 {
		return int(c) - 128
	}
	return 0
}

// String returns the decimal representation.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
