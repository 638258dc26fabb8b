// SPDX-License-Identifier: MPL-2.0

package issue

import "errors"

// ErrSetup marks errors caused by a broken environment or build (missing test
// binary, missing emulator) rather than by the behaviour under test.
var ErrSetup = errors.New("setup error")

// SetupError is an ActionableError raised while preparing a run.
// errors.Is(err, ErrSetup) and errors.As(err, **ActionableError) both match.
type SetupError struct {
	Cause *ActionableError
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	return e.Cause.Error()
}

// Unwrap returns both ErrSetup and the underlying ActionableError.
func (e *SetupError) Unwrap() []error {
	return []error{ErrSetup, e.Cause}
}

// BuildSetupError creates a SetupError from the context.
// Returns nil if no operation is set.
func (c *ErrorContext) BuildSetupError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return &SetupError{Cause: ae}
}
