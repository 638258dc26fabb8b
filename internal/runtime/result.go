// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"time"

	"github.com/dosemu2/cputest/pkg/types"
)

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code types.ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewTimeoutResult creates a Result for a run stopped at its deadline.
func NewTimeoutResult(err error, elapsed time.Duration) *Result {
	return &Result{ExitCode: -1, Error: err, TimedOut: true, Duration: elapsed}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code types.ExitCode, elapsed time.Duration) *Result {
	return &Result{ExitCode: code, Duration: elapsed}
}
