// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"errors"

	"github.com/dosemu2/cputest/internal/host"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/runtime"
	"github.com/dosemu2/cputest/internal/verify"
)

// Outcome kinds.
const (
	Pass Kind = iota + 1
	Skip
	Fail
	SetupError
)

type (
	// Kind classifies the result of one case.
	Kind uint8

	// Outcome is the result of one case. Exactly one of Reason (Skip),
	// Diagnostic (Fail) or Cause (SetupError) is meaningful.
	Outcome struct {
		Kind       Kind
		Reason     string
		Diagnostic string
		Cause      error
	}
)

// String returns the upper-case label printed by the runner.
func (k Kind) String() string {
	switch k {
	case Pass:
		return "PASS"
	case Skip:
		return "SKIP"
	case Fail:
		return "FAIL"
	case SetupError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Passed returns a passing outcome.
func Passed() Outcome { return Outcome{Kind: Pass} }

// Skipped returns a skip outcome with the given reason.
func Skipped(reason string) Outcome { return Outcome{Kind: Skip, Reason: reason} }

// Failed returns a failing outcome with a human-readable diagnostic.
func Failed(diagnostic string) Outcome { return Outcome{Kind: Fail, Diagnostic: diagnostic} }

// Errored returns a setup error outcome.
func Errored(cause error) Outcome { return Outcome{Kind: SetupError, Cause: cause} }

// Message returns the text that explains a non-passing outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case Skip:
		return o.Reason
	case Fail:
		return o.Diagnostic
	case SetupError:
		if o.Cause != nil {
			return o.Cause.Error()
		}
	}
	return ""
}

// Classify maps an error from a case procedure onto an Outcome. nil passes;
// an unsupported host skips; timeouts, missing output and output mismatches
// fail; anything else, including a missing reference file, is a setup error.
func Classify(err error) Outcome {
	if err == nil {
		return Passed()
	}

	var unsupported *host.UnsupportedError
	if errors.As(err, &unsupported) {
		return Skipped(unsupported.Reason)
	}
	if errors.Is(err, host.ErrUnsupported) {
		return Skipped(err.Error())
	}

	// Setup errors take precedence: a failure to even start is never a test failure.
	if errors.Is(err, issue.ErrSetup) {
		return Errored(err)
	}

	var mismatch *verify.Mismatch
	if errors.As(err, &mismatch) ||
		errors.Is(err, runtime.ErrTimeout) ||
		errors.Is(err, runtime.ErrMissingOutput) {
		return Failed(err.Error())
	}
	return Errored(err)
}
