// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/verify"
)

// DefaultTimeout is the wall-clock budget of one emulator run.
const DefaultTimeout = 20 * time.Second

var (
	// ErrTimeout is the sentinel error wrapped by TimeoutError.
	ErrTimeout = errors.New("emulator run timed out")

	// ErrMissingOutput is the sentinel error wrapped by MissingOutputError.
	ErrMissingOutput = errors.New("guest output missing")
)

type (
	// Driver runs the emulator under a time budget and reads back the
	// guest's capture file.
	Driver struct {
		Runtime Runtime
		// Timeout bounds each run. Zero means DefaultTimeout.
		Timeout time.Duration
		// Logger receives debug output. Nil uses log.Default().
		Logger *log.Logger
		// LockPath overrides the host-wide run lock file. Empty uses
		// $XDG_RUNTIME_DIR or the temp directory.
		LockPath string
	}

	// TimeoutError is returned when the emulator did not exit within the budget.
	// A partial capture file left behind is ignored.
	TimeoutError struct {
		Timeout time.Duration
		Elapsed time.Duration
	}

	// MissingOutputError is returned when the emulator exited but the guest
	// never wrote its capture file.
	MissingOutputError struct {
		Path     string
		ExitCode int
		Err      error
	}
)

// NewDriver creates a driver for rt with the given timeout.
func NewDriver(rt Runtime, timeout time.Duration, logger *log.Logger) *Driver {
	return &Driver{Runtime: rt, Timeout: timeout, Logger: logger}
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("emulator did not finish within %s", e.Timeout)
}

// Unwrap returns ErrTimeout so callers can use errors.Is for programmatic detection.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Error implements the error interface.
func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("%s not produced (emulator exit code %d): %v", filepath.Base(e.Path), e.ExitCode, e.Err)
}

// Unwrap returns ErrMissingOutput so callers can use errors.Is for programmatic detection.
func (e *MissingOutputError) Unwrap() error { return ErrMissingOutput }

// Execute runs inv and returns the lines of <inv.WorkDir>/<captureName>.
//
// Runs are serialized across processes on this host. The emulator's exit
// status is not judged here: a crash shows up as missing or wrong output.
func (d *Driver) Execute(ctx context.Context, inv *Invocation, captureName string) ([]string, *Result, error) {
	logger := d.logger()

	lock, err := d.acquireLock()
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("acquire emulator run lock").
			WithIssue(issue.RunLockFailedID).
			WithSuggestion("Remove a stale lock file from $XDG_RUNTIME_DIR").
			Wrap(err).
			BuildSetupError()
	}
	defer lock.Release()

	timeout := d.timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("running emulator", "runtime", d.Runtime.Name(), "timeout", timeout, "dir", inv.WorkDir)
	res := d.Runtime.Run(runCtx, inv)

	if res.TimedOut {
		// A caller cancellation is not a timeout of the emulator.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, res, ctxErr
		}
		return nil, res, &TimeoutError{Timeout: timeout, Elapsed: res.Duration}
	}
	if res.Error != nil {
		return nil, res, res.Error
	}
	logger.Debug("emulator exited", "exit_code", res.ExitCode, "duration", res.Duration)

	path := filepath.Join(inv.WorkDir, captureName)
	f, err := os.Open(path)
	if err != nil {
		return nil, res, &MissingOutputError{Path: path, ExitCode: int(res.ExitCode), Err: err}
	}
	defer f.Close()

	lines, err := verify.ReadLines(f)
	if err != nil {
		return nil, res, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, res, nil
}

func (d *Driver) acquireLock() (*runLock, error) {
	if d.LockPath != "" {
		return acquireRunLockAt(d.LockPath)
	}
	return acquireRunLock()
}

func (d *Driver) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

func (d *Driver) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}
