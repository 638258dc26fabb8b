// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"

	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/pkg/types"
)

// ptyDrainGrace bounds how long terminal output is drained after the
// emulator exits; a leftover child holding the terminal must not stall the run.
const ptyDrainGrace = 500 * time.Millisecond

// HostRuntime runs the emulator as a child process of this one.
type HostRuntime struct {
	// UsePTY attaches the emulator to a pseudo-terminal instead of plain pipes.
	// The emulator's terminal video mode expects a tty on stdin/stdout.
	UsePTY bool
	// Logger receives debug output. Nil uses log.Default().
	Logger *log.Logger
}

// NewHostRuntime creates a host runtime.
func NewHostRuntime(usePTY bool, logger *log.Logger) *HostRuntime {
	return &HostRuntime{UsePTY: usePTY, Logger: logger}
}

// Name returns the runtime name.
func (r *HostRuntime) Name() string {
	return string(RuntimeTypeHost)
}

// Available always returns true; a missing emulator binary surfaces from Run.
func (r *HostRuntime) Available() bool {
	return true
}

// Run starts inv and waits for it. If ctx ends first, the emulator's whole
// process group is killed and the result is marked TimedOut.
func (r *HostRuntime) Run(ctx context.Context, inv *Invocation) *Result {
	logger := r.logger()
	start := time.Now()

	logOut, closeLog, err := openLog(inv.LogFile)
	if err != nil {
		return NewErrorResult(1, issue.NewErrorContext().
			WithOperation("open emulator log").
			WithResource(inv.LogFile).
			Wrap(err).
			BuildSetupError())
	}
	defer closeLog()

	cmd := exec.Command(inv.Program, inv.Args...)
	cmd.Dir = inv.WorkDir
	cmd.Env = append(os.Environ(), inv.Env...)

	var drained <-chan struct{}
	if r.UsePTY {
		ptmx, startErr := pty.Start(cmd)
		if startErr != nil {
			return NewErrorResult(127, startError(inv.Program, startErr))
		}
		defer ptmx.Close()
		drained = drain(ptmx, logOut)
	} else {
		setProcessGroup(cmd)
		if inv.LogFile != "" {
			// A file, not a pipe: Wait must not depend on children closing it.
			cmd.Stdout = logOut
			cmd.Stderr = logOut
		}
		if startErr := cmd.Start(); startErr != nil {
			return NewErrorResult(127, startError(inv.Program, startErr))
		}
	}

	logger.Debug("emulator started", "pid", cmd.Process.Pid, "program", inv.Program, "dir", inv.WorkDir)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		timedOut = true
		logger.Debug("emulator deadline reached, killing process group", "pid", cmd.Process.Pid)
		if killErr := killProcessGroup(cmd.Process); killErr != nil {
			logger.Warn("failed to kill emulator process group", "pid", cmd.Process.Pid, "error", killErr)
		}
		waitErr = <-waitCh
	}

	if drained != nil {
		select {
		case <-drained:
		case <-time.After(ptyDrainGrace):
		}
	}

	elapsed := time.Since(start)
	if timedOut {
		return NewTimeoutResult(ctx.Err(), elapsed)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return NewExitCodeResult(types.ExitCode(exitErr.ExitCode()), elapsed)
		}
		return &Result{ExitCode: 1, Error: waitErr, Duration: elapsed}
	}
	return NewExitCodeResult(0, elapsed)
}

func (r *HostRuntime) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// drain copies terminal output to w until the terminal is closed.
func drain(ptmx *os.File, w io.Writer) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Reading the master returns EIO once every slave fd is closed.
		_, _ = io.Copy(w, ptmx)
	}()
	return done
}

// openLog opens path for the emulator's terminal output, or discards output
// when path is empty.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// startError classifies a failure to start the emulator as a setup error.
func startError(program string, err error) error {
	return issue.NewErrorContext().
		WithOperation("start emulator").
		WithIssue(issue.EmulatorNotFoundID).
		WithResource(program).
		WithSuggestion("Build the emulator or set emulator.binary in the configuration").
		Wrap(err).
		BuildSetupError()
}
