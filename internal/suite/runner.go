// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/pkg/types"
)

type (
	// Runner executes cases one after another.
	Runner struct {
		// WorkRoot is the parent of the per-case work directories.
		// Empty uses the OS temp directory.
		WorkRoot string
		// KeepWorkDirs leaves the work directories of non-passing cases in place.
		KeepWorkDirs bool
		// FailFast stops after the first failure or setup error.
		FailFast bool
		// OnResult is called after each case. May be nil.
		OnResult func(Record)
		// Logger receives debug output. Nil uses log.Default().
		Logger *log.Logger
	}

	// Record is the outcome of one executed case.
	Record struct {
		Case     Case
		Outcome  Outcome
		Duration time.Duration
		// WorkDir is set when the work directory was kept.
		WorkDir string
	}

	// Summary totals a run.
	Summary struct {
		Records []Record
		Passed  int
		Failed  int
		Skipped int
		Errors  int
		// NotRun counts cases left out by FailFast or cancellation.
		NotRun int
	}
)

// Run executes cases in order. It stops early when ctx is done or, with
// FailFast, after the first non-passing, non-skipped case.
func (r *Runner) Run(ctx context.Context, cases []Case) *Summary {
	logger := r.logger()
	sum := &Summary{}

	for i, c := range cases {
		if ctx.Err() != nil || (r.FailFast && (sum.Failed > 0 || sum.Errors > 0)) {
			sum.NotRun = len(cases) - i
			logger.Debug("stopping early", "not_run", sum.NotRun)
			break
		}

		rec := r.runOne(ctx, c)
		sum.add(rec)
		logger.Debug("case finished", "name", c.Name, "outcome", rec.Outcome.Kind, "duration", rec.Duration)
		if r.OnResult != nil {
			r.OnResult(rec)
		}
	}
	return sum
}

func (r *Runner) runOne(ctx context.Context, c Case) Record {
	rec := Record{Case: c}

	workDir, err := os.MkdirTemp(r.WorkRoot, c.Name+"-")
	if err != nil {
		rec.Outcome = Errored(issue.NewErrorContext().
			WithOperation("create work directory").
			WithResource(r.WorkRoot).
			Wrap(err).
			BuildSetupError())
		return rec
	}

	start := time.Now()
	rec.Outcome = c.Execute(ctx, &Env{WorkDir: workDir})
	rec.Duration = time.Since(start)

	if r.KeepWorkDirs && rec.Outcome.Kind != Pass {
		rec.WorkDir = workDir
		return rec
	}
	if err := os.RemoveAll(workDir); err != nil {
		r.logger().Warn("failed to remove work directory", "dir", workDir, "error", err)
	}
	return rec
}

// Execute runs the case's procedure in env. A panic becomes a setup error
// so one broken case does not take the whole run down.
func (c Case) Execute(ctx context.Context, env *Env) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Errored(fmt.Errorf("case %s panicked: %v", c.Name, rec))
		}
	}()
	return c.Run(ctx, env)
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func (s *Summary) add(rec Record) {
	s.Records = append(s.Records, rec)
	switch rec.Outcome.Kind {
	case Pass:
		s.Passed++
	case Skip:
		s.Skipped++
	case Fail:
		s.Failed++
	default:
		s.Errors++
	}
}

// ExitCode maps the summary onto the cputest exit status. Setup errors
// outrank failures.
func (s *Summary) ExitCode() types.ExitCode {
	switch {
	case s.Errors > 0:
		return types.ExitSetupError
	case s.Failed > 0:
		return types.ExitFailed
	default:
		return types.ExitPassed
	}
}

// String returns the one-line totals.
func (s *Summary) String() string {
	line := fmt.Sprintf("%d passed, %d failed, %d skipped, %d errors", s.Passed, s.Failed, s.Skipped, s.Errors)
	if s.NotRun > 0 {
		line += fmt.Sprintf(", %d not run", s.NotRun)
	}
	return line
}
