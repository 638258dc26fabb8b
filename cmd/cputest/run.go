// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosemu2/cputest/internal/app/conformance"
	"github.com/dosemu2/cputest/internal/app/execute"
	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/host"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/report"
	"github.com/dosemu2/cputest/internal/runtime"
	"github.com/dosemu2/cputest/internal/suite"
	"github.com/dosemu2/cputest/internal/watch"
	"github.com/dosemu2/cputest/pkg/types"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	tags       []string
	failFast   bool
	dryRun     bool
	keep       bool
	reportPath string
	runtime    string
	timeout    time.Duration
	watch      bool
}

func newRunCommand(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [pattern...]",
		Short: "Run the backend pairs",
		Long: `Run the CPU test program under each selected backend pair.

Patterns select cases by name using shell globs, e.g. 'cpu_method_kvm_*'.
Without patterns every pair runs. Pairs the host cannot run are skipped.

Exit status is 0 when every selected case passed or was skipped, 1 when a
case failed and 2 when a case could not be set up.`,
		Example: `  cputest run
  cputest run cpu_method_jit_jit cpu_method_sim_sim
  cputest run --keep --report report.toml
  cputest run --dry-run 'cpu_method_*_native'
  cputest run --watch cpu_method_kvm_kvm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if opts.watch {
				return watchSuite(cmd.Context(), app, cmd.OutOrStdout(), cfg, args, opts)
			}
			return runSuite(cmd.Context(), app, cmd.OutOrStdout(), cfg, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "run only cases carrying any of the given tags")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop after the first failure or setup error")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the configuration, batch file and command of each case without running it")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "keep the work directories of cases that did not pass")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write a TOML report to this file")
	cmd.Flags().StringVar(&opts.runtime, "runtime", "", "emulator runtime: host or container (overrides the config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "time budget of each emulator run (overrides the config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "run again whenever the emulator, the test program or the reference output changes")
	cmd.MarkFlagsMutuallyExclusive("watch", "dry-run")
	cmd.MarkFlagsMutuallyExclusive("watch", "report")
	return cmd
}

func runSuite(ctx context.Context, app *App, w io.Writer, cfg *config.Config, patterns []string, opts runOptions) error {
	logger := app.logger
	timeout := cfg.Timeout()
	switch {
	case opts.timeout < 0:
		return &ExitError{Code: types.ExitSetupError, Err: fmt.Errorf("--timeout must be positive, got %s", opts.timeout)}
	case opts.timeout > 0:
		timeout = opts.timeout
	}

	var rt runtime.Runtime
	runtimeName := "dry-run"
	if !opts.dryRun {
		var err error
		rt, err = execute.ResolveRuntime(execute.BuildRegistry(cfg, logger), config.RuntimeKind(opts.runtime), cfg)
		if err != nil {
			app.renderIssue(err, cfg.UI.ColorScheme)
			return &ExitError{Code: types.ExitSetupError, Err: err}
		}
		runtimeName = rt.Name()
	}

	o := conformance.New(cfg,
		host.NewGate(app.Host, cfg.Host.KVMDevice),
		runtime.NewDriver(rt, timeout, logger),
		logger)
	if err := o.LoadReference(); err != nil {
		logger.Warn("reference output unavailable; runnable cases will report a setup error", "error", err)
	}
	if opts.dryRun {
		o.SetDryRun(w)
	}

	s, err := o.Suite()
	if err != nil {
		return err
	}
	cases, err := s.Select(suite.Filter{Tags: opts.tags, Patterns: patterns})
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return &ExitError{Code: types.ExitSetupError, Err: fmt.Errorf("no case matches %s", strings.Join(patterns, " "))}
	}

	workRoot := ""
	if cfg.WorkDir != "" {
		workRoot = cfg.WorkDir
		if err := os.MkdirAll(workRoot, 0o755); err != nil {
			return &ExitError{Code: types.ExitSetupError, Err: fmt.Errorf("create work directory: %w", err)}
		}
	}

	var helpFor error
	started := time.Now()
	runner := &suite.Runner{
		WorkRoot:     workRoot,
		KeepWorkDirs: opts.keep,
		FailFast:     opts.failFast,
		Logger:       logger,
		OnResult: func(rec suite.Record) {
			if !opts.dryRun {
				printRecord(w, rec, app.verbose)
			}
			if rec.Outcome.Kind == suite.SetupError && helpFor == nil && issue.IssueOf(rec.Outcome.Cause) != nil {
				helpFor = rec.Outcome.Cause
			}
		},
	}
	sum := runner.Run(ctx, cases)
	if !opts.dryRun {
		printSummary(w, sum)
	}

	if helpFor != nil {
		app.renderIssue(helpFor, cfg.UI.ColorScheme)
	}

	if opts.reportPath != "" {
		machine, _ := app.Host.Machine()
		rep := report.New(started, machine, runtimeName)
		rep.Complete(sum, time.Now())
		if err := rep.WriteFile(opts.reportPath); err != nil {
			return &ExitError{Code: types.ExitSetupError, Err: err}
		}
		logger.Debug("report written", "path", opts.reportPath, "id", rep.ID)
	}

	if code := sum.ExitCode(); code != types.ExitPassed {
		return &ExitError{Code: code}
	}
	return nil
}

// watchSuite runs the selection once and again after each change to the
// emulator binary, the DOS test program or the reference output, until ctx
// is cancelled. The exit status is that of the last run.
func watchSuite(ctx context.Context, app *App, w io.Writer, cfg *config.Config, patterns []string, opts runOptions) error {
	var (
		mu   sync.Mutex
		last error
	)
	rerun := func(ctx context.Context) error {
		err := runSuite(ctx, app, w, cfg, patterns, opts)
		mu.Lock()
		last = err
		mu.Unlock()

		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return nil
		}
		return err
	}

	if err := rerun(ctx); err != nil {
		return err
	}

	watcher, err := watch.New(watch.Config{
		Files: []string{
			cfg.Resolve(cfg.Emulator.Binary),
			cfg.Resolve(cfg.Guest.TestBinary),
			cfg.Resolve(cfg.Guest.Reference),
		},
		Stderr: app.stderr,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(w)
			fmt.Fprintln(w, TitleStyle.Render("changed: "+strings.Join(changed, ", ")))
			return rerun(ctx)
		},
	})
	if err != nil {
		return &ExitError{Code: types.ExitSetupError, Err: err}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("watching "+strings.Join(watcher.Files(), ", ")+" (interrupt to stop)"))
	if err := watcher.Run(ctx); err != nil {
		return &ExitError{Code: types.ExitSetupError, Err: err}
	}

	mu.Lock()
	defer mu.Unlock()
	return last
}

// printRecord writes one result line, followed by the diagnostic of a
// non-passing case.
func printRecord(w io.Writer, rec suite.Record, verbose bool) {
	line := outcomeLabel(rec.Outcome.Kind) + " " + CmdStyle.Render(rec.Case.Name)
	switch rec.Outcome.Kind {
	case suite.Pass:
		line += " " + SubtitleStyle.Render(fmt.Sprintf("(%s)", rec.Duration.Round(10*time.Millisecond)))
	case suite.Skip:
		line += " " + SubtitleStyle.Render(rec.Outcome.Reason)
	}
	fmt.Fprintln(w, line)

	var detail string
	switch rec.Outcome.Kind {
	case suite.Fail:
		detail = rec.Outcome.Diagnostic
	case suite.SetupError:
		detail = formatErrorForDisplay(rec.Outcome.Cause, verbose)
	}
	if detail != "" {
		fmt.Fprintln(w, VerboseStyle.Render(indent(strings.TrimRight(detail, "\n"), "       ")))
	}
	if rec.WorkDir != "" {
		fmt.Fprintf(w, "       %s %s\n", SubtitleStyle.Render("kept"), rec.WorkDir)
	}
}

func printSummary(w io.Writer, sum *suite.Summary) {
	style := SuccessStyle
	switch sum.ExitCode() {
	case types.ExitFailed, types.ExitSetupError:
		style = ErrorStyle
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, style.Render(sum.String()))
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
