// SPDX-License-Identifier: MPL-2.0

package conformance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/host"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/matrix"
	"github.com/dosemu2/cputest/internal/mode"
	"github.com/dosemu2/cputest/internal/runtime"
	"github.com/dosemu2/cputest/internal/suite"
	"github.com/dosemu2/cputest/internal/synth"
	"github.com/dosemu2/cputest/internal/verify"
)

// SuiteName names the suite built by Suite.
const SuiteName = "cpu"

// errReferenceNotLoaded guards against running before LoadReference.
var errReferenceNotLoaded = errors.New("reference output not loaded")

// Orchestrator runs backend pairs against one source tree.
type Orchestrator struct {
	cfg    *config.Config
	gate   *host.Gate
	driver *runtime.Driver
	logger *log.Logger

	ref    verify.Reference
	refErr error

	// dryRun, when set, receives the plan of each pair instead of running it.
	dryRun io.Writer
}

// New creates an orchestrator. The reference is not read until LoadReference.
func New(cfg *config.Config, gate *host.Gate, driver *runtime.Driver, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{cfg: cfg, gate: gate, driver: driver, logger: logger, refErr: errReferenceNotLoaded}
}

// SetDryRun makes every case print its plan to w and pass without starting
// the emulator. A nil w disables dry-run mode.
func (o *Orchestrator) SetDryRun(w io.Writer) {
	o.dryRun = w
}

// LoadReference reads the golden output once for the whole suite. A failure is
// remembered and reported by every case that gets past the capability gate.
func (o *Orchestrator) LoadReference() error {
	path := o.cfg.Resolve(o.cfg.Guest.Reference)
	ref, err := verify.LoadReference(path)
	if err != nil {
		o.logger.Debug("reference output unavailable", "path", path, "error", err)
		o.refErr = issue.NewErrorContext().
			WithOperation("load reference output").
			WithIssue(issue.ReferenceNotFoundID).
			WithResource(path).
			Wrap(err).
			BuildSetupError()
		return o.refErr
	}
	o.ref, o.refErr = ref, nil
	o.logger.Debug("reference output loaded", "path", path, "lines", o.ref.Len())
	return nil
}

// Suite builds the suite holding the full backend matrix.
func (o *Orchestrator) Suite() (*suite.Suite, error) {
	s := suite.New(SuiteName)
	if err := matrix.Register(s, o.Procedure); err != nil {
		return nil, err
	}
	return s, nil
}

// Procedure is the matrix.Factory binding a pair to RunPair.
func (o *Orchestrator) Procedure(p mode.Pair, _ mode.Settings) suite.Procedure {
	return func(ctx context.Context, env *suite.Env) suite.Outcome {
		return suite.Classify(o.RunPair(ctx, p, env.WorkDir))
	}
}

// RunPair runs the test binary under p in workDir. The returned error is
// classified by suite.Classify: nil passes, host.ErrUnsupported skips, and
// timeouts, missing output and *verify.Mismatch fail.
func (o *Orchestrator) RunPair(ctx context.Context, p mode.Pair, workDir string) error {
	settings, err := mode.Legalize(p)
	if err != nil {
		return err
	}
	if err := o.gate.Check(p); err != nil {
		o.logger.Debug("pair not supported on this host", "pair", p, "reason", err)
		return err
	}

	plan := o.Plan(settings)
	inv := o.Invocation(plan, workDir)
	if o.dryRun != nil {
		return o.printPlan(p, plan, inv)
	}
	if o.refErr != nil {
		return o.refErr
	}

	if err := synth.Stage(plan, workDir); err != nil {
		return err
	}

	got, _, err := o.driver.Execute(ctx, inv, plan.CaptureFile)
	if err != nil {
		return err
	}

	if m := verify.Compare(o.ref, got, plan.CaptureFile); m != nil {
		return m
	}
	return nil
}

// Plan synthesizes the run files for settings from the configuration.
func (o *Orchestrator) Plan(settings mode.Settings) synth.Plan {
	g := o.cfg.Guest
	return synth.Synthesize(settings, synth.Options{
		Image: synth.DiskImage{
			Template: g.HDImageTemplate,
			Flavour:  g.Flavour,
			Options:  g.HDImageOptions,
		},
		TestBinary:  o.cfg.Resolve(g.TestBinary),
		SuiteFlag:   g.SuiteFlag,
		BatchFile:   g.BatchFile,
		ConfigFile:  g.ConfigFile,
		CaptureFile: g.CaptureFile,
	})
}

// Invocation returns the emulator command line for plan in workDir:
// the config file, the configured arguments, then the batch file to execute.
func (o *Orchestrator) Invocation(plan synth.Plan, workDir string) *runtime.Invocation {
	args := []string{"-f", filepath.Join(workDir, plan.ConfigFile)}
	args = append(args, o.cfg.Emulator.Args...)
	args = append(args, "-E", plan.BatchFile)

	inv := &runtime.Invocation{
		Program: o.cfg.Resolve(o.cfg.Emulator.Binary),
		Args:    args,
		WorkDir: workDir,
	}
	if o.cfg.Emulator.LogFile != "" {
		inv.LogFile = filepath.Join(workDir, o.cfg.Emulator.LogFile)
	}
	return inv
}

func (o *Orchestrator) printPlan(p mode.Pair, plan synth.Plan, inv *runtime.Invocation) error {
	cmdline, err := QuoteCommand(inv.Program, inv.Args)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n", matrix.Name(p), matrix.Describe(p))
	fmt.Fprintf(&b, "## %s\n%s", plan.ConfigFile, plan.Config.Render())
	fmt.Fprintf(&b, "## %s\n%s", plan.BatchFile, strings.ReplaceAll(plan.Batch.Render(), "\r\n", "\n"))
	fmt.Fprintf(&b, "## command\n%s\n\n", cmdline)
	_, err = io.WriteString(o.dryRun, b.String())
	return err
}

// QuoteCommand renders program and args as one POSIX shell command line.
func QuoteCommand(program string, args []string) (string, error) {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{program}, args...) {
		q, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", w, err)
		}
		words = append(words, q)
	}
	return strings.Join(words, " "), nil
}
