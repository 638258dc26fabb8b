// SPDX-License-Identifier: MPL-2.0

package synth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/mode"
)

// crlf terminates lines in files read by the DOS guest.
const crlf = "\r\n"

// Default file names inside a run's work directory.
const (
	DefaultBatchFile   = "testit.bat"
	DefaultConfigFile  = "dosemu.conf"
	DefaultCaptureFile = "dosfile.log"
	DefaultSuiteFlag   = "--common-tests"
)

type (
	// BatchScript is the DOS batch file the emulator runs on boot.
	BatchScript struct {
		// Program is the DOS command name of the test binary.
		Program string
		// Args are passed to Program before the output redirection.
		Args []string
		// Capture receives Program's standard output.
		Capture string
	}

	// Options controls Synthesize.
	Options struct {
		Image DiskImage
		// TestBinary is the build output path of the DOS test binary.
		TestBinary  string
		SuiteFlag   string
		BatchFile   string
		ConfigFile  string
		CaptureFile string
		Extra       []Setting
	}

	// Plan holds everything needed to stage and start one run.
	Plan struct {
		Config      EmulatorConfig
		Batch       BatchScript
		TestBinary  string
		BatchFile   string
		ConfigFile  string
		CaptureFile string
	}
)

// Render returns the batch file content with DOS line endings.
func (b BatchScript) Render() string {
	cmd := append([]string{b.Program}, b.Args...)
	return strings.Join(cmd, " ") + " > " + b.Capture + crlf +
		"rem end" + crlf
}

// Synthesize derives the run plan for s. It has no side effects.
func Synthesize(s mode.Settings, opts Options) Plan {
	opts = withDefaults(opts)

	cfg := NewEmulatorConfig(s, opts.Image)
	cfg.Extra = append(cfg.Extra, opts.Extra...)

	return Plan{
		Config: cfg,
		Batch: BatchScript{
			Program: programName(opts.TestBinary),
			Args:    []string{opts.SuiteFlag},
			Capture: opts.CaptureFile,
		},
		TestBinary:  opts.TestBinary,
		BatchFile:   opts.BatchFile,
		ConfigFile:  opts.ConfigFile,
		CaptureFile: opts.CaptureFile,
	}
}

// Stage copies the test binary into workDir and writes the batch and config
// files. The binary is copied before anything else; if it is missing the
// returned error matches issue.ErrSetup.
func Stage(p Plan, workDir string) error {
	if err := copyFile(p.TestBinary, filepath.Join(workDir, filepath.Base(p.TestBinary))); err != nil {
		return issue.NewErrorContext().
			WithOperation("stage DOS test binary").
			WithIssue(issue.TestBinaryNotFoundID).
			WithResource(p.TestBinary).
			WithSuggestion("Build the test binary as part of the normal build (make)").
			WithSuggestion("Check guest.test_binary in the configuration").
			Wrap(err).
			BuildSetupError()
	}

	files := []struct {
		name    string
		content string
	}{
		{p.BatchFile, p.Batch.Render()},
		{p.ConfigFile, p.Config.Render()},
	}
	for _, f := range files {
		path := filepath.Join(workDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return issue.NewErrorContext().
				WithOperation("write run file").
				WithResource(path).
				Wrap(err).
				BuildSetupError()
		}
	}

	return nil
}

func withDefaults(opts Options) Options {
	if opts.SuiteFlag == "" {
		opts.SuiteFlag = DefaultSuiteFlag
	}
	if opts.BatchFile == "" {
		opts.BatchFile = DefaultBatchFile
	}
	if opts.ConfigFile == "" {
		opts.ConfigFile = DefaultConfigFile
	}
	if opts.CaptureFile == "" {
		opts.CaptureFile = DefaultCaptureFile
	}
	return opts
}

// programName maps "test/cpu/dosbin.exe" to the DOS command "dosbin".
func programName(binary string) string {
	base := filepath.Base(binary)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
