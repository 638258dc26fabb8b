// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/host"
	"github.com/dosemu2/cputest/internal/issue"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reads configuration and host facts through it.
	App struct {
		Config ConfigProvider
		Host   host.Host
		stdout io.Writer
		stderr io.Writer

		// Set from persistent flags before a subcommand runs.
		configPath string
		verbose    bool
		logger     *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Host   host.Host
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) (*App, error) {
	app := &App{
		Config: deps.Config,
		Host:   deps.Host,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Host == nil {
		app.Host = host.System()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	app.logger = newLogger(app.stderr, false)
	return app, nil
}

// loadConfig loads the configuration named by --config, or the default one.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose && !a.verbose {
		a.setVerbose(true)
	}
	return cfg, nil
}

func (a *App) setVerbose(v bool) {
	a.verbose = v
	a.logger = newLogger(a.stderr, v)
}

// newLogger creates the CLI logger. Debug output is shown only when verbose.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "cputest",
		Level:  level,
	})
}

// glamourStyle picks the help page style for w: plain text when w is not a
// terminal, else the configured scheme.
func glamourStyle(w io.Writer, scheme config.ColorScheme) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "notty"
	}
	if scheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}

// renderIssue writes the help page attached to err, if any, to the App's
// stderr. Rendering problems are logged and otherwise ignored.
func (a *App) renderIssue(err error, scheme config.ColorScheme) {
	is := issue.IssueOf(err)
	if is == nil {
		return
	}
	a.renderIssuePage(is, scheme)
}

func (a *App) renderIssuePage(is *issue.Issue, scheme config.ColorScheme) {
	out, err := is.Render(glamourStyle(a.stderr, scheme))
	if err != nil {
		a.logger.Warn("failed to render help page", "issue", is.ID(), "error", err)
		return
	}
	_, _ = io.WriteString(a.stderr, out)
}

// formatErrorForDisplay formats an error for user display. Actionable errors
// include their suggestions, and the full chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
