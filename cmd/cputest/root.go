// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/dosemu2/cputest/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cputest",
		Short: "Run the dosemu2 CPU backend conformance suite",
		Long: TitleStyle.Render("cputest") + SubtitleStyle.Render(" - dosemu2 CPU backend conformance suite") + `

cputest runs a DOS CPU test program under every supported combination of
vm86 and DPMI execution backends (native, KVM, JIT, simulator) and compares
its output with a reference log recorded on a known-good host.

` + SubtitleStyle.Render("Examples:") + `
  cputest matrix                      List the backend pairs
  cputest check                       Show which pairs this host can run
  cputest run                         Run every pair
  cputest run 'cpu_method_kvm_*'      Run the pairs with KVM vm86
  cputest run --dry-run               Print what would run
  cputest config show                 Show the effective configuration`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			app.setVerbose(app.verbose)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/cputest/config.cue)")

	rootCmd.AddCommand(
		newMatrixCommand(app),
		newCheckCommand(app),
		newRunCommand(app),
		newReportCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code of the outcome.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(types.ExitSetupError))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(app)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitSetupError))
	}
}

// errorHandler prints errors the commands have not reported themselves.
func errorHandler(app *App) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}
		fang.DefaultErrorHandler(w, styles, errors.New(formatErrorForDisplay(err, app.verbose)))
	}
}
