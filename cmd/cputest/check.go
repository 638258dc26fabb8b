// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/host"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/matrix"
	"github.com/dosemu2/cputest/internal/mode"
	"github.com/dosemu2/cputest/pkg/types"
)

// preflightItem is a file a run needs.
type preflightItem struct {
	label string
	path  string
	issue issue.ID
}

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show which backend pairs this host can run",
		Long: `Check the source tree and the host before a run.

The emulator, the DOS test binary and the reference output must exist.
Backend pairs the host cannot run are listed with the reason; they are
skipped by 'cputest run'. Exits with status 2 if a required file is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return runCheck(app, cmd.OutOrStdout(), cfg)
		},
	}
}

func runCheck(app *App, w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, TitleStyle.Render("Source tree"))
	var missing []issue.ID
	for _, item := range []preflightItem{
		{"emulator", cfg.Resolve(cfg.Emulator.Binary), issue.EmulatorNotFoundID},
		{"test binary", cfg.Resolve(cfg.Guest.TestBinary), issue.TestBinaryNotFoundID},
		{"reference", cfg.Resolve(cfg.Guest.Reference), issue.ReferenceNotFoundID},
	} {
		if _, err := os.Stat(item.path); err != nil {
			fmt.Fprintf(w, "  %s %-12s %s %s\n", ErrorStyle.Render("✗"), item.label, item.path, SubtitleStyle.Render("(missing)"))
			missing = append(missing, item.issue)
			continue
		}
		fmt.Fprintf(w, "  %s %-12s %s\n", SuccessStyle.Render("✓"), item.label, item.path)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Backend pairs"))
	kvmDevice := cfg.Host.KVMDevice
	if kvmDevice == "" {
		kvmDevice = host.DefaultKVMDevice
	}
	gate := host.NewGate(app.Host, kvmDevice)
	var skipped []mode.Pair
	for _, v := range gate.Report(matrix.Pairs()) {
		if v.Err == nil {
			fmt.Fprintf(w, "  %s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(matrix.Name(v.Pair)))
			continue
		}
		skipped = append(skipped, v.Pair)
		fmt.Fprintf(w, "  %s %s %s\n", WarningStyle.Render("-"), CmdStyle.Render(matrix.Name(v.Pair)), SubtitleStyle.Render(v.Err.Error()))
	}
	fmt.Fprintf(w, "\n%d of %d pairs runnable on this host\n", len(matrix.Pairs())-len(skipped), len(matrix.Pairs()))

	if app.verbose {
		for _, id := range skipIssues(app.Host, kvmDevice, skipped) {
			app.renderIssuePage(issue.Get(id), cfg.UI.ColorScheme)
		}
	}
	for _, id := range missing {
		app.renderIssuePage(issue.Get(id), cfg.UI.ColorScheme)
	}
	if len(missing) > 0 {
		return &ExitError{Code: types.ExitSetupError}
	}
	return nil
}

// skipIssues returns the help pages explaining why pairs were skipped.
func skipIssues(h host.Host, kvmDevice string, skipped []mode.Pair) []issue.ID {
	var kvm, vm86 bool
	for _, p := range skipped {
		kvm = kvm || p.Uses(mode.KVM)
		vm86 = vm86 || p.VM86 == mode.Native
	}

	var ids []issue.ID
	if kvm && h.Access(kvmDevice) != nil {
		ids = append(ids, issue.KVMNotAvailableID)
	}
	if vm86 {
		if machine, err := h.Machine(); err != nil || !host.IsX86_32(machine) {
			ids = append(ids, issue.NativeVM86UnsupportedID)
		}
	}
	return ids
}
