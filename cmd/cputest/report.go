// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dosemu2/cputest/internal/report"
	"github.com/dosemu2/cputest/internal/suite"
)

func newReportCommand(app *App) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect reports written by 'cputest run --report'",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	reportCmd.AddCommand(&cobra.Command{
		Use:   "show <file>",
		Short: "Print a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.Read(args[0])
			if err != nil {
				return err
			}
			app.logger.Debug("report loaded", "path", args[0], "id", rep.ID)
			return showReport(cmd.OutOrStdout(), rep)
		},
	})

	return reportCmd
}

func showReport(w io.Writer, rep *report.Report) error {
	fmt.Fprintln(w, TitleStyle.Render("Report "+rep.ID))
	fmt.Fprintf(w, "%s: %s/%s (%s), runtime %s\n", CmdStyle.Render("host"), rep.Host.OS, rep.Host.Arch, rep.Host.Machine, rep.Host.Runtime)
	fmt.Fprintf(w, "%s: %s, took %s\n\n", CmdStyle.Render("started"), rep.Started.Format("2006-01-02 15:04:05 MST"), rep.Finished.Sub(rep.Started))

	for _, c := range rep.Cases {
		line := outcomeLabel(parseKind(c.Outcome)) + " " + CmdStyle.Render(c.Name)
		if c.Reason != "" {
			line += " " + SubtitleStyle.Render(firstLine(c.Reason))
		}
		fmt.Fprintln(w, line)
	}

	t := rep.Summary
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped, %d errors", t.Passed, t.Failed, t.Skipped, t.Errors)
	if err == nil && t.NotRun > 0 {
		_, err = fmt.Fprintf(w, ", %d not run", t.NotRun)
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}

// parseKind maps a report outcome label back onto a suite.Kind.
func parseKind(label string) suite.Kind {
	for _, k := range []suite.Kind{suite.Pass, suite.Skip, suite.Fail, suite.SetupError} {
		if k.String() == label {
			return k
		}
	}
	return 0
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
