// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/matrix"
)

func newMatrixCommand(app *App) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "List the CPU backend pairs under test",
		Long: `List the vm86/DPMI backend pairs in execution order.

The JIT and the simulator cannot be combined, so (jit, sim) and (sim, jit)
are never tested.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if plain {
				return writeMatrixPlain(cmd.OutOrStdout())
			}
			return writeMatrixTable(cmd.OutOrStdout(), glamourStyle(cmd.OutOrStdout(), config.ColorSchemeAuto))
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print tab-separated lines instead of a table")
	return cmd
}

// writeMatrixPlain writes one "name<TAB>vm86<TAB>dpmi<TAB>description" line per pair.
func writeMatrixPlain(w io.Writer) error {
	for _, p := range matrix.Pairs() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", matrix.Name(p), p.VM86, p.DPMI, matrix.Describe(p)); err != nil {
			return err
		}
	}
	return nil
}

// writeMatrixTable renders the pairs as a Markdown table.
func writeMatrixTable(w io.Writer, style string) error {
	var md strings.Builder
	md.WriteString("| Case | vm86 | DPMI | Description |\n")
	md.WriteString("|------|------|------|-------------|\n")
	for _, p := range matrix.Pairs() {
		fmt.Fprintf(&md, "| `%s` | %s | %s | %s |\n", matrix.Name(p), p.VM86, p.DPMI, matrix.Describe(p))
	}

	out, err := glamour.Render(md.String(), style)
	if err != nil {
		return fmt.Errorf("render matrix: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
