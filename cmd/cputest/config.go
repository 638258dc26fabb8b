// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/issue"
)

// newConfigCommand creates the `cputest config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cputest configuration",
		Long: `Manage cputest configuration.

Configuration is read from the first of:
  - the file named by --config
  - $XDG_CONFIG_HOME/cputest/config.cue (~/.config/cputest/config.cue)
  - ./config.cue

Any key can be overridden from the environment with the CPUTEST_ prefix,
e.g. CPUTEST_TOP_DIR or CPUTEST_EMULATOR_TIMEOUT_SECONDS.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				app.renderIssuePage(issue.Get(issue.ConfigLoadFailedID), config.ColorSchemeAuto)
				return err
			}
			return showConfig(cmd.OutOrStdout(), cfg)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.configPath
			if len(args) == 1 {
				path = args[0]
			}
			return initConfig(cmd.OutOrStdout(), path, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the default configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) error {
	source := cfg.Source()
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(w, "// source: %s\n", source)
	_, err := io.WriteString(w, config.GenerateCUE(cfg))
	return err
}

func initConfig(w io.Writer, path string, force bool) error {
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if err := config.WriteDefault(path, force); err != nil {
		if errors.Is(err, os.ErrExist) {
			return issue.NewErrorContext().
				WithOperation("write configuration").
				WithResource(path).
				WithSuggestion("Use --force to overwrite it").
				Wrap(err).
				BuildError()
		}
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Created"), path)
	return err
}
