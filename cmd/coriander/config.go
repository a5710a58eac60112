// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coriander-cfd/coriander/internal/config"
	"github.com/coriander-cfd/coriander/internal/issue"
)

// newConfigCommand creates the `coriander config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect coriander configuration",
		Long: `Inspect coriander configuration.

Configuration is read from the first of:
  - the file given with --config
  - Linux: ~/.config/coriander/config.cue
  - macOS: ~/Library/Application Support/coriander/config.cue
  - Windows: %APPDATA%\coriander\config.cue
  - ./config.cue

CORIANDER_* environment variables override file values, e.g.
CORIANDER_STUDY_PARALLELISM=4.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd.Context())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, dir)
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		a.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return err
	}
	fmt.Fprint(a.stdout, config.GenerateCUE(cfg))
	return nil
}
