// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coriander-cfd/coriander/internal/config"
	"github.com/coriander-cfd/coriander/internal/foamcmd"
	"github.com/coriander-cfd/coriander/internal/issue"
	"github.com/coriander-cfd/coriander/internal/toolkit"
)

func newDoctorCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the toolkit environment",
		Long: `Check that the simulation toolkit is sourced and report which of its
executables are on PATH. Exits with status 1 when the toolkit version
variable (toolkit.version_env, default WM_PROJECT_VERSION) is unset and no
toolkit.env_file snapshot provides it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.doctor(cmd.Context())
		},
	}
}

func (a *App) doctor(ctx context.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		a.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return err
	}

	envName := cfg.Toolkit.VersionEnv
	version, err := toolkit.CheckSourced(envName)
	if errors.Is(err, toolkit.ErrNotSourced) && cfg.Toolkit.EnvFile != "" {
		if env, envErr := toolkit.LoadEnv(cfg.Toolkit.EnvFile); envErr == nil && env[envName] != "" {
			version, err = env[envName], nil
		}
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Toolkit"))
	if err != nil {
		fmt.Fprintf(a.stdout, "  %s %s is not set\n", ErrorStyle.Render("✗"), envName)
		a.renderIssue(issue.ToolkitNotSourcedId, cfg.UI.ColorScheme)
		return &ExitError{Code: 1}
	}
	fmt.Fprintf(a.stdout, "  %s %s=%s\n", SuccessStyle.Render("✓"), envName, version)

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, TitleStyle.Render("Executables"))
	names := []string{
		cfg.Tools.BlockMesh,
		cfg.Tools.DecomposePar,
		cfg.Tools.ReconstructPar,
		cfg.Tools.Sample,
		cfg.Tools.MapFields,
		foamcmd.Mpirun,
	}
	for _, st := range toolkit.FindTools(names...) {
		if st.Found {
			fmt.Fprintf(a.stdout, "  %s %-16s %s\n", SuccessStyle.Render("✓"), st.Name, VerboseStyle.Render(st.Path))
		} else {
			fmt.Fprintf(a.stdout, "  %s %-16s %s\n", WarningStyle.Render("!"), st.Name, VerboseStyle.Render("not found"))
		}
	}
	return nil
}
