// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coriander-cfd/coriander/internal/foamcase"
	"github.com/coriander-cfd/coriander/internal/issue"
)

type cloneFlags struct {
	linkMesh   bool
	strict     bool
	modifiable bool
}

func newCloneCommand(app *App) *cobra.Command {
	var flags cloneFlags

	cmd := &cobra.Command{
		Use:   "clone <src> <dst>",
		Short: "Copy a case without its results",
		Long: `Copy the case at src to dst, leaving out logs, processor directories,
post-processing output and every time step except 0. The patterns come
from clone.ignore in the configuration.

If dst already exists nothing is copied.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.cloneCase(cmd.Context(), args[0], args[1], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.linkMesh, "link-mesh", false, "symlink constant/polyMesh instead of copying it")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when any entry cannot be copied")
	cmd.Flags().BoolVar(&flags.modifiable, "modifiable", true, "record the new case as modifiable")
	return cmd
}

func (a *App) cloneCase(ctx context.Context, src, dst string, flags cloneFlags) error {
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	if err := a.requireDir(src, s.cfg.UI.ColorScheme); err != nil {
		return err
	}

	c, err := foamcase.Clone(ctx, src, dst, foamcase.CloneOptions{
		LinkMesh:   flags.linkMesh || s.cfg.Clone.LinkMesh,
		Ignore:     s.cfg.Clone.Ignore,
		Modifiable: flags.modifiable,
		Strict:     flags.strict,
	}, s.caseOptions(a.stdout, a.stderr)...)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("clone case").
			WithResource(dst).
			WithSuggestion("Re-run with --verbose to see which entries failed").
			Wrap(err).
			BuildError()
	}

	fmt.Fprintf(a.stdout, "%s %s -> %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(c.Parent), CmdStyle.Render(c.Path))
	return nil
}
