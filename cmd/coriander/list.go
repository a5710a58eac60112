// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coriander-cfd/coriander/internal/caselist"
	"github.com/coriander-cfd/coriander/internal/config"
	"github.com/coriander-cfd/coriander/internal/issue"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [root]",
		Short: "Report the cases below a directory",
		Long: `Walk root (default: the current directory) and print one table per
directory of cases with their processor count, latest time step and the
size of their processor directories.

Directories named processor* or boundaryData are never descended into.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return app.listCases(cmd.Context(), root)
		},
	}
}

func (a *App) listCases(ctx context.Context, root string) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		a.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return err
	}

	if err := a.requireDir(root, cfg.UI.ColorScheme); err != nil {
		return err
	}

	entries, err := caselist.Scan(root, caselist.Options{SizeFilter: cfg.List.SizeFilter})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("list cases").
			WithResource(root).
			Wrap(err).
			BuildError()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return caselist.Render(a.stdout, filepath.Base(abs), entries, listStyles())
}

// requireDir reports a missing case or root directory with the catalog page.
func (a *App) requireDir(path string, cs config.ColorScheme) error {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return nil
	}
	a.renderIssue(issue.CaseNotFoundId, cs)
	ctx := issue.NewErrorContext().
		WithOperation("open case directory").
		WithResource(path).
		WithSuggestion("Run 'coriander list' to see the cases below the current directory")
	if err == nil {
		return ctx.Wrap(fmt.Errorf("%s is not a directory", path)).BuildError()
	}
	return ctx.Wrap(err).BuildError()
}
