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

	"github.com/coriander-cfd/coriander/internal/issue"
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
		Use:   "coriander",
		Short: "Clone, mutate and run CFD cases",
		Long: TitleStyle.Render("coriander") + SubtitleStyle.Render(" - CFD case management harness") + `

coriander clones simulation case directories, edits their dictionaries,
runs the toolkit's mesh and solver executables inside them and organizes
parametric studies. Meshing and solving stay with the external toolkit.

` + SubtitleStyle.Render("Examples:") + `
  coriander list runs                   Report the cases below runs/
  coriander clone cavity cavity-fine    Copy a case without its results
  coriander study --dry-run sweep.cue   Preview the cases a study creates
  coriander doctor                      Check the toolkit environment`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/coriander/config.cue)")
	flags.StringVar(&app.flags.runtime, "runtime", "", "command runtime: native or virtual (default from config)")

	rootCmd.AddCommand(
		newListCommand(app),
		newCloneCommand(app),
		newStudyCommand(app),
		newDoctorCommand(app),
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

// Execute runs the CLI and exits with the command's status.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method, which shows the full chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// handleError prints command errors. An ExitError without a cause has
// already reported itself.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))
}
