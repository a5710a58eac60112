// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/coriander-cfd/coriander/internal/config"
	"github.com/coriander-cfd/coriander/internal/issue"
	"github.com/coriander-cfd/coriander/internal/study"
)

type studyFlags struct {
	parallel int
	dryRun   bool
}

func newStudyCommand(app *App) *cobra.Command {
	var flags studyFlags

	cmd := &cobra.Command{
		Use:   "study <definition-file>",
		Short: "Create and mutate the cases of a parametric study",
		Long: `Clone the base case of a study definition once per value, apply the
mutator to every clone and run the definition's exec commands in each.

Definitions are CUE (.cue) or TOML (.toml) files:

  base:      "cavity"
  dir:       "runs/nu"
  mutator:   "setKey"
  param:     "constant/transportProperties"
  case_name: "nu"
  values: [{nu: 0.01}, {nu: 0.001}]

A failing case does not stop the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runStudy(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.parallel, "parallel", "p", 0, "cases processed at once (default from definition or config)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print the cases the study would create and exit")
	return cmd
}

func (a *App) runStudy(ctx context.Context, path string, flags studyFlags) error {
	def, err := study.LoadDefinition(path)
	if err != nil {
		if errors.Is(err, study.ErrInvalidDefinition) {
			a.renderIssue(issue.StudyDefinitionInvalidId, config.ColorSchemeAuto)
		}
		return issue.NewErrorContext().
			WithOperation("load study definition").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
	if !slices.Contains(study.MutatorNames(), def.Mutator) {
		a.renderIssue(issue.StudyDefinitionInvalidId, config.ColorSchemeAuto)
		return issue.NewErrorContext().
			WithOperation("load study definition").
			WithResource(path).
			WithSuggestion("Use one of: "+strings.Join(study.MutatorNames(), ", ")).
			Wrap(fmt.Errorf("%w: %q", study.ErrUnknownMutator, def.Mutator)).
			BuildError()
	}

	if flags.dryRun {
		return a.printPlan(def)
	}

	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	if err := a.requireDir(def.Base, s.cfg.UI.ColorScheme); err != nil {
		return err
	}

	parallel := flags.parallel
	if parallel == 0 && def.Parallelism == 0 {
		parallel = s.cfg.Study.Parallelism
	}
	opts := []study.Option{
		study.WithLogger(s.logger),
		study.WithIgnore(s.cfg.Clone.Ignore),
		study.WithCaseOptions(s.caseOptions(a.stdout, a.stderr)...),
	}
	if parallel > 0 {
		opts = append(opts, study.WithParallelism(parallel))
	}

	v, err := study.New(ctx, def, opts...)
	if err != nil {
		a.renderFailure(err, s.cfg.UI.ColorScheme)
		op := issue.NewErrorContext().WithOperation("run study").WithResource(def.Dir)
		if v != nil {
			op = op.WithSuggestion("Cases that succeeded are kept; fix the failing ones and re-run, existing cases are not cloned again")
		}
		return op.Wrap(err).BuildError()
	}

	fmt.Fprintf(a.stdout, "%s %d cases in %s\n", SuccessStyle.Render("✓"), len(v.Cases), CmdStyle.Render(v.Dir))
	return nil
}

// printPlan lists the cases a definition would create without touching disk.
func (a *App) printPlan(def *study.Definition) error {
	dirs, err := study.Plan(def, nil)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("plan study").
			WithResource(def.Dir).
			WithSuggestion("Give every value a distinct case name").
			Wrap(err).
			BuildError()
	}

	rows := make([][]string, len(dirs))
	for i, dir := range dirs {
		rows[i] = []string{filepath.Base(dir), study.FormatValue(def.Values[i])}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		Headers("CASE", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return SubtitleStyle.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	fmt.Fprintf(a.stdout, "%s %s of %s into %s\n",
		TitleStyle.Render("Study"), CmdStyle.Render(def.Mutator), def.Base, def.Dir)
	fmt.Fprintln(a.stdout, t.Render())
	return nil
}
