// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/coriander-cfd/coriander/internal/config"
	"github.com/coriander-cfd/coriander/internal/foamcase"
	"github.com/coriander-cfd/coriander/internal/issue"
	"github.com/coriander-cfd/coriander/internal/runtime"
	"github.com/coriander-cfd/coriander/internal/toolkit"
)

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App reference.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		// issueStyle overrides the glamour style of issue pages when set.
		issueStyle string
		flags      rootFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// IssueStyle forces a glamour style ("notty" in tests).
		IssueStyle string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	rootFlags struct {
		verbose    bool
		configPath string
		runtime    string
	}

	// session is the state shared by one command invocation.
	session struct {
		cfg      *config.Config
		logger   *log.Logger
		executor runtime.Executor
		verbose  bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config:     deps.Config,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		issueStyle: deps.IssueStyle,
	}
}

// loadConfig loads the configuration named by --config, or the default lookup.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
}

// session loads the configuration and builds the logger and executor for
// one invocation.
func (a *App) session(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		a.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return nil, err
	}

	verbose := a.flags.verbose || cfg.UI.Verbose
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "coriander"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var env map[string]string
	if cfg.Toolkit.EnvFile != "" {
		env, err = toolkit.LoadEnv(cfg.Toolkit.EnvFile)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load toolkit environment").
				WithResource(cfg.Toolkit.EnvFile).
				WithSuggestion("Regenerate the snapshot with 'env > toolkit.env' after sourcing the toolkit").
				Wrap(err).
				BuildError()
		}
		logger.Debug("loaded toolkit environment", "file", cfg.Toolkit.EnvFile, "vars", len(env))
	}

	mode := cfg.DefaultRuntime
	if a.flags.runtime != "" {
		mode = config.RuntimeMode(a.flags.runtime)
	}
	if err := mode.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("select runtime").
			WithSuggestion("Use --runtime native or --runtime virtual").
			Wrap(err).
			BuildError()
	}

	executor, err := runtime.NewDefaultRegistry(cfg.Shell, env).Get(runtime.RuntimeType(mode))
	if err != nil {
		a.renderIssue(issue.RuntimeNotAvailableId, cfg.UI.ColorScheme)
		return nil, issue.NewErrorContext().
			WithOperation("select runtime").
			WithResource(string(mode)).
			Wrap(err).
			BuildError()
	}
	logger.Debug("using runtime", "runtime", executor.Name())

	return &session{cfg: cfg, logger: logger, executor: executor, verbose: verbose}, nil
}

// caseOptions returns the foamcase options every command shares.
func (s *session) caseOptions(stdout, stderr io.Writer) []foamcase.Option {
	return []foamcase.Option{
		foamcase.WithExecutor(s.executor),
		foamcase.WithLogger(s.logger),
		foamcase.WithTools(s.cfg.Tools),
		foamcase.WithOutput(stdout, stderr),
	}
}

// renderIssue writes the catalog page for id to stderr.
func (a *App) renderIssue(id issue.Id, cs config.ColorScheme) {
	style := a.issueStyle
	if style == "" {
		style = glamourStyle(cs)
	}
	rendered, err := issue.Get(id).Render(style)
	if err != nil {
		fmt.Fprintln(a.stderr, issue.Get(id).Markdown())
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// renderFailure picks the catalog page matching a command failure.
func (a *App) renderFailure(err error, cs config.ColorScheme) {
	switch {
	case errors.Is(err, runtime.ErrToolNotFound):
		a.renderIssue(issue.ToolNotFoundId, cs)
	case errors.Is(err, runtime.ErrExitedNonZero):
		a.renderIssue(issue.CommandFailedId, cs)
	}
}
