// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/coriander-cfd/coriander/internal/caselist"
	"github.com/coriander-cfd/coriander/internal/foamcase"
	"github.com/coriander-cfd/coriander/internal/toolkit"
)

const (
	// RuntimeNative runs commands with the host shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs commands in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects the executor for case commands.
	RuntimeMode string

	// ColorScheme selects the terminal palette.
	ColorScheme string

	// InvalidConfigError collects field-level validation errors. It wraps
	// ErrInvalidConfig for errors.Is().
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultRuntime selects "native" or "virtual".
		DefaultRuntime RuntimeMode `json:"default_runtime" mapstructure:"default_runtime"`
		// Shell overrides the host shell of the native runtime.
		Shell string `json:"shell" mapstructure:"shell"`
		// Tools names the toolkit executables.
		Tools foamcase.Tools `json:"tools" mapstructure:"tools"`
		// Clone configures case cloning.
		Clone CloneConfig `json:"clone" mapstructure:"clone"`
		// Study configures parametric studies.
		Study StudyConfig `json:"study" mapstructure:"study"`
		// Toolkit configures the toolkit environment check.
		Toolkit ToolkitConfig `json:"toolkit" mapstructure:"toolkit"`
		// List configures the case report.
		List ListConfig `json:"list" mapstructure:"list"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was loaded from, "" for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// CloneConfig configures case cloning.
	CloneConfig struct {
		Ignore   []string `json:"ignore" mapstructure:"ignore"`
		LinkMesh bool     `json:"link_mesh" mapstructure:"link_mesh"`
	}

	// StudyConfig configures parametric studies.
	StudyConfig struct {
		Parallelism int `json:"parallelism" mapstructure:"parallelism"`
	}

	// ToolkitConfig configures the toolkit environment.
	ToolkitConfig struct {
		VersionEnv string `json:"version_env" mapstructure:"version_env"`
		EnvFile    string `json:"env_file" mapstructure:"env_file"`
	}

	// ListConfig configures the case report.
	ListConfig struct {
		SizeFilter string `json:"size_filter" mapstructure:"size_filter"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultRuntime: RuntimeVirtual,
		Tools:          foamcase.DefaultTools(),
		Clone: CloneConfig{
			Ignore: append([]string(nil), foamcase.DefaultIgnore...),
		},
		Study:   StudyConfig{Parallelism: 1},
		Toolkit: ToolkitConfig{VersionEnv: toolkit.DefaultVersionEnv},
		List:    ListConfig{SizeFilter: caselist.DefaultSizeFilter},
		UI:      UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// String returns the mode name.
func (m RuntimeMode) String() string { return string(m) }

// Validate returns an error wrapping ErrInvalidRuntimeMode for unknown modes.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return nil
	default:
		return fmt.Errorf("%w %q (valid: native, virtual)", ErrInvalidRuntimeMode, string(m))
	}
}

// String returns the scheme name.
func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an error wrapping ErrInvalidColorScheme for unknown schemes.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w %q (valid: auto, dark, light)", ErrInvalidColorScheme, string(cs))
	}
}

// Validate checks values that may arrive from the environment and so
// bypass the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	if err := c.DefaultRuntime.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Study.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("study.parallelism must be at least 1, got %d", c.Study.Parallelism))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
