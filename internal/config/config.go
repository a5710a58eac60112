// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/coriander-cfd/coriander/internal/cueutil"
	"github.com/coriander-cfd/coriander/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "coriander"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "CORIANDER"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the coriander configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// newViper returns a Viper instance holding the defaults and bound to the
// CORIANDER_* environment.
func newViper() *viper.Viper {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("default_runtime", string(d.DefaultRuntime))
	v.SetDefault("shell", d.Shell)
	v.SetDefault("tools.block_mesh", d.Tools.BlockMesh)
	v.SetDefault("tools.decompose_par", d.Tools.DecomposePar)
	v.SetDefault("tools.reconstruct_par", d.Tools.ReconstructPar)
	v.SetDefault("tools.sample", d.Tools.Sample)
	v.SetDefault("tools.map_fields", d.Tools.MapFields)
	v.SetDefault("clone.ignore", d.Clone.Ignore)
	v.SetDefault("clone.link_mesh", d.Clone.LinkMesh)
	v.SetDefault("study.parallelism", d.Study.Parallelism)
	v.SetDefault("toolkit.version_env", d.Toolkit.VersionEnv)
	v.SetDefault("toolkit.env_file", d.Toolkit.EnvFile)
	v.SetDefault("list.size_filter", d.List.SizeFilter)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load layers defaults, the first config file found and environment
// overrides, then validates the result.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'coriander config show'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check CORIANDER_* environment variables for typos").
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

// findConfigFile returns the config file to load, or "" for defaults only.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'coriander config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}

	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(cfgDir, name), filepath.Join(opts.WorkDir, name)} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// Every field is optional, so values need not be concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecodeString[map[string]any](configSchema, data, "#Config",
		cueutil.WithConcrete(false),
		cueutil.WithFilename(path),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// coriander configuration\n")
	if cfg.Source != "" {
		fmt.Fprintf(&sb, "// loaded from %s\n", cfg.Source)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "default_runtime: %q\n", cfg.DefaultRuntime)
	if cfg.Shell != "" {
		fmt.Fprintf(&sb, "shell: %q\n", cfg.Shell)
	}

	sb.WriteString("\ntools: {\n")
	fmt.Fprintf(&sb, "\tblock_mesh:      %q\n", cfg.Tools.BlockMesh)
	fmt.Fprintf(&sb, "\tdecompose_par:   %q\n", cfg.Tools.DecomposePar)
	fmt.Fprintf(&sb, "\treconstruct_par: %q\n", cfg.Tools.ReconstructPar)
	fmt.Fprintf(&sb, "\tsample:          %q\n", cfg.Tools.Sample)
	fmt.Fprintf(&sb, "\tmap_fields:      %q\n", cfg.Tools.MapFields)
	sb.WriteString("}\n")

	sb.WriteString("\nclone: {\n")
	sb.WriteString("\tignore: [")
	for i, p := range cfg.Clone.Ignore {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\tlink_mesh: %v\n", cfg.Clone.LinkMesh)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nstudy: parallelism: %d\n", cfg.Study.Parallelism)

	sb.WriteString("\ntoolkit: {\n")
	fmt.Fprintf(&sb, "\tversion_env: %q\n", cfg.Toolkit.VersionEnv)
	if cfg.Toolkit.EnvFile != "" {
		fmt.Fprintf(&sb, "\tenv_file: %q\n", cfg.Toolkit.EnvFile)
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nlist: size_filter: %q\n", cfg.List.SizeFilter)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}
