// SPDX-License-Identifier: MPL-2.0

// Package toolkit checks the external simulation toolkit installation.
package toolkit

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
)

// DefaultVersionEnv is the variable the toolkit's environment script exports.
const DefaultVersionEnv = "WM_PROJECT_VERSION"

// ErrNotSourced is returned when the toolkit environment is not loaded.
var ErrNotSourced = errors.New("toolkit environment not sourced")

// ToolStatus reports whether an executable is on PATH.
type ToolStatus struct {
	Name  string
	Path  string
	Found bool
}

// Version returns the toolkit version from envName (DefaultVersionEnv when
// empty), or "" when it is unset.
func Version(envName string) string {
	return os.Getenv(cmp.Or(envName, DefaultVersionEnv))
}

// CheckSourced returns the toolkit version, or ErrNotSourced when the
// version variable is unset or empty.
func CheckSourced(envName string) (string, error) {
	name := cmp.Or(envName, DefaultVersionEnv)
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNotSourced, name)
	}
	return v, nil
}

// LoadEnv reads a dotenv-format snapshot of the toolkit environment, as
// produced by `env > toolkit.env` after sourcing the toolkit.
func LoadEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load toolkit environment %s: %w", path, err)
	}
	return env, nil
}

// FindTools looks up each executable name on PATH.
func FindTools(names ...string) []ToolStatus {
	statuses := make([]ToolStatus, len(names))
	for i, name := range names {
		path, err := exec.LookPath(name)
		statuses[i] = ToolStatus{Name: name, Path: path, Found: err == nil}
	}
	return statuses
}
