// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"fmt"
)

type (
	// Command is a utility that can run inside the virtual shell.
	Command interface {
		// Name returns the command name (e.g., "sed").
		Name() string

		// Run executes the command. args[0] is the command name.
		// Errors are prefixed with "[builtin] <cmd>:".
		Run(ctx context.Context, args []string) error

		// SupportedFlags returns the flags this implementation understands.
		SupportedFlags() []FlagInfo
	}

	// FlagInfo describes a supported flag.
	FlagInfo struct {
		// Name is the flag name without dashes.
		Name string
		// Description explains what the flag does.
		Description string
		// TakesValue indicates if the flag requires a value.
		TakesValue bool
	}
)

// wrapError prefixes err with the built-in command name. Returns nil if err is nil.
func wrapError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[builtin] %s: %w", cmdName, err)
}
