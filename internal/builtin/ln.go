// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// lnCommand creates hard or symbolic links.
type lnCommand struct {
	name  string
	flags []FlagInfo
}

func newLnCommand() *lnCommand {
	return &lnCommand{
		name: "ln",
		flags: []FlagInfo{
			{Name: "s", Description: "make symbolic links instead of hard links"},
			{Name: "f", Description: "remove existing destination files"},
		},
	}
}

// Name returns the command name.
func (c *lnCommand) Name() string { return c.name }

// SupportedFlags returns the flags supported by this command.
func (c *lnCommand) SupportedFlags() []FlagInfo { return c.flags }

// Run executes the ln command.
// Usage: ln [-sf] TARGET LINK_NAME
//
// A symbolic link's target is stored verbatim, so relative targets stay
// relative to the link's directory.
func (c *lnCommand) Run(ctx context.Context, args []string) error {
	hc := GetHandlerContext(ctx)

	var symbolic, force bool
	var operands []string
	for i, arg := range args[1:] {
		if arg == "--" {
			operands = append(operands, args[i+2:]...)
			break
		}
		if len(arg) < 2 || !strings.HasPrefix(arg, "-") {
			operands = append(operands, arg)
			continue
		}
		for _, f := range arg[1:] {
			switch f {
			case 's':
				symbolic = true
			case 'f':
				force = true
			default:
				return wrapError(c.name, fmt.Errorf("unsupported flag -%c", f))
			}
		}
	}

	if len(operands) != 2 {
		return wrapError(c.name, fmt.Errorf("expected TARGET and LINK_NAME, got %d operands", len(operands)))
	}

	target, linkName := operands[0], hc.resolve(operands[1])

	if force {
		if _, err := os.Lstat(linkName); err == nil {
			if err := os.Remove(linkName); err != nil {
				return wrapError(c.name, fmt.Errorf("cannot remove %q: %w", linkName, err))
			}
		}
	}

	if symbolic {
		if err := os.Symlink(target, linkName); err != nil {
			return wrapError(c.name, err)
		}
		return nil
	}

	if !filepath.IsAbs(target) {
		target = hc.resolve(target)
	}
	if err := os.Link(target, linkName); err != nil {
		return wrapError(c.name, err)
	}
	return nil
}
