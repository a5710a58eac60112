// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultRegistry is the registry used by the virtual runtime.
var DefaultRegistry = NewRegistry()

// Registry maps command names to built-in implementations. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func init() {
	RegisterDefault(newSedCommand())
	RegisterDefault(newLnCommand())
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. It panics on an empty or duplicate name.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if name == "" {
		panic("builtin: cannot register command with empty name")
	}
	if _, exists := r.commands[name]; exists {
		panic(fmt.Sprintf("builtin: command %q already registered", name))
	}
	r.commands[name] = cmd
}

// Lookup retrieves a command by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a registered command. args[0] must be the command name.
func (r *Registry) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("[builtin] missing command name")
	}
	cmd, ok := r.Lookup(args[0])
	if !ok {
		return fmt.Errorf("[builtin] %s: command not found", args[0])
	}
	return cmd.Run(ctx, args)
}

// RegisterDefault registers cmd in DefaultRegistry.
func RegisterDefault(cmd Command) {
	DefaultRegistry.Register(cmd)
}
