// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// Runtime type constants for the supported executors.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

type (
	// RuntimeType identifies an executor implementation.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Request describes one command to run.
	Request struct {
		// Dir is the working directory the command runs in. It is passed to the
		// child process (or interpreter) directly; the process cwd is never changed.
		Dir string
		// Command is the shell command string, e.g. `blockMesh > .coriander/blockMesh.log`.
		Command string
		// Env holds extra variables layered over the host environment.
		Env map[string]string
		// Stdout receives standard output unless Capture is set.
		Stdout io.Writer
		// Stderr receives standard error unless Capture is set.
		Stderr io.Writer
		// Capture collects stdout/stderr into Result.Output and Result.ErrOutput.
		Capture bool
	}

	// Result contains the outcome of a command execution.
	Result struct {
		// Status classifies the outcome.
		Status Status
		// ExitCode is the exit code reported by the shell.
		ExitCode ExitCode
		// Error holds the underlying failure, if any.
		Error error
		// Output contains captured stdout (if captured).
		Output string
		// ErrOutput contains captured stderr (if captured).
		ErrOutput string

		dir     string
		command string
	}

	// Executor runs command strings in a given directory.
	Executor interface {
		// Name returns the runtime name.
		Name() string
		// Available reports whether the executor can run on this system.
		Available() bool
		// Run executes the request and always returns a non-nil Result.
		Run(ctx context.Context, req *Request) *Result
	}

	// Registry holds the available executors.
	Registry struct {
		mu        sync.RWMutex
		executors map[RuntimeType]Executor
	}
)

// OK reports whether the command succeeded.
func (r *Result) OK() bool {
	return r != nil && r.Status == StatusSucceeded
}

// Err converts a failed Result into a *ResultError. It returns nil on success.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ResultError{
		Status:   r.Status,
		ExitCode: r.ExitCode,
		Dir:      r.dir,
		Command:  r.command,
		Cause:    r.Error,
		Stderr:   r.ErrOutput,
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[RuntimeType]Executor)}
}

// Register adds an executor under its Name().
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[RuntimeType(e.Name())] = e
}

// Get returns the executor registered for typ.
func (r *Registry) Get(typ RuntimeType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.executors[typ]
	if !ok {
		return nil, fmt.Errorf("runtime %q not registered", typ)
	}
	if !e.Available() {
		return nil, fmt.Errorf("runtime %q not available on this system", typ)
	}
	return e, nil
}

// Types returns the registered runtime types in sorted order.
func (r *Registry) Types() []RuntimeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]RuntimeType, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// NewDefaultRegistry registers the native and virtual executors.
func NewDefaultRegistry(shell string, env map[string]string) *Registry {
	reg := NewRegistry()
	native := NewNativeRuntime()
	native.Shell = shell
	native.Env = env
	reg.Register(native)

	virtual := NewVirtualRuntime(true)
	virtual.Env = env
	reg.Register(virtual)
	return reg
}

// checkDir verifies that dir exists and is a directory.
func checkDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	return nil
}

// workDirResult builds the result for an unusable working directory.
func workDirResult(req *Request, err error) *Result {
	return &Result{
		Status:   StatusWorkDirUnavailable,
		ExitCode: 1,
		Error:    err,
		dir:      req.Dir,
		command:  req.Command,
	}
}

// EnvToSlice converts an environment map to KEY=VALUE form.
func EnvToSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(env))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}

// mergeEnv layers the executor env and the request env over the host environment.
func mergeEnv(base, extra map[string]string) []string {
	env := os.Environ()
	env = append(env, EnvToSlice(base)...)
	return append(env, EnvToSlice(extra)...)
}

func outputs(req *Request) (stdout, stderr io.Writer) {
	stdout, stderr = req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return stdout, stderr
}
