// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/coriander-cfd/coriander/internal/builtin"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes commands with the embedded mvdan/sh interpreter.
// Registered built-ins (sed, ln) run in-process; everything else falls back
// to host binaries.
type VirtualRuntime struct {
	// EnableBuiltins routes registered built-in commands to their Go implementations.
	EnableBuiltins bool
	// Builtins overrides builtin.DefaultRegistry.
	Builtins *builtin.Registry
	// Env is layered over the host environment for every command.
	Env map[string]string
}

// NewVirtualRuntime creates a new virtual runtime.
func NewVirtualRuntime(enableBuiltins bool) *VirtualRuntime {
	return &VirtualRuntime{EnableBuiltins: enableBuiltins}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Available returns true; the interpreter is always built in.
func (r *VirtualRuntime) Available() bool {
	return true
}

// Run parses req.Command and interprets it with interp.Dir(req.Dir).
func (r *VirtualRuntime) Run(ctx context.Context, req *Request) *Result {
	if err := checkDir(req.Dir); err != nil {
		return workDirResult(req, err)
	}

	result := &Result{dir: req.Dir, command: req.Command}

	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Command), "command")
	if err != nil {
		result.Status = StatusFailed
		result.ExitCode = 1
		result.Error = fmt.Errorf("failed to parse command: %w", err)
		return result
	}

	dir := req.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return workDirResult(req, err)
		}
	}

	var stdout, stderr bytes.Buffer
	out, errOut := outputs(req)
	if req.Capture {
		out, errOut = &stdout, &stderr
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(mergeEnv(r.Env, req.Env)...)),
		interp.StdIO(nil, out, errOut),
		interp.ExecHandlers(r.execHandler),
	)
	if err != nil {
		result.Status = StatusFailed
		result.ExitCode = 1
		result.Error = fmt.Errorf("failed to create interpreter: %w", err)
		return result
	}

	err = runner.Run(ctx, prog)
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()

	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
			result.Status = classifyExit(result.ExitCode)
			return result
		}
		result.ExitCode = 1
		result.Status = StatusFailed
		result.Error = fmt.Errorf("command execution failed: %w", err)
		return result
	}

	result.Status = StatusSucceeded
	return result
}

// execHandler tries built-ins before handing off to host binaries.
func (r *VirtualRuntime) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if r.EnableBuiltins {
			if handled, err := r.tryBuiltin(ctx, args); handled {
				if err != nil {
					hc := interp.HandlerCtx(ctx)
					fmt.Fprintln(hc.Stderr, err)
					return interp.NewExitStatus(1)
				}
				return nil
			}
		}
		return next(ctx, args)
	}
}

// tryBuiltin returns (false, nil) when args[0] is not registered, so the
// caller falls back to the host binary. A registered command that fails is
// reported as handled; there is no silent fallback.
func (r *VirtualRuntime) tryBuiltin(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	reg := r.Builtins
	if reg == nil {
		reg = builtin.DefaultRegistry
	}
	cmd, found := reg.Lookup(args[0])
	if !found {
		return false, nil
	}
	return true, cmd.Run(ctx, args)
}
