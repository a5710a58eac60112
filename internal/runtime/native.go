// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// NativeRuntime executes commands with the host's POSIX shell.
type NativeRuntime struct {
	// Shell overrides the default shell.
	Shell string
	// Env is layered over the host environment for every command.
	Env map[string]string
}

// NewNativeRuntime creates a new native runtime.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Available returns whether a shell can be found.
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Run executes req.Command via `<shell> -c` with cmd.Dir set to req.Dir.
func (r *NativeRuntime) Run(ctx context.Context, req *Request) *Result {
	if err := checkDir(req.Dir); err != nil {
		return workDirResult(req, err)
	}

	result := &Result{dir: req.Dir, command: req.Command}

	shell, err := r.getShell()
	if err != nil {
		result.Status = StatusFailed
		result.ExitCode = 1
		result.Error = err
		return result
	}

	cmd := exec.CommandContext(ctx, shell, "-c", req.Command)
	cmd.Dir = req.Dir
	cmd.Env = mergeEnv(r.Env, req.Env)

	var stdout, stderr bytes.Buffer
	if req.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout, cmd.Stderr = outputs(req)
	}

	err = cmd.Run()
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			result.ExitCode = ExitCode(exitErr.ExitCode())
			result.Status = classifyExit(result.ExitCode)
			return result
		}
		result.ExitCode = 1
		result.Status = StatusFailed
		result.Error = fmt.Errorf("failed to execute command: %w", err)
		return result
	}

	result.Status = StatusSucceeded
	return result
}

// getShell determines which shell to use.
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return exec.LookPath(r.Shell)
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	return "", fmt.Errorf("no shell found")
}
