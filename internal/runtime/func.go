// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
)

// WorkFunc is an injected unit of work scoped to a directory.
type WorkFunc func(ctx context.Context, dir string) error

// RunFunc runs fn against dir and reports the outcome as a Result. The
// directory is handed to fn; the process working directory is left alone.
// A panicking fn is recovered and reported as StatusFailed.
func RunFunc(ctx context.Context, dir string, fn WorkFunc) (result *Result) {
	req := &Request{Dir: dir, Command: "<func>"}
	if err := checkDir(dir); err != nil {
		return workDirResult(req, err)
	}

	result = &Result{dir: dir, command: req.Command}
	defer func() {
		if p := recover(); p != nil {
			result.Status = StatusFailed
			result.ExitCode = 1
			result.Error = fmt.Errorf("panic: %v", p)
		}
	}()

	if err := fn(ctx, dir); err != nil {
		result.Status = StatusFailed
		result.ExitCode = 1
		result.Error = err
		return result
	}
	result.Status = StatusSucceeded
	return result
}
