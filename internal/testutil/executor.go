// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/coriander-cfd/coriander/internal/runtime"
)

// RecordingExecutor is a runtime.Executor that records requests instead of
// running them. OnRun, when set, can simulate side effects or failures.
type RecordingExecutor struct {
	mu       sync.Mutex
	requests []runtime.Request

	// OnRun is called for every request. A nil return means success.
	OnRun func(req *runtime.Request) *runtime.Result
}

// Name returns "recording".
func (r *RecordingExecutor) Name() string { return "recording" }

// Available returns true.
func (r *RecordingExecutor) Available() bool { return true }

// Run records req and returns OnRun's result, or success.
func (r *RecordingExecutor) Run(_ context.Context, req *runtime.Request) *runtime.Result {
	r.mu.Lock()
	r.requests = append(r.requests, *req)
	r.mu.Unlock()

	if r.OnRun != nil {
		if res := r.OnRun(req); res != nil {
			return res
		}
	}
	return &runtime.Result{Status: runtime.StatusSucceeded}
}

// Commands returns the recorded command strings in order.
func (r *RecordingExecutor) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmds := make([]string, len(r.requests))
	for i, req := range r.requests {
		cmds[i] = req.Command
	}
	return cmds
}

// CommandsIn returns the commands recorded for working directory dir.
func (r *RecordingExecutor) CommandsIn(dir string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cmds []string
	for _, req := range r.requests {
		if req.Dir == dir {
			cmds = append(cmds, req.Command)
		}
	}
	return cmds
}

// Count returns how many recorded commands equal cmd.
func (r *RecordingExecutor) Count(cmd string) int {
	cmds := r.Commands()
	n := 0
	for i := range cmds {
		if cmds[i] == cmd {
			n++
		}
	}
	return n
}

// Ran reports whether cmd was recorded.
func (r *RecordingExecutor) Ran(cmd string) bool {
	return slices.Contains(r.Commands(), cmd)
}
