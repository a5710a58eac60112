// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// Status values reported in Result.Status.
const (
	// StatusSucceeded means the command exited with code 0.
	StatusSucceeded Status = iota
	// StatusToolNotFound means the shell could not find the named executable.
	StatusToolNotFound
	// StatusExitedNonZero means the command ran and exited with a non-zero code.
	StatusExitedNonZero
	// StatusWorkDirUnavailable means the working directory is missing or unusable.
	StatusWorkDirUnavailable
	// StatusFailed covers everything else (shell missing, interpreter errors, panics).
	StatusFailed
)

// exitCodeNotFound is the POSIX shell exit status for "command not found".
const exitCodeNotFound ExitCode = 127

var (
	// ErrToolNotFound is matched by ResultErrors with StatusToolNotFound.
	ErrToolNotFound = errors.New("external tool not found")
	// ErrExitedNonZero is matched by ResultErrors with StatusExitedNonZero.
	ErrExitedNonZero = errors.New("external tool exited non-zero")
	// ErrWorkDirUnavailable is matched by ResultErrors with StatusWorkDirUnavailable.
	ErrWorkDirUnavailable = errors.New("working directory unavailable")
	// ErrExecutionFailed is matched by ResultErrors with StatusFailed.
	ErrExecutionFailed = errors.New("execution failed")
)

type (
	// Status classifies how a command execution ended.
	Status int

	// ResultError is the error form of a failed Result.
	ResultError struct {
		Status   Status
		ExitCode ExitCode
		Dir      string
		Command  string
		Cause    error
		Stderr   string
	}
)

// String returns a short lowercase name for the status.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusToolNotFound:
		return "tool not found"
	case StatusExitedNonZero:
		return "exited non-zero"
	case StatusWorkDirUnavailable:
		return "working directory unavailable"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// sentinel returns the package error matched by errors.Is for this status.
func (s Status) sentinel() error {
	switch s {
	case StatusToolNotFound:
		return ErrToolNotFound
	case StatusExitedNonZero:
		return ErrExitedNonZero
	case StatusWorkDirUnavailable:
		return ErrWorkDirUnavailable
	default:
		return ErrExecutionFailed
	}
}

// Error implements the error interface.
func (e *ResultError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "%q in %s: %s", e.Command, e.Dir, e.Status)
	if e.Status == StatusExitedNonZero || e.Status == StatusToolNotFound {
		fmt.Fprintf(&msg, " (exit code %s)", e.ExitCode)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg.WriteString(": ")
		msg.WriteString(stderr)
	}
	return msg.String()
}

// Is matches the status sentinel.
func (e *ResultError) Is(target error) bool {
	return target == e.Status.sentinel()
}

// Unwrap returns the underlying cause.
func (e *ResultError) Unwrap() error {
	return e.Cause
}

// classifyExit maps a shell exit code to a Status.
func classifyExit(code ExitCode) Status {
	switch {
	case code.IsSuccess():
		return StatusSucceeded
	case code == exitCodeNotFound:
		return StatusToolNotFound
	default:
		return StatusExitedNonZero
	}
}
