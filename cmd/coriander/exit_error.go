// SPDX-License-Identifier: MPL-2.0

package cmd

import "strconv"

// ExitError ends the process with Code. A nil Err means the command has
// already reported the failure, as doctor does for an unsourced toolkit.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit code " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
