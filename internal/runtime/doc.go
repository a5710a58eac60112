// SPDX-License-Identifier: MPL-2.0

// Package runtime runs shell command strings "as if inside" a case directory.
//
// Two executors are provided: NativeRuntime hands the command to the host's
// POSIX shell, and VirtualRuntime interprets it with mvdan/sh, serving sed and
// ln from the builtin package. Both receive the working directory as part of
// the Request and never change the process cwd, so they are safe to call from
// multiple goroutines.
//
// Every run produces a Result whose Status separates a missing tool, a
// non-zero exit, an unusable working directory and other failures.
package runtime
