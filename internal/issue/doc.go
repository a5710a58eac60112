// SPDX-License-Identifier: MPL-2.0

// Package issue holds user-facing errors with remediation hints and a
// catalog of Markdown pages rendered with glamour for common failures.
package issue
