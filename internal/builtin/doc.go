// SPDX-License-Identifier: MPL-2.0

// Package builtin provides Go implementations of the few POSIX utilities the
// case mutations rely on (sed, ln). The virtual runtime consults
// DefaultRegistry before falling back to host binaries, which keeps the
// generated substitution commands independent of the host's sed flavour.
package builtin
