// SPDX-License-Identifier: MPL-2.0

// Package foamdict parses the brace-delimited dictionary format used by the
// toolkit's case files (controlDict, fvSchemes, ...) into an editable tree.
//
// The tree records byte offsets into the source. Edits splice new text into
// the original bytes instead of re-serializing, so comments, alignment and
// unrelated entries survive byte-for-byte.
package foamdict
