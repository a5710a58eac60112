// SPDX-License-Identifier: MPL-2.0

package foamdict

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrBlockNotFound is returned when an edit names a dictionary that does not exist.
	ErrBlockNotFound = errors.New("dictionary block not found")
	// ErrKeyNotFound is returned when an edit names a key the block does not contain.
	ErrKeyNotFound = errors.New("key not found")
	// ErrNotAValue is returned when an edit targets a sub-dictionary instead of a value.
	ErrNotAValue = errors.New("entry is a dictionary, not a value")
)

// SyntaxError reports malformed dictionary input.
type SyntaxError struct {
	// Offset is the byte offset of the problem.
	Offset int
	// Line is the 1-based line of Offset.
	Line int
	Msg  string
}

func newSyntaxError(src []byte, offset int, msg string) *SyntaxError {
	if offset > len(src) {
		offset = len(src)
	}
	return &SyntaxError{
		Offset: offset,
		Line:   bytes.Count(src[:offset], []byte("\n")) + 1,
		Msg:    msg,
	}
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
