// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result holds a decoded value together with the unified CUE value it came from.
type Result[T any] struct {
	// Value is the decoded Go value.
	Value *T
	// Unified is the schema-unified CUE value, for callers that need to
	// inspect fields the Go type does not carry.
	Unified cue.Value
}

// ParseAndDecode compiles schema, unifies data with the definition at
// defPath, validates and decodes the result into T.
//
// Errors from user data are reported with the filename and the JSON-style
// path of the offending field (see FormatError).
func ParseAndDecode[T any](schema, data []byte, defPath string, opts ...Option) (*Result[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	def := schemaValue.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", defPath, def.Err())
	}

	unified := def.Unify(userValue)

	var validateOpts []cue.Option
	if options.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, filename)
	}

	var value T
	if err := unified.Decode(&value); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Result[T]{Value: &value, Unified: unified}, nil
}

// ParseAndDecodeString is ParseAndDecode for schemas held as string constants.
func ParseAndDecodeString[T any](schema string, data []byte, defPath string, opts ...Option) (*Result[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, defPath, opts...)
}

// CheckFileSize returns an error when data is larger than maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
