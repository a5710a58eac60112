// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes user-supplied CUE documents against an embedded
// schema definition.
//
// Parsing compiles the schema, unifies the user data with one of its
// definitions, validates the result and decodes it into a Go value:
//
//	//go:embed study_schema.cue
//	var studySchema []byte
//
//	res, err := cueutil.ParseAndDecode[Definition](studySchema, data, "#Study",
//	    cueutil.WithFilename(path))
//	if err != nil {
//	    return nil, err
//	}
//	return res.Value, nil
package cueutil
