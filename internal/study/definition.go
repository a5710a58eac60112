// SPDX-License-Identifier: MPL-2.0

package study

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/coriander-cfd/coriander/internal/cueutil"
)

//go:embed study_schema.cue
var studySchema []byte

// ErrInvalidDefinition is returned for definitions missing required fields.
var ErrInvalidDefinition = errors.New("invalid study definition")

// Definition describes a parametric study.
type Definition struct {
	// Base is the case every study case is cloned from.
	Base string `json:"base" toml:"base"`
	// Dir is the study directory holding the cases.
	Dir string `json:"dir" toml:"dir"`
	// Mutator names the operation applied to each case.
	Mutator string `json:"mutator" toml:"mutator"`
	// CaseName prefixes every case directory name.
	CaseName string `json:"case_name" toml:"case_name"`
	// Param is passed as Param.Name to the mutator.
	Param string `json:"param" toml:"param"`
	// Values holds one value per case.
	Values []any `json:"values" toml:"values"`
	// LinkMesh symlinks the base mesh into every case.
	LinkMesh bool `json:"link_mesh" toml:"link_mesh"`
	// Exec lists commands run in every case once mutated.
	Exec []string `json:"exec,omitempty" toml:"exec"`
	// Parallelism bounds concurrent case processing; 0 means sequential.
	Parallelism int `json:"parallelism,omitempty" toml:"parallelism"`
}

// Validate checks the fields New depends on.
func (d *Definition) Validate() error {
	var missing []string
	if d.Base == "" {
		missing = append(missing, "base")
	}
	if d.Dir == "" {
		missing = append(missing, "dir")
	}
	if d.Mutator == "" {
		missing = append(missing, "mutator")
	}
	if len(d.Values) == 0 {
		missing = append(missing, "values")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidDefinition, strings.Join(missing, ", "))
	}
	if d.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative", ErrInvalidDefinition)
	}
	return nil
}

// LoadDefinition reads a study definition from a .cue or .toml file.
// Relative base and dir paths are resolved against the file's directory.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read study definition: %w", err)
	}

	var def *Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		res, err := cueutil.ParseAndDecode[Definition](studySchema, data, "#Study", cueutil.WithFilename(path))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
		def = res.Value
	case ".toml":
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
			return nil, err
		}
		def = &Definition{CaseName: "case"}
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(def); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, tomlError(err))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidDefinition, ext)
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	root := filepath.Dir(path)
	def.Base = resolve(root, def.Base)
	def.Dir = resolve(root, def.Dir)
	return def, nil
}

// tomlError names the offending keys of a strict-mode decode failure.
func tomlError(err error) error {
	var strict *toml.StrictMissingError
	if !errors.As(err, &strict) {
		return err
	}
	keys := make([]string, len(strict.Errors))
	for i := range strict.Errors {
		keys[i] = strings.Join(strict.Errors[i].Key(), ".")
	}
	return fmt.Errorf("unknown fields %s: %w", strings.Join(keys, ", "), err)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
