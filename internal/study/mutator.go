// SPDX-License-Identifier: MPL-2.0

package study

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coriander-cfd/coriander/internal/foamcase"
)

// Built-in mutator names.
const (
	MutatorSetScheme         = "setScheme"
	MutatorSetKey            = "setKey"
	MutatorSetStr            = "setStr"
	MutatorAddKey            = "addKey"
	MutatorControlDict       = "controlDict"
	MutatorEndTime           = "endTime"
	MutatorRemesh            = "remesh"
	MutatorRun               = "run"
	MutatorApply             = "apply"
	MutatorBlockMesh         = "blockMesh"
	MutatorDecompose         = "decompose"
	MutatorReconstruct       = "reconstruct"
	MutatorSample            = "sample"
	MutatorReconstructSample = "reconstructSample"
	MutatorCleanSets         = "cleanSets"
	MutatorCleanTimesteps    = "cleanTimesteps"
)

var (
	// ErrUnknownMutator is returned when a mutator name is not registered.
	ErrUnknownMutator = errors.New("unknown mutator")
	// ErrInvalidParam is returned when a parameter value has the wrong shape
	// for its mutator.
	ErrInvalidParam = errors.New("invalid parameter")
)

type (
	// Param is the single argument a mutator receives. Name selects what is
	// mutated (a scheme block, a file, a key), Value is the study value.
	Param struct {
		Name  string
		Value any
	}

	// Mutator changes one case according to p.
	Mutator func(ctx context.Context, c *foamcase.Case, p Param) error

	// Namer turns a study value into a case directory suffix.
	Namer func(value any) string
)

// MutatorNames returns the built-in mutator names in sorted order.
func MutatorNames() []string {
	m := builtinMutators()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinMutators maps names to the Case operations they drive.
func builtinMutators() map[string]Mutator {
	return map[string]Mutator{
		MutatorSetScheme: func(ctx context.Context, c *foamcase.Case, p Param) error {
			kv, err := stringMap(p.Value)
			if err != nil {
				return err
			}
			return c.SetScheme(ctx, p.Name, kv)
		},
		MutatorSetKey:      fileMutator((*foamcase.Case).SetKey),
		MutatorSetStr:      fileMutator((*foamcase.Case).SetStr),
		MutatorAddKey:      fileMutator((*foamcase.Case).AddKey),
		MutatorControlDict: keyMutator((*foamcase.Case).ControlDict),
		MutatorRemesh:      keyMutator((*foamcase.Case).Remesh),
		MutatorEndTime: func(ctx context.Context, c *foamcase.Case, p Param) error {
			return c.EndTime(ctx, FormatValue(p.Value))
		},
		MutatorRun: func(ctx context.Context, c *foamcase.Case, p Param) error {
			return c.Run(ctx, strings.ReplaceAll(p.Name, "{}", FormatValue(p.Value)))
		},
		MutatorApply: func(ctx context.Context, c *foamcase.Case, p Param) error {
			return c.Apply(ctx, FormatValue(p.Value))
		},
		MutatorBlockMesh:         noParam((*foamcase.Case).BlockMesh),
		MutatorDecompose:         noParam((*foamcase.Case).Decompose),
		MutatorReconstruct:       noParam((*foamcase.Case).Reconstruct),
		MutatorSample:            noParam((*foamcase.Case).Sample),
		MutatorReconstructSample: noParam((*foamcase.Case).ReconstructSample),
		MutatorCleanSets:         noParam((*foamcase.Case).CleanSets),
		MutatorCleanTimesteps:    noParam((*foamcase.Case).CleanTimesteps),
	}
}

// fileMutator adapts operations taking (file, kv): Param.Name is the file.
func fileMutator(op func(*foamcase.Case, context.Context, string, map[string]string) error) Mutator {
	return func(ctx context.Context, c *foamcase.Case, p Param) error {
		kv, err := stringMap(p.Value)
		if err != nil {
			return err
		}
		return op(c, ctx, p.Name, kv)
	}
}

// keyMutator adapts operations taking kv. A scalar value is keyed by Param.Name.
func keyMutator(op func(*foamcase.Case, context.Context, map[string]string) error) Mutator {
	return func(ctx context.Context, c *foamcase.Case, p Param) error {
		if _, ok := p.Value.(map[string]any); ok {
			kv, err := stringMap(p.Value)
			if err != nil {
				return err
			}
			return op(c, ctx, kv)
		}
		if p.Name == "" {
			return fmt.Errorf("%w: scalar value needs a parameter name", ErrInvalidParam)
		}
		return op(c, ctx, map[string]string{p.Name: FormatValue(p.Value)})
	}
}

func noParam(op func(*foamcase.Case, context.Context) error) Mutator {
	return func(ctx context.Context, c *foamcase.Case, _ Param) error {
		return op(c, ctx)
	}
}

// stringMap converts a decoded mapping into key/value strings.
func stringMap(v any) (map[string]string, error) {
	switch m := v.(type) {
	case map[string]string:
		return m, nil
	case map[string]any:
		kv := make(map[string]string, len(m))
		for k, val := range m {
			if _, nested := val.(map[string]any); nested {
				return nil, fmt.Errorf("%w: value of %q must be a scalar", ErrInvalidParam, k)
			}
			kv[k] = FormatValue(val)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("%w: expected a mapping, got %T", ErrInvalidParam, v)
	}
}

// FormatValue renders a study value the way it is written into files and
// command lines.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DefaultNamer returns "_<value>". For a mapping it uses the first key in
// sorted order and that key's "name" entry, or its value when it has none:
// {"divSchemes": {"name": "upwind", ...}} becomes "_divSchemes_upwind".
func DefaultNamer(value any) string {
	m, ok := value.(map[string]any)
	if !ok || len(m) == 0 {
		return "_" + sanitize(FormatValue(value))
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := keys[0]

	label := m[key]
	if sub, ok := label.(map[string]any); ok {
		if name, ok := sub["name"]; ok {
			label = name
		}
	}
	return "_" + sanitize(key) + "_" + sanitize(FormatValue(label))
}

var nameReplacer = strings.NewReplacer("/", "-", " ", "-", "\t", "-")

func sanitize(s string) string {
	return nameReplacer.Replace(s)
}
