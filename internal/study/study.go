// SPDX-License-Identifier: MPL-2.0

// Package study drives parametric studies: one clone of a base case per
// value, each mutated by a named mutator, plus batch operations over the
// resulting cases.
package study

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/coriander-cfd/coriander/internal/foamcase"
)

// ErrDuplicateCase is returned when two values map to the same case directory.
var ErrDuplicateCase = errors.New("duplicate case name")

type (
	// Variation is a set of sibling cases derived from one base case, one
	// per value. Cases[i] was produced from Values[i].
	Variation struct {
		Base   string
		Dir    string
		Cases  []*foamcase.Case
		Values []any

		parallelism int
		logger      *log.Logger
		mutators    map[string]Mutator
	}

	// Call names a mutator and its parameter for Variation.Apply.
	Call struct {
		Mutator string
		Param   Param
	}

	// Option configures New.
	Option func(*settings)

	settings struct {
		parallelism int
		namer       Namer
		caseOpts    []foamcase.Option
		ignore      []string
		logger      *log.Logger
		mutators    map[string]Mutator
	}
)

// WithParallelism bounds how many cases are processed at once, taking
// precedence over Definition.Parallelism. Values below 1 mean sequential.
func WithParallelism(n int) Option {
	return func(s *settings) { s.parallelism = max(n, 1) }
}

// WithNamer replaces DefaultNamer.
func WithNamer(n Namer) Option {
	return func(s *settings) { s.namer = n }
}

// WithCaseOptions passes options to every cloned case.
func WithCaseOptions(opts ...foamcase.Option) Option {
	return func(s *settings) { s.caseOpts = append(s.caseOpts, opts...) }
}

// WithIgnore sets the clone exclusion patterns.
func WithIgnore(patterns []string) Option {
	return func(s *settings) { s.ignore = patterns }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMutators registers additional mutators, overriding built-ins of the same name.
func WithMutators(m map[string]Mutator) Option {
	return func(s *settings) {
		for name, fn := range m {
			s.mutators[name] = fn
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		namer:    DefaultNamer,
		mutators: builtinMutators(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Plan returns the case directories a definition produces, in value order,
// without touching the filesystem. A nil namer means DefaultNamer.
func Plan(def *Definition, namer Namer) ([]string, error) {
	if namer == nil {
		namer = DefaultNamer
	}
	dirs := make([]string, len(def.Values))
	seen := make(map[string]int, len(def.Values))
	for i, v := range def.Values {
		dir := filepath.Join(def.Dir, def.CaseName+namer(v))
		if j, dup := seen[dir]; dup {
			return nil, fmt.Errorf("%w: values %d and %d both map to %s", ErrDuplicateCase, j, i, dir)
		}
		seen[dir] = i
		dirs[i] = dir
	}
	return dirs, nil
}

// New clones def.Base once per value into def.Dir, applies the mutator to
// each clone exactly once and then runs def.Exec in every case.
//
// The definition, mutator name and case names are validated before anything
// is written. A clone failure aborts the study; mutator and command failures
// are collected per case and returned joined alongside the Variation.
func New(ctx context.Context, def *Definition, opts ...Option) (*Variation, error) {
	s := newSettings(opts)

	if err := def.Validate(); err != nil {
		return nil, err
	}
	mutate, ok := s.mutators[def.Mutator]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutator, def.Mutator)
	}
	dirs, err := Plan(def, s.namer)
	if err != nil {
		return nil, err
	}
	if s.parallelism == 0 {
		s.parallelism = max(def.Parallelism, 1)
	}

	v := &Variation{
		Base:        def.Base,
		Dir:         def.Dir,
		Cases:       make([]*foamcase.Case, len(dirs)),
		Values:      def.Values,
		parallelism: s.parallelism,
		logger:      s.logger,
		mutators:    s.mutators,
	}

	if err := os.MkdirAll(def.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create study directory: %w", err)
	}

	cloneOpts := foamcase.CloneOptions{
		LinkMesh:   def.LinkMesh,
		Ignore:     s.ignore,
		Modifiable: true,
	}
	caseOpts := append([]foamcase.Option{foamcase.WithLogger(s.logger)}, s.caseOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.parallelism)
	for i, dir := range dirs {
		g.Go(func() error {
			c, err := foamcase.Clone(gctx, def.Base, dir, cloneOpts, caseOpts...)
			if err != nil {
				return fmt.Errorf("clone %s: %w", dir, err)
			}
			v.Cases[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("study cloned", "dir", def.Dir, "cases", len(v.Cases))

	errs := []error{v.forEach(ctx, func(ctx context.Context, i int, c *foamcase.Case) error {
		return mutate(ctx, c, Param{Name: def.Param, Value: def.Values[i]})
	})}
	if len(def.Exec) > 0 {
		errs = append(errs, v.Execute(ctx, def.Exec...))
	}
	return v, errors.Join(errs...)
}

// forEach runs fn for every case, at most parallelism at a time. A failing
// case does not stop the others; errors are tagged with the case path.
func (v *Variation) forEach(ctx context.Context, fn func(ctx context.Context, i int, c *foamcase.Case) error) error {
	var g errgroup.Group
	g.SetLimit(max(v.parallelism, 1))

	errs := make([]error, len(v.Cases))
	for i, c := range v.Cases {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = fn(ctx, i, c)
			}
			if err != nil {
				v.logger.Error("case failed", "case", c.Path, "err", err)
				errs[i] = fmt.Errorf("%s: %w", c.Path, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Apply runs each call against every case, in call order.
func (v *Variation) Apply(ctx context.Context, calls ...Call) error {
	fns := make([]Mutator, len(calls))
	for i, call := range calls {
		fn, ok := v.mutators[call.Mutator]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMutator, call.Mutator)
		}
		fns[i] = fn
	}
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		for i, fn := range fns {
			if err := fn(ctx, c, calls[i].Param); err != nil {
				return fmt.Errorf("%s: %w", calls[i].Mutator, err)
			}
		}
		return nil
	})
}

// ApplyAll runs each command in every case via Case.Apply.
func (v *Variation) ApplyAll(ctx context.Context, cmds ...string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		for _, cmd := range cmds {
			if err := c.Apply(ctx, cmd); err != nil {
				return err
			}
		}
		return nil
	})
}

// Execute runs each solver command in every case via Case.Run.
func (v *Variation) Execute(ctx context.Context, cmds ...string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		for _, cmd := range cmds {
			if err := c.Run(ctx, cmd); err != nil {
				return err
			}
		}
		return nil
	})
}

func (v *Variation) each(ctx context.Context, op func(*foamcase.Case, context.Context) error) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return op(c, ctx)
	})
}

// Decompose decomposes every case not yet decomposed.
func (v *Variation) Decompose(ctx context.Context) error {
	return v.each(ctx, (*foamcase.Case).Decompose)
}

// Reconstruct reconstructs every case.
func (v *Variation) Reconstruct(ctx context.Context) error {
	return v.each(ctx, (*foamcase.Case).Reconstruct)
}

// ReconstructSample reconstructs and samples every case.
func (v *Variation) ReconstructSample(ctx context.Context) error {
	return v.each(ctx, (*foamcase.Case).ReconstructSample)
}

// SetScheme sets scheme entries of block in every case.
func (v *Variation) SetScheme(ctx context.Context, block string, values map[string]string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.SetScheme(ctx, block, values)
	})
}

// SetKey sets keys of file in every case.
func (v *Variation) SetKey(ctx context.Context, file string, kv map[string]string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.SetKey(ctx, file, kv)
	})
}

// SetStr applies raw substitutions to file in every case.
func (v *Variation) SetStr(ctx context.Context, file string, kv map[string]string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.SetStr(ctx, file, kv)
	})
}

// AddKey appends lines to file in every case.
func (v *Variation) AddKey(ctx context.Context, file string, kv map[string]string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.AddKey(ctx, file, kv)
	})
}

// ControlDict sets controlDict keys in every case.
func (v *Variation) ControlDict(ctx context.Context, kv map[string]string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.ControlDict(ctx, kv)
	})
}

// EndTime sets endTime in every case.
func (v *Variation) EndTime(ctx context.Context, value string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.EndTime(ctx, value)
	})
}

// MapInitial maps fields from source at srcTime onto every case.
func (v *Variation) MapInitial(ctx context.Context, source, srcTime string) error {
	return v.forEach(ctx, func(ctx context.Context, _ int, c *foamcase.Case) error {
		return c.MapInitial(ctx, source, srcTime)
	})
}
