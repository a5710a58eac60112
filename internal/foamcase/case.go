// SPDX-License-Identifier: MPL-2.0

// Package foamcase models a toolkit case directory and the operations that
// mutate and drive it. Every operation runs through a runtime.Executor with
// the case directory as its working directory.
package foamcase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	cp "github.com/otiai10/copy"

	"github.com/coriander-cfd/coriander/internal/foamcmd"
	"github.com/coriander-cfd/coriander/internal/foamdict"
	"github.com/coriander-cfd/coriander/internal/runtime"
)

const (
	// MarkerDir is the hidden per-case folder holding lineage and completion logs.
	MarkerDir = ".coriander"

	parentFile     = "parent"
	modifiableFile = "modifiable"
	blockMeshLog   = "blockMesh.log"
	processor0     = "processor0"
)

type (
	// Tools names the external executables a Case invokes.
	Tools struct {
		BlockMesh      string `json:"block_mesh" mapstructure:"block_mesh"`
		DecomposePar   string `json:"decompose_par" mapstructure:"decompose_par"`
		ReconstructPar string `json:"reconstruct_par" mapstructure:"reconstruct_par"`
		Sample         string `json:"sample" mapstructure:"sample"`
		MapFields      string `json:"map_fields" mapstructure:"map_fields"`
	}

	// Case is one simulation case directory.
	Case struct {
		// Path is the case directory.
		Path string
		// Parent is the path the case was cloned from, if any.
		Parent string
		// Modifiable is recorded for callers; operations do not check it.
		Modifiable bool

		exec   runtime.Executor
		logger *log.Logger
		tools  Tools
		stdout io.Writer
		stderr io.Writer
	}

	// Option configures a Case.
	Option func(*Case)
)

// DefaultTools returns the stock toolkit executable names.
func DefaultTools() Tools {
	return Tools{
		BlockMesh:      foamcmd.BlockMesh,
		DecomposePar:   foamcmd.DecomposePar,
		ReconstructPar: foamcmd.ReconstructPar,
		Sample:         foamcmd.Sample,
		MapFields:      foamcmd.MapFields,
	}
}

// WithExecutor sets the executor used for every command.
func WithExecutor(e runtime.Executor) Option {
	return func(c *Case) { c.exec = e }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Case) { c.logger = l }
}

// WithTools overrides executable names. Empty fields keep their defaults.
func WithTools(t Tools) Option {
	return func(c *Case) {
		if t.BlockMesh != "" {
			c.tools.BlockMesh = t.BlockMesh
		}
		if t.DecomposePar != "" {
			c.tools.DecomposePar = t.DecomposePar
		}
		if t.ReconstructPar != "" {
			c.tools.ReconstructPar = t.ReconstructPar
		}
		if t.Sample != "" {
			c.tools.Sample = t.Sample
		}
		if t.MapFields != "" {
			c.tools.MapFields = t.MapFields
		}
	}
}

// WithOutput streams command output to stdout and stderr instead of capturing it.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Case) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithParent records the lineage of the case.
func WithParent(parent string) Option {
	return func(c *Case) { c.Parent = parent }
}

// WithModifiable sets the Modifiable flag.
func WithModifiable(m bool) Option {
	return func(c *Case) { c.Modifiable = m }
}

func newCase(path string, opts ...Option) *Case {
	c := &Case{
		Path:  path,
		tools: DefaultTools(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		c.exec = runtime.NewVirtualRuntime(true)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Open wraps an existing case directory. It creates the marker folder and
// records the lineage; without WithParent the stored lineage is read back.
func Open(path string, opts ...Option) (*Case, error) {
	c := newCase(path, opts...)
	if err := c.initMarker(); err != nil {
		return nil, err
	}
	return c, nil
}

// options returns the options that reproduce this case's dependencies.
func (c *Case) options() []Option {
	return []Option{
		WithExecutor(c.exec),
		WithLogger(c.logger),
		WithTools(c.tools),
		WithOutput(c.stdout, c.stderr),
	}
}

func (c *Case) markerPath(name string) string {
	return filepath.Join(c.Path, MarkerDir, name)
}

func (c *Case) initMarker() error {
	info, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("open case: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("open case: %s is not a directory", c.Path)
	}
	if err := os.MkdirAll(filepath.Join(c.Path, MarkerDir), 0o755); err != nil {
		return fmt.Errorf("create marker folder: %w", err)
	}

	if c.Parent == "" {
		c.Parent = readParent(c.markerPath(parentFile))
	} else if err := os.WriteFile(c.markerPath(parentFile), []byte("parent:"+c.Parent+"\n"), 0o644); err != nil {
		return fmt.Errorf("record lineage: %w", err)
	}

	if c.Modifiable {
		if err := os.WriteFile(c.markerPath(modifiableFile), nil, 0o644); err != nil {
			return fmt.Errorf("record modifiable flag: %w", err)
		}
	} else if _, err := os.Stat(c.markerPath(modifiableFile)); err == nil {
		c.Modifiable = true
	}
	return nil
}

func readParent(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "parent:"))
}

// run executes cmd in the case directory.
func (c *Case) run(ctx context.Context, cmd string) (*runtime.Result, error) {
	c.logger.Debug("run", "case", c.Path, "cmd", cmd)
	req := &runtime.Request{Dir: c.Path, Command: cmd}
	if c.stdout == nil && c.stderr == nil {
		req.Capture = true
	} else {
		req.Stdout, req.Stderr = c.stdout, c.stderr
	}
	res := c.exec.Run(ctx, req)
	if err := res.Err(); err != nil {
		c.logger.Error("command failed", "case", c.Path, "cmd", cmd, "status", res.Status)
		return res, err
	}
	return res, nil
}

func (c *Case) execute(ctx context.Context, cmd string) error {
	_, err := c.run(ctx, cmd)
	return err
}

// runFunc executes fn against the case directory.
func (c *Case) runFunc(ctx context.Context, fn runtime.WorkFunc) error {
	return runtime.RunFunc(ctx, c.Path, fn).Err()
}

// sortedKeys returns the keys of kv in order, so edits are deterministic.
func sortedKeys(kv map[string]string) []string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetScheme rewrites keys of block in system/fvSchemes. The key "" rewrites
// every key of the block. All edits are applied in memory and the file is
// written once; on error it is left untouched.
func (c *Case) SetScheme(ctx context.Context, block string, values map[string]string) error {
	return c.runFunc(ctx, func(_ context.Context, dir string) error {
		path := filepath.Join(dir, foamcmd.FvSchemes)
		return editDict(path, func(f *foamdict.File) error {
			for _, key := range sortedKeys(values) {
				var err error
				if key == "" {
					err = f.SetAll(block, values[key])
				} else {
					err = f.SetValue(block, key, values[key])
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// editDict parses path, applies edit, and atomically writes the result.
func editDict(path string, edit func(*foamdict.File) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := foamdict.Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := edit(f); err != nil {
		return fmt.Errorf("edit %s: %w", path, err)
	}
	return writeFileAtomic(path, f.Bytes(), info.Mode().Perm())
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SetKey replaces "key <value>;" statements in file, one substitution per key.
func (c *Case) SetKey(ctx context.Context, file string, kv map[string]string) error {
	for _, k := range sortedKeys(kv) {
		if err := c.execute(ctx, foamcmd.SetKey(k, kv[k], file)); err != nil {
			return err
		}
	}
	return nil
}

// AddKey appends each value of kv as a line of file.
func (c *Case) AddKey(ctx context.Context, file string, kv map[string]string) error {
	for _, k := range sortedKeys(kv) {
		if err := c.execute(ctx, foamcmd.AppendLine(kv[k], file)); err != nil {
			return err
		}
	}
	return nil
}

// SetStr substitutes each raw pattern of kv with its replacement in file.
func (c *Case) SetStr(ctx context.Context, file string, kv map[string]string) error {
	for _, k := range sortedKeys(kv) {
		if err := c.execute(ctx, foamcmd.Subs(k, kv[k], file)); err != nil {
			return err
		}
	}
	return nil
}

// ControlDict sets keys of system/controlDict.
func (c *Case) ControlDict(ctx context.Context, kv map[string]string) error {
	return c.SetKey(ctx, foamcmd.ControlDict, kv)
}

// EndTime sets endTime in system/controlDict.
func (c *Case) EndTime(ctx context.Context, value string) error {
	return c.ControlDict(ctx, map[string]string{"endTime": value})
}

// Meshed reports whether mesh generation completed, by the presence of its log.
func (c *Case) Meshed() bool {
	_, err := os.Stat(c.markerPath(blockMeshLog))
	return err == nil
}

// Remesh substitutes kv into blockMeshDict and regenerates the mesh. It does
// nothing once the mesh log exists.
func (c *Case) Remesh(ctx context.Context, kv map[string]string) error {
	if c.Meshed() {
		c.logger.Info("mesh exists, skipping remesh", "case", c.Path)
		return nil
	}
	for _, k := range sortedKeys(kv) {
		if err := c.execute(ctx, foamcmd.SetMeshKey(k, kv[k])); err != nil {
			return err
		}
	}
	return c.generateMesh(ctx)
}

// BlockMesh generates the mesh unless its log already exists.
func (c *Case) BlockMesh(ctx context.Context) error {
	if c.Meshed() {
		c.logger.Info("mesh exists, skipping blockMesh", "case", c.Path)
		return nil
	}
	return c.generateMesh(ctx)
}

func (c *Case) generateMesh(ctx context.Context) error {
	logRel := filepath.ToSlash(filepath.Join(MarkerDir, blockMeshLog))
	if err := c.execute(ctx, foamcmd.Redirect(c.tools.BlockMesh, logRel)); err != nil {
		// The redirect creates the log even on failure; it must only mark success.
		_ = os.Remove(c.markerPath(blockMeshLog))
		return err
	}
	return nil
}

// Decomposed reports whether processor0 exists.
func (c *Case) Decomposed() bool {
	info, err := os.Stat(filepath.Join(c.Path, processor0))
	return err == nil && info.IsDir()
}

// Decompose runs the domain decomposition unless the case is already decomposed.
func (c *Case) Decompose(ctx context.Context) error {
	if c.Decomposed() {
		c.logger.Info("already decomposed, skipping", "case", c.Path)
		return nil
	}
	return c.execute(ctx, c.tools.DecomposePar)
}

// Reconstruct reassembles new time steps from the processor directories.
func (c *Case) Reconstruct(ctx context.Context) error {
	return c.execute(ctx, c.tools.ReconstructPar+" -newTimes")
}

// Sample runs the sampling utility.
func (c *Case) Sample(ctx context.Context) error {
	return c.execute(ctx, c.tools.Sample)
}

// ReconstructSample runs Reconstruct followed by Sample.
func (c *Case) ReconstructSample(ctx context.Context) error {
	if err := c.Reconstruct(ctx); err != nil {
		return err
	}
	return c.Sample(ctx)
}

// Run executes a solver command in the case directory.
func (c *Case) Run(ctx context.Context, solver string) error {
	c.logger.Info("run", "case", c.Path, "solver", solver)
	return c.execute(ctx, solver)
}

// Apply executes an arbitrary command in the case directory.
func (c *Case) Apply(ctx context.Context, cmd string) error {
	return c.execute(ctx, cmd)
}

// RunSimulation runs cmd and returns the last "Time" line of the case's log file.
func (c *Case) RunSimulation(ctx context.Context, cmd string) (string, error) {
	if err := c.execute(ctx, cmd); err != nil {
		return "", err
	}
	res := c.exec.Run(ctx, &runtime.Request{Dir: c.Path, Command: foamcmd.LastIterationCmd, Capture: true})
	if err := res.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Output), nil
}

// MapInitial maps fields from the case at source (time srcTime, default
// latestTime) onto this case.
func (c *Case) MapInitial(ctx context.Context, source, srcTime string) error {
	if srcTime == "" {
		srcTime = "latestTime"
	}
	target, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	return c.execute(ctx, foamcmd.MapFieldsCmd(c.tools.MapFields, target, srcTime, src))
}

// CleanSets removes sampled sets.
func (c *Case) CleanSets(ctx context.Context) error {
	return c.execute(ctx, "rm -rf postProcessing/sets")
}

// CleanTimesteps removes every non-zero time directory at the case root.
func (c *Case) CleanTimesteps(ctx context.Context) error {
	return c.runFunc(ctx, func(_ context.Context, dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		var errs []error
		for _, e := range entries {
			if e.IsDir() && IsTimeDir(e.Name()) {
				if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return errors.Join(errs...)
	})
}

// DeriveFromFile copies the field file src to dst (both case-relative) and
// sets the dimension units of the copy.
func (c *Case) DeriveFromFile(ctx context.Context, src, dst, units string) error {
	err := c.runFunc(ctx, func(_ context.Context, dir string) error {
		return cp.Copy(filepath.Join(dir, src), filepath.Join(dir, dst))
	})
	if err != nil {
		return err
	}
	return c.execute(ctx, foamcmd.ChangeUnits(units, dst))
}

// Clone copies the case to target. Executor, logger and tools carry over.
func (c *Case) Clone(ctx context.Context, target string, opts CloneOptions) (*Case, error) {
	return Clone(ctx, c.Path, target, opts, c.options()...)
}

// ParseTime parses a time directory name.
func ParseTime(name string) (float64, bool) {
	v, err := strconv.ParseFloat(name, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsTimeDir reports whether name is a non-zero time directory. "0" holds the
// initial conditions and is not a result.
func IsTimeDir(name string) bool {
	v, ok := ParseTime(name)
	return ok && v != 0
}
