// SPDX-License-Identifier: MPL-2.0

package study

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coriander-cfd/coriander/internal/foamcase"
	"github.com/coriander-cfd/coriander/internal/foamcmd"
	"github.com/coriander-cfd/coriander/internal/runtime"
	"github.com/coriander-cfd/coriander/internal/testutil"
)

func newDefinition(t *testing.T, mutator, param string, values ...any) *Definition {
	t.Helper()

	root := t.TempDir()
	base := testutil.WriteCase(t, filepath.Join(root, "base"))
	return &Definition{
		Base:     base,
		Dir:      filepath.Join(root, "study"),
		Mutator:  mutator,
		CaseName: "case",
		Param:    param,
		Values:   values,
	}
}

func TestDefaultNamer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 100, "_100"},
		{"float", 0.5, "_0.5"},
		{"string", "upwind", "_upwind"},
		{"path separators", "Gauss linear/limited", "_Gauss-linear-limited"},
		{"named mapping", map[string]any{"div(phi,U)": map[string]any{"name": "upwind", "value": "Gauss upwind"}}, "_div(phi,U)_upwind"},
		{"plain mapping", map[string]any{"nx": 40, "ny": 20}, "_nx_40"},
		{"empty mapping", map[string]any{}, "_map[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DefaultNamer(tt.value); got != tt.want {
				t.Errorf("DefaultNamer(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	def := &Definition{Dir: "study", CaseName: "nu", Values: []any{1, 2, 3}}
	dirs, err := Plan(def, nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := []string{
		filepath.Join("study", "nu_1"),
		filepath.Join("study", "nu_2"),
		filepath.Join("study", "nu_3"),
	}
	if !slices.Equal(dirs, want) {
		t.Errorf("Plan() = %v, want %v", dirs, want)
	}

	def.Values = []any{1, "1"}
	if _, err := Plan(def, nil); !errors.Is(err, ErrDuplicateCase) {
		t.Errorf("Plan() error = %v, want ErrDuplicateCase", err)
	}
}

func TestMutatorNames(t *testing.T) {
	t.Parallel()

	names := MutatorNames()
	if !slices.IsSorted(names) {
		t.Errorf("MutatorNames() not sorted: %v", names)
	}
	for _, want := range []string{MutatorSetScheme, MutatorSetKey, MutatorEndTime, MutatorRun, MutatorApply} {
		if !slices.Contains(names, want) {
			t.Errorf("MutatorNames() missing %q", want)
		}
	}
}

func TestNew_RejectsBeforeTouchingDisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(d *Definition)
		wantErr error
	}{
		{"unknown mutator", func(d *Definition) { d.Mutator = "explode" }, ErrUnknownMutator},
		{"duplicate names", func(d *Definition) { d.Values = []any{"a", "a"} }, ErrDuplicateCase},
		{"no values", func(d *Definition) { d.Values = nil }, ErrInvalidDefinition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := newDefinition(t, MutatorEndTime, "", 1, 2)
			tt.mutate(def)
			exec := &testutil.RecordingExecutor{}

			_, err := New(context.Background(), def, WithCaseOptions(foamcase.WithExecutor(exec)))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if testutil.Exists(def.Dir) {
				t.Error("study directory should not be created")
			}
			if n := len(exec.Commands()); n != 0 {
				t.Errorf("executor ran %d commands, want 0", n)
			}
		})
	}
}

func TestNew_ClonesAndMutatesEachCaseOnce(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, MutatorEndTime, "", 10, 20, 30)
	def.Exec = []string{foamcmd.PisoFoam}
	exec := &testutil.RecordingExecutor{}

	v, err := New(context.Background(), def, WithCaseOptions(foamcase.WithExecutor(exec)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(v.Cases) != len(def.Values) {
		t.Fatalf("len(Cases) = %d, want %d", len(v.Cases), len(def.Values))
	}

	for i, c := range v.Cases {
		wantDir := filepath.Join(def.Dir, "case_"+FormatValue(def.Values[i]))
		if c.Path != wantDir {
			t.Errorf("Cases[%d].Path = %q, want %q", i, c.Path, wantDir)
		}
		if c.Parent != def.Base {
			t.Errorf("Cases[%d].Parent = %q, want %q", i, c.Parent, def.Base)
		}
		if !c.Modifiable {
			t.Errorf("Cases[%d] should be modifiable", i)
		}
		want := []string{
			foamcmd.SetKey("endTime", FormatValue(def.Values[i]), foamcmd.ControlDict),
			foamcmd.PisoFoam,
		}
		if got := exec.CommandsIn(c.Path); !slices.Equal(got, want) {
			t.Errorf("commands in %s = %q, want %q", c.Path, got, want)
		}
	}
}

func TestNew_SetSchemeEditsEveryCase(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, MutatorSetScheme, "divSchemes",
		map[string]any{"div(phi,U)": "Gauss upwind"},
		map[string]any{"div(phi,U)": "Gauss limitedLinear 1"},
	)
	def.CaseName = "div"
	namer := func(v any) string {
		return "_" + strings.Fields(v.(map[string]any)["div(phi,U)"].(string))[1]
	}

	v, err := New(context.Background(), def, WithNamer(namer), WithParallelism(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i, want := range []string{"Gauss upwind", "Gauss limitedLinear 1"} {
		got := testutil.MustReadFile(t, filepath.Join(v.Cases[i].Path, foamcmd.FvSchemes))
		if !strings.Contains(got, "div(phi,U)      "+want+";") {
			t.Errorf("case %d fvSchemes missing %q:\n%s", i, want, got)
		}
	}
	if filepath.Base(v.Cases[1].Path) != "div_limitedLinear" {
		t.Errorf("custom namer not used: %s", v.Cases[1].Path)
	}
}

func TestNew_MutatorFailureDoesNotStopOtherCases(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, MutatorRun, "solver -n {}", 1, 2, 3)
	exec := &testutil.RecordingExecutor{
		OnRun: func(req *runtime.Request) *runtime.Result {
			if req.Command == "solver -n 2" {
				return &runtime.Result{Status: runtime.StatusExitedNonZero, ExitCode: 2}
			}
			return nil
		},
	}

	v, err := New(context.Background(), def, WithCaseOptions(foamcase.WithExecutor(exec)))
	if err == nil {
		t.Fatal("New() should report the failing case")
	}
	if v == nil {
		t.Fatal("New() should return the variation alongside mutator errors")
	}
	if !strings.Contains(err.Error(), v.Cases[1].Path) {
		t.Errorf("error %q should name the failing case", err)
	}
	for _, cmd := range []string{"solver -n 1", "solver -n 2", "solver -n 3"} {
		if !exec.Ran(cmd) {
			t.Errorf("command %q was not run", cmd)
		}
	}
}

func TestNew_Parallel(t *testing.T) {
	t.Parallel()

	const limit = 4
	def := newDefinition(t, MutatorRun, "solver -n {}", 1, 2, 3, 4, 5, 6, 7, 8)

	var inFlight, peak atomic.Int32
	exec := &testutil.RecordingExecutor{
		OnRun: func(req *runtime.Request) *runtime.Result {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			if req.Command == "solver -n 3" || req.Command == "solver -n 6" {
				return &runtime.Result{Status: runtime.StatusExitedNonZero, ExitCode: 1}
			}
			return nil
		},
	}

	v, err := New(context.Background(), def, WithParallelism(limit), WithCaseOptions(foamcase.WithExecutor(exec)))
	if err == nil {
		t.Fatal("New() should report the failing cases")
	}
	if v == nil || len(v.Cases) != len(def.Values) {
		t.Fatalf("New() returned %v cases, want %d", v, len(def.Values))
	}

	seen := make(map[string]bool)
	for i, c := range v.Cases {
		if seen[c.Path] {
			t.Errorf("case directory %s used twice", c.Path)
		}
		seen[c.Path] = true
		if !testutil.Exists(filepath.Join(c.Path, foamcmd.ControlDict)) {
			t.Errorf("%s was not cloned", c.Path)
		}

		cmd := "solver -n " + FormatValue(def.Values[i])
		if got := exec.CommandsIn(c.Path); !slices.Equal(got, []string{cmd}) {
			t.Errorf("commands in %s = %q, want [%q]", c.Path, got, cmd)
		}

		failing := i == 2 || i == 5
		if named := strings.Contains(err.Error(), c.Path+":"); named != failing {
			t.Errorf("error names %s = %v, want %v:\n%v", c.Path, named, failing, err)
		}
	}

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want at most %d", p, limit)
	} else if p < 2 {
		t.Errorf("peak concurrency = %d, cases should run concurrently", p)
	}
}

func TestNew_CustomMutator(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, "touch", "marker", "a", "b")
	var (
		mu   sync.Mutex
		seen []string
	)
	touch := func(_ context.Context, c *foamcase.Case, p Param) error {
		mu.Lock()
		seen = append(seen, FormatValue(p.Value))
		mu.Unlock()
		return os.WriteFile(filepath.Join(c.Path, p.Name), nil, 0o644)
	}

	v, err := New(context.Background(), def, WithMutators(map[string]Mutator{"touch": touch}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	slices.Sort(seen)
	if !slices.Equal(seen, []string{"a", "b"}) {
		t.Errorf("mutator values = %v, want [a b]", seen)
	}
	for _, c := range v.Cases {
		if !testutil.Exists(filepath.Join(c.Path, "marker")) {
			t.Errorf("%s: marker not written", c.Path)
		}
	}
}

func TestVariation_BatchOperations(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, MutatorControlDict, "deltaT", 0.1, 0.2)
	exec := &testutil.RecordingExecutor{}
	v, err := New(context.Background(), def, WithCaseOptions(foamcase.WithExecutor(exec)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := v.Decompose(ctx); err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if err := v.ReconstructSample(ctx); err != nil {
		t.Fatalf("ReconstructSample() error = %v", err)
	}
	if err := v.ApplyAll(ctx, "touch done"); err != nil {
		t.Fatalf("ApplyAll() error = %v", err)
	}
	if err := v.Apply(ctx,
		Call{Mutator: MutatorSetKey, Param: Param{Name: foamcmd.TransportProperties, Value: map[string]any{"nu": 1e-05}}},
		Call{Mutator: MutatorCleanSets},
	); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	for i, c := range v.Cases {
		want := []string{
			foamcmd.SetKey("deltaT", FormatValue(def.Values[i]), foamcmd.ControlDict),
			foamcmd.DecomposePar,
			foamcmd.ReconstructPar + " -newTimes",
			foamcmd.Sample,
			"touch done",
			foamcmd.SetKey("nu", "1e-05", foamcmd.TransportProperties),
			"rm -rf postProcessing/sets",
		}
		if got := exec.CommandsIn(c.Path); !slices.Equal(got, want) {
			t.Errorf("commands in %s:\n got %q\nwant %q", c.Path, got, want)
		}
	}

	if err := v.Apply(ctx, Call{Mutator: "nope"}); !errors.Is(err, ErrUnknownMutator) {
		t.Errorf("Apply() error = %v, want ErrUnknownMutator", err)
	}
}

func TestVariation_MapInitial(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, MutatorEndTime, "", 5)
	exec := &testutil.RecordingExecutor{}
	v, err := New(context.Background(), def, WithCaseOptions(foamcase.WithExecutor(exec)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := v.MapInitial(context.Background(), def.Base, ""); err != nil {
		t.Fatalf("MapInitial() error = %v", err)
	}
	cmds := exec.CommandsIn(v.Cases[0].Path)
	last := cmds[len(cmds)-1]
	if !strings.HasPrefix(last, foamcmd.MapFields+" ") || !strings.Contains(last, "-sourceTime latestTime") {
		t.Errorf("MapInitial command = %q", last)
	}
}

func TestMutators_InvalidParam(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteCase(t, t.TempDir())
	c, err := foamcase.Open(dir, foamcase.WithExecutor(&testutil.RecordingExecutor{}))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	m := builtinMutators()

	tests := []struct {
		name    string
		mutator string
		param   Param
	}{
		{"setKey scalar", MutatorSetKey, Param{Name: foamcmd.ControlDict, Value: 3}},
		{"setScheme nested", MutatorSetScheme, Param{Name: "divSchemes", Value: map[string]any{"a": map[string]any{}}}},
		{"controlDict unnamed scalar", MutatorControlDict, Param{Value: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m[tt.mutator](context.Background(), c, tt.param); !errors.Is(err, ErrInvalidParam) {
				t.Errorf("error = %v, want ErrInvalidParam", err)
			}
		})
	}
}
