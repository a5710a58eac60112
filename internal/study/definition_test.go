// SPDX-License-Identifier: MPL-2.0

package study

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coriander-cfd/coriander/internal/testutil"
)

func TestLoadDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, dir string, def *Definition)
	}{
		{
			name: "cue",
			file: "sweep.cue",
			content: `
base: "cavity"
dir: "runs/nu"
mutator: "setKey"
param: "constant/transportProperties"
values: [{nu: 0.01}, {nu: 0.001}]
exec: ["pisoFoam"]
`,
			check: func(t *testing.T, dir string, def *Definition) {
				t.Helper()
				if def.Base != filepath.Join(dir, "cavity") {
					t.Errorf("Base = %q", def.Base)
				}
				if def.Dir != filepath.Join(dir, "runs", "nu") {
					t.Errorf("Dir = %q", def.Dir)
				}
				if def.CaseName != "case" {
					t.Errorf("CaseName = %q, want default %q", def.CaseName, "case")
				}
				if len(def.Values) != 2 {
					t.Fatalf("len(Values) = %d, want 2", len(def.Values))
				}
				kv, err := stringMap(def.Values[1])
				if err != nil || kv["nu"] != "0.001" {
					t.Errorf("Values[1] = %v (%v)", def.Values[1], err)
				}
				if len(def.Exec) != 1 || def.Exec[0] != "pisoFoam" {
					t.Errorf("Exec = %v", def.Exec)
				}
			},
		},
		{
			name: "toml",
			file: "sweep.toml",
			content: `
base = "/abs/cavity"
dir = "runs"
mutator = "endTime"
case_name = "t"
values = [100, 200, 400]
link_mesh = true
parallelism = 2
`,
			check: func(t *testing.T, dir string, def *Definition) {
				t.Helper()
				if def.Base != "/abs/cavity" {
					t.Errorf("Base = %q, absolute path should be kept", def.Base)
				}
				if def.CaseName != "t" || !def.LinkMesh || def.Parallelism != 2 {
					t.Errorf("decoded = %+v", def)
				}
				if got := fmt.Sprint(def.Values); got != "[100 200 400]" {
					t.Errorf("Values = %s", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			testutil.MustWriteFile(t, path, tt.content)

			def, err := LoadDefinition(path)
			if err != nil {
				t.Fatalf("LoadDefinition() error = %v", err)
			}
			tt.check(t, dir, def)
		})
	}
}

func TestLoadDefinition_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"cue missing values", "a.cue", `base: "b", dir: "d", mutator: "run"`, "values"},
		{"cue empty values", "b.cue", `base: "b", dir: "d", mutator: "run", values: []`, "values"},
		{"cue unknown field", "c.cue", `base: "b", dir: "d", mutator: "run", values: [1], extra: 1`, "extra"},
		{"toml unknown field", "d.toml", "base = \"b\"\ndir = \"d\"\nmutator = \"run\"\nvalues = [1]\nextra = 1\n", "extra"},
		{"toml missing mutator", "e.toml", "base = \"b\"\ndir = \"d\"\nvalues = [1]\n", "mutator"},
		{"unsupported extension", "f.yaml", "base: b", "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.file)
			testutil.MustWriteFile(t, path, tt.content)

			_, err := LoadDefinition(path)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("LoadDefinition() error = %v, want ErrInvalidDefinition", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}
