// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const sweepSchema = `
#Sweep: {
	base:    string
	mutator: "setKey" | "endTime" | "run"
	values: [_, ...]
	parallel?: int & >=1
}
`

type sweep struct {
	Base     string `json:"base"`
	Mutator  string `json:"mutator"`
	Values   []any  `json:"values"`
	Parallel int    `json:"parallel,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantErr string
		check   func(t *testing.T, s *sweep)
	}{
		{
			name: "full document",
			data: `
base: "cavity"
mutator: "endTime"
values: [100, 200]
parallel: 2
`,
			check: func(t *testing.T, s *sweep) {
				t.Helper()
				if s.Base != "cavity" || s.Mutator != "endTime" || s.Parallel != 2 {
					t.Errorf("decoded = %+v", s)
				}
				if len(s.Values) != 2 {
					t.Errorf("len(Values) = %d, want 2", len(s.Values))
				}
			},
		},
		{
			name: "optional field omitted",
			data: `base: "cavity", mutator: "run", values: ["a"]`,
			check: func(t *testing.T, s *sweep) {
				t.Helper()
				if s.Parallel != 0 {
					t.Errorf("Parallel = %d, want 0", s.Parallel)
				}
			},
		},
		{
			name:    "unknown mutator",
			data:    `base: "cavity", mutator: "explode", values: [1]`,
			wantErr: "mutator",
		},
		{
			name:    "empty values",
			data:    `base: "cavity", mutator: "run", values: []`,
			wantErr: "values",
		},
		{
			name:    "missing required field",
			data:    `mutator: "run", values: [1]`,
			wantErr: "base",
		},
		{
			name:    "syntax error",
			data:    `base: "cavity`,
			wantErr: "<input>",
		},
		{
			name:    "filename in errors",
			data:    `base: 3, mutator: "run", values: [1]`,
			opts:    []Option{WithFilename("sweep.cue")},
			wantErr: "sweep.cue",
		},
		{
			name:    "size limit",
			data:    strings.Repeat("a", 200),
			opts:    []Option{WithMaxFileSize(100)},
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := ParseAndDecode[sweep]([]byte(sweepSchema), []byte(tt.data), "#Sweep", tt.opts...)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error = %v", err)
			}
			if res.Unified.Err() != nil {
				t.Errorf("unified value has error: %v", res.Unified.Err())
			}
			tt.check(t, res.Value)
		})
	}
}

func TestParseAndDecodeNonConcrete(t *testing.T) {
	t.Parallel()

	schema := `#Config: { shell?: string, parallelism?: int & >=1 }`
	type config struct {
		Shell       string `json:"shell,omitempty"`
		Parallelism int    `json:"parallelism,omitempty"`
	}

	res, err := ParseAndDecodeString[config](schema, []byte(`{}`), "#Config", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseAndDecodeString() error = %v", err)
	}
	if res.Value.Shell != "" || res.Value.Parallelism != 0 {
		t.Errorf("decoded = %+v, want zero value", res.Value)
	}

	if _, err := ParseAndDecodeString[config](schema, []byte(`parallelism: 0`), "#Config"); err == nil {
		t.Error("expected error for parallelism below minimum")
	}
}

func TestParseAndDecodeMissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[sweep]([]byte(sweepSchema), []byte(`{}`), "#Nope")
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("error = %v, want internal error", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if err := FormatError(nil, "x.cue"); err != nil {
		t.Errorf("FormatError(nil) = %v", err)
	}

	cause := errors.New("boom")
	err := FormatError(cause, "x.cue")
	if !errors.Is(err, cause) {
		t.Errorf("FormatError() should wrap non-CUE errors, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("FormatError() = %q, want file prefix", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"base"}, "base"},
		{[]string{"tools", "blockMesh"}, "tools.blockMesh"},
		{[]string{"values", "0"}, "values[0]"},
		{[]string{"values", "1", "name"}, "values[1].name"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
