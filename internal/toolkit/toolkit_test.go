// SPDX-License-Identifier: MPL-2.0

package toolkit

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/coriander-cfd/coriander/internal/testutil"
)

func TestCheckSourced(t *testing.T) {
	tests := []struct {
		name    string
		envName string
		set     map[string]string
		want    string
		wantErr bool
	}{
		{"default variable", "", map[string]string{DefaultVersionEnv: "v2406"}, "v2406", false},
		{"custom variable", "FOAM_API", map[string]string{"FOAM_API": "2406"}, "2406", false},
		{"empty", "", map[string]string{DefaultVersionEnv: ""}, "", true},
		{"custom unset", "CORIANDER_TEST_UNSET_VERSION", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.set {
				t.Setenv(k, v)
			}

			got, err := CheckSourced(tt.envName)
			if tt.wantErr {
				if !errors.Is(err, ErrNotSourced) {
					t.Errorf("CheckSourced() error = %v, want ErrNotSourced", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckSourced() error = %v", err)
			}
			if got != tt.want || Version(tt.envName) != tt.want {
				t.Errorf("version = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "toolkit.env")
	testutil.MustWriteFile(t, path, "# snapshot\nWM_PROJECT_VERSION=v2406\nFOAM_RUN=/home/user/run\nexport WM_MPLIB=SYSTEMOPENMPI\n")

	env, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	want := map[string]string{
		"WM_PROJECT_VERSION": "v2406",
		"FOAM_RUN":           "/home/user/run",
		"WM_MPLIB":           "SYSTEMOPENMPI",
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%s] = %q, want %q", k, env[k], v)
		}
	}

	if _, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadEnv() should fail for a missing file")
	}
}

func TestFindTools(t *testing.T) {
	t.Parallel()

	got := FindTools("sh", "coriander-no-such-tool")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Found || got[0].Path == "" {
		t.Errorf("sh should be found: %+v", got[0])
	}
	if got[1].Found {
		t.Errorf("missing tool reported as found: %+v", got[1])
	}
}
