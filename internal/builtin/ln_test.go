// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lnContext(t *testing.T, dir string) *HandlerContext {
	t.Helper()

	return &HandlerContext{
		Stdin:     strings.NewReader(""),
		Stdout:    &bytes.Buffer{},
		Stderr:    &bytes.Buffer{},
		Dir:       dir,
		LookupEnv: os.LookupEnv,
	}
}

func TestLnCommand_Run_RelativeSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "base", "constant", "polyMesh"), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "variant", "constant"), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	ctx := WithHandlerContext(t.Context(), lnContext(t, filepath.Join(dir, "variant")))
	target := filepath.Join("..", "..", "base", "constant", "polyMesh")
	if err := newLnCommand().Run(ctx, []string{"ln", "-s", target, "constant/polyMesh"}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	link := filepath.Join(dir, "variant", "constant", "polyMesh")
	got, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink failed: %v", err)
	}
	if got != target {
		t.Errorf("symlink points to %q, want %q", got, target)
	}
	if info, err := os.Stat(link); err != nil || !info.IsDir() {
		t.Errorf("symlink should resolve to a directory, err = %v", err)
	}
}

func TestLnCommand_Run_ForceCombinedFlags(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	if err := os.WriteFile(link, []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx := WithHandlerContext(t.Context(), lnContext(t, dir))
	if err := newLnCommand().Run(ctx, []string{"ln", "-sf", "target", "link"}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	got, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink failed: %v", err)
	}
	if got != "target" {
		t.Errorf("symlink points to %q, want %q", got, "target")
	}
}

func TestLnCommand_Run_HardLink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx := WithHandlerContext(t.Context(), lnContext(t, dir))
	if err := newLnCommand().Run(ctx, []string{"ln", "a", "b"}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "b"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("hard link content = %q, want %q", data, "content")
	}
}

func TestLnCommand_Run_MissingOperand(t *testing.T) {
	t.Parallel()

	ctx := WithHandlerContext(t.Context(), lnContext(t, t.TempDir()))
	err := newLnCommand().Run(ctx, []string{"ln", "-s", "only"})
	if err == nil {
		t.Fatal("Run() should fail with a single operand")
	}
	if !strings.Contains(err.Error(), "[builtin] ln:") {
		t.Errorf("error %q should carry the [builtin] ln: prefix", err)
	}
}
