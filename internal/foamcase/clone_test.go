// SPDX-License-Identifier: MPL-2.0

package foamcase

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/coriander-cfd/coriander/internal/testutil"
)

// writeResults adds the run artifacts a clone must not copy.
func writeResults(t *testing.T, dir string) {
	t.Helper()

	for _, rel := range []string{
		"log.pisoFoam",
		"processor0/0/U",
		"processor1/0/U",
		"postProcessing/sets/100/line.xy",
		"0.5/U",
		"100/U",
		"1e-3/U",
		"system/log.old",
	} {
		testutil.MustWriteFile(t, filepath.Join(dir, filepath.FromSlash(rel)), "x\n")
	}
}

// listTree returns the slash paths of all entries under dir.
func listTree(t *testing.T, dir string) []string {
	t.Helper()

	var paths []string
	err := filepath.WalkDir(dir, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel != "." {
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}
	return paths
}

func TestClone_ExcludesResults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	writeResults(t, src)
	dst := filepath.Join(root, "study", "a")

	c, err := Clone(t.Context(), src, dst, CloneOptions{Strict: true})
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if c.Path != dst || c.Parent != src {
		t.Errorf("Clone() = {Path: %q, Parent: %q}, want {%q, %q}", c.Path, c.Parent, dst, src)
	}

	got := listTree(t, dst)
	for _, want := range []string{
		"0/U",
		"constant/polyMesh/points",
		"constant/polyMesh/blockMeshDict",
		"constant/transportProperties",
		"system/controlDict",
		"system/fvSchemes",
		".coriander/parent",
	} {
		if !slices.Contains(got, want) {
			t.Errorf("clone is missing %s", want)
		}
	}
	for _, path := range got {
		for _, excluded := range []string{"log.pisoFoam", "processor", "postProcessing", "0.5", "100", "1e-3", "system/log.old"} {
			if strings.HasPrefix(path, excluded) {
				t.Errorf("clone contains excluded entry %s", path)
			}
		}
	}

	if parent := testutil.MustReadFile(t, filepath.Join(dst, MarkerDir, "parent")); parent != "parent:"+src+"\n" {
		t.Errorf("parent marker = %q", parent)
	}
}

func TestClone_ExistingDestinationUntouched(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	dst := filepath.Join(root, "existing")
	testutil.MustWriteFile(t, filepath.Join(dst, "note"), "keep\n")

	c, err := Clone(t.Context(), src, dst, CloneOptions{})
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if c.Path != dst {
		t.Errorf("Path = %q, want %q", c.Path, dst)
	}
	if got := listTree(t, dst); !slices.Equal(got, []string{"note"}) {
		t.Errorf("existing destination changed: %v", got)
	}
}

func TestClone_ExistingDestinationKeepsLineage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	dst := filepath.Join(root, "existing")
	testutil.MustWriteFile(t, filepath.Join(dst, MarkerDir, parentFile), "parent:/runs/original\n")

	c, err := Clone(t.Context(), src, dst, CloneOptions{Modifiable: true})
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if c.Parent != "/runs/original" {
		t.Errorf("Parent = %q, want the stored /runs/original", c.Parent)
	}
	if c.Modifiable {
		t.Error("Modifiable should come from the marker folder, not the options")
	}
	if got := testutil.MustReadFile(t, filepath.Join(dst, MarkerDir, parentFile)); got != "parent:/runs/original\n" {
		t.Errorf("parent marker rewritten to %q", got)
	}
}

func TestClone_StrictCollectsEntryErrors(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	locked := filepath.Join(src, "constant", "locked")
	testutil.MustWriteFile(t, locked, "secret\n")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	lenient, err := Clone(t.Context(), src, filepath.Join(root, "lenient"), CloneOptions{})
	if err != nil {
		t.Fatalf("Clone() without Strict error: %v", err)
	}
	if !testutil.Exists(filepath.Join(lenient.Path, "system", "controlDict")) {
		t.Error("a failed entry should not stop the rest of the copy")
	}

	_, err = Clone(t.Context(), src, filepath.Join(root, "strict"), CloneOptions{Strict: true})
	if err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("Clone() with Strict error = %v, want the failed entry", err)
	}
	if !testutil.Exists(filepath.Join(root, "strict", "0", "U")) {
		t.Error("Strict still copies every readable entry")
	}
}

func TestClone_LinkMesh(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	testutil.MustMkdirAll(t, filepath.Join(root, "study"), 0o755)
	dst := filepath.Join(root, "study", "linked")

	if _, err := Clone(t.Context(), src, dst, CloneOptions{LinkMesh: true, Strict: true}); err != nil {
		t.Fatalf("Clone() error: %v", err)
	}

	mesh := filepath.Join(dst, "constant", "polyMesh")
	info, err := os.Lstat(mesh)
	if err != nil {
		t.Fatalf("Lstat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("%s is not a symlink", mesh)
	}

	target, err := os.Readlink(mesh)
	if err != nil {
		t.Fatalf("Readlink failed: %v", err)
	}
	if filepath.IsAbs(target) {
		t.Errorf("mesh link target %q should be relative", target)
	}

	linked, err := os.Stat(mesh)
	if err != nil {
		t.Fatalf("mesh link does not resolve: %v", err)
	}
	srcInfo, err := os.Stat(filepath.Join(src, "constant", "polyMesh"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !os.SameFile(linked, srcInfo) {
		t.Error("mesh link does not resolve to the source mesh")
	}
	if !testutil.Exists(filepath.Join(dst, "constant", "transportProperties")) {
		t.Error("the rest of constant/ should still be copied")
	}
}

func TestClone_PreservesSymlinksAndModes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	script := filepath.Join(src, "Allrun")
	testutil.MustWriteFile(t, script, "#!/bin/sh\n")
	if err := os.Chmod(script, 0o755); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.Symlink("system/controlDict", filepath.Join(src, "controlDict.link")); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}
	dst := filepath.Join(root, "copy")

	if _, err := Clone(t.Context(), src, dst, CloneOptions{Strict: true}); err != nil {
		t.Fatalf("Clone() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dst, "Allrun"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("Allrun mode = %v, want %v", info.Mode().Perm(), os.FileMode(0o755))
	}
	if got, err := os.Readlink(filepath.Join(dst, "controlDict.link")); err != nil || got != "system/controlDict" {
		t.Errorf("Readlink() = %q, %v; want system/controlDict", got, err)
	}
}

func TestClone_CustomIgnore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	testutil.MustWriteFile(t, filepath.Join(src, "system", "controlDict.bak"), "old\n")
	testutil.MustWriteFile(t, filepath.Join(src, "log.keep"), "kept\n")
	dst := filepath.Join(root, "copy")

	opts := CloneOptions{Ignore: []string{"*.bak", "constant/polyMesh"}, Strict: true}
	if _, err := Clone(t.Context(), src, dst, opts); err != nil {
		t.Fatalf("Clone() error: %v", err)
	}

	got := listTree(t, dst)
	if slices.Contains(got, "system/controlDict.bak") {
		t.Error("*.bak should be excluded")
	}
	if slices.Contains(got, "constant/polyMesh") {
		t.Error("constant/polyMesh should be excluded by its relative path")
	}
	if !slices.Contains(got, "log.keep") {
		t.Error("custom ignore list replaces the defaults; log.keep should be copied")
	}
}

func TestClone_InvalidPattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := testutil.WriteCase(t, filepath.Join(root, "base"))
	dst := filepath.Join(root, "copy")

	if _, err := Clone(t.Context(), src, dst, CloneOptions{Ignore: []string{"[unclosed"}}); err == nil {
		t.Fatal("Clone() should reject an invalid pattern")
	}
	if testutil.Exists(dst) {
		t.Error("Clone() wrote the destination despite an invalid pattern")
	}
}

func TestCase_Clone(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingExecutor{}
	base := openCase(t, WithExecutor(rec))
	dst := filepath.Join(t.TempDir(), "child")

	child, err := base.Clone(t.Context(), dst, CloneOptions{Modifiable: true})
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if !child.Modifiable || child.Parent != base.Path {
		t.Errorf("child = {Modifiable: %v, Parent: %q}", child.Modifiable, child.Parent)
	}

	if err := child.Decompose(t.Context()); err != nil {
		t.Fatalf("Decompose() error: %v", err)
	}
	if got := rec.CommandsIn(dst); !slices.Equal(got, []string{"decomposePar"}) {
		t.Errorf("child commands = %v; the executor should carry over", got)
	}
}

func TestCreateBase(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	base := testutil.WriteCase(t, filepath.Join(root, "cavity"))
	testutil.MustWriteFile(t, filepath.Join(root, "meshes", "m1"), "mesh\n")

	solverPath, err := CreateBase(t.Context(), root, base, "pisoFoam", "abc123", []string{"meshes"})
	if err != nil {
		t.Fatalf("CreateBase() error: %v", err)
	}
	if want := filepath.Join(root, "Solver-pisoFoam"); solverPath != want {
		t.Errorf("CreateBase() = %q, want %q", solverPath, want)
	}

	if got := testutil.MustReadFile(t, filepath.Join(solverPath, MarkerDir, "solver")); got != "parent:abc123\n" {
		t.Errorf("solver marker = %q", got)
	}
	if !testutil.Exists(filepath.Join(solverPath, "cavity", "system", "controlDict")) {
		t.Error("base case was not copied")
	}
	if got := testutil.MustReadFile(t, filepath.Join(solverPath, "meshes", "m1")); got != "mesh\n" {
		t.Errorf("linked input = %q, want mesh", got)
	}
}
