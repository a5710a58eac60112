// SPDX-License-Identifier: MPL-2.0

// Package caselist finds cases under a directory tree and reports their
// decomposition, latest time step and on-disk size.
package caselist

import (
	"cmp"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/coriander-cfd/coriander/internal/foamcase"
)

const (
	// DefaultSizeFilter selects the child directories whose size is reported.
	DefaultSizeFilter = "processor"

	processorPrefix = "processor"
	processor0      = "processor0"
	boundaryData    = "boundaryData"
)

type (
	// Entry describes one case found by Scan.
	Entry struct {
		// Name is the case directory's base name.
		Name string
		// Path is the case directory.
		Path string
		// Group is the slash-separated parent directory relative to the scan
		// root; "" for cases directly under it.
		Group string
		// Depth is the number of path elements between the root and the case.
		Depth int
		// Decomposed reports whether processor0 exists.
		Decomposed bool
		// Processors counts the processor directories of a decomposed case.
		Processors int
		// LatestTime is the largest numeric child directory name, or -1.
		LatestTime float64
		// Size is the total size in bytes of the child directories whose
		// name contains the size filter.
		Size int64
	}

	// Options controls Scan.
	Options struct {
		// SizeFilter overrides DefaultSizeFilter.
		SizeFilter string
	}
)

// Scan walks root and returns every directory holding a marker folder, in
// walk order. It never descends into processor or boundaryData directories.
// Unreadable subtrees are skipped.
func Scan(root string, opts Options) ([]Entry, error) {
	filter := cmp.Or(opts.SizeFilter, DefaultSizeFilter)
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	sc := &scanner{root: root, filter: filter}
	err := filepath.WalkDir(root, sc.visit)
	return sc.entries, err
}

type scanner struct {
	root    string
	filter  string
	entries []Entry
}

// visit is the WalkDir callback. An unreadable directory is skipped; an
// error on any other entry skips only that entry.
func (s *scanner) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		if path == s.root {
			return err
		}
		if d == nil || !d.IsDir() {
			return nil
		}
		return fs.SkipDir
	}
	if !d.IsDir() {
		return nil
	}
	name := d.Name()
	if path != s.root && (strings.Contains(name, processorPrefix) || strings.Contains(name, boundaryData) || name == foamcase.MarkerDir) {
		return fs.SkipDir
	}

	children, err := os.ReadDir(path)
	if err != nil {
		return fs.SkipDir
	}
	if hasMarker(children) {
		s.entries = append(s.entries, describe(s.root, path, children, s.filter))
	}
	return nil
}

func hasMarker(children []fs.DirEntry) bool {
	return slices.ContainsFunc(children, func(e fs.DirEntry) bool {
		return e.IsDir() && e.Name() == foamcase.MarkerDir
	})
}

func describe(root, path string, children []fs.DirEntry, filter string) Entry {
	e := Entry{
		Name:       filepath.Base(path),
		Path:       path,
		LatestTime: -1,
	}
	if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
		e.Depth = strings.Count(filepath.ToSlash(rel), "/") + 1
		if parent := filepath.Dir(rel); parent != "." {
			e.Group = filepath.ToSlash(parent)
		}
	}

	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		if c.Name() == processor0 {
			e.Decomposed = true
		}
		if strings.Contains(c.Name(), filter) {
			e.Size += dirSize(filepath.Join(path, c.Name()))
		}
	}

	timesDir := path
	if e.Decomposed {
		for _, c := range children {
			if c.IsDir() && strings.Contains(c.Name(), processorPrefix) {
				e.Processors++
			}
		}
		timesDir = filepath.Join(path, processor0)
	}
	e.LatestTime = LatestTime(timesDir)
	return e
}

// LatestTime returns the largest child directory name of dir that parses as
// a number, or -1 when none does.
func LatestTime(dir string) float64 {
	latest := -1.0
	children, err := os.ReadDir(dir)
	if err != nil {
		return latest
	}
	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		if v, ok := foamcase.ParseTime(c.Name()); ok && v > latest {
			latest = v
		}
	}
	return latest
}

// dirSize sums the sizes of regular files below dir.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
