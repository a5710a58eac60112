// SPDX-License-Identifier: MPL-2.0

package foamcase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	cp "github.com/otiai10/copy"
	"mvdan.cc/sh/v3/syntax"

	"github.com/coriander-cfd/coriander/internal/foamcmd"
)

// DefaultIgnore lists the patterns excluded from a clone: logs, processor
// directories and post-processing output. Non-zero time directories at the
// case root are always excluded as well.
var DefaultIgnore = []string{"log*", "processor*", "postProcessing*"}

// CloneOptions controls Clone.
type CloneOptions struct {
	// LinkMesh symlinks constant/polyMesh to the source instead of copying it.
	LinkMesh bool
	// Ignore holds doublestar patterns. Patterns without '/' match base names,
	// others match the slash-separated path relative to the source. Nil
	// means DefaultIgnore.
	Ignore []string
	// Modifiable is recorded on the new case.
	Modifiable bool
	// Strict returns per-entry copy failures instead of only logging them.
	Strict bool
}

// Clone copies the case at src to dst and opens it with lineage src. If dst
// already exists nothing is written and a Case wrapping dst is returned with
// the lineage and flags stored in its marker folder.
func Clone(ctx context.Context, src, dst string, opts CloneOptions, caseOpts ...Option) (*Case, error) {
	if _, err := os.Lstat(dst); err == nil {
		c := newCase(dst, caseOpts...)
		c.Parent = readParent(c.markerPath(parentFile))
		_, statErr := os.Stat(c.markerPath(modifiableFile))
		c.Modifiable = statErr == nil
		c.logger.Warn("skipping clone, destination exists", "src", src, "dst", dst)
		return c, nil
	}

	c := newCase(dst, append(slices.Clip(caseOpts), WithParent(src), WithModifiable(opts.Modifiable))...)

	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}

	if info, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("clone source: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("clone source %s is not a directory", src)
	}

	t := &treeCopier{
		ignore:   ignore,
		linkMesh: opts.LinkMesh,
		logger:   c.logger,
	}
	if err := t.copy(ctx, src, dst); err != nil {
		return nil, err
	}

	if opts.LinkMesh {
		if err := linkMesh(ctx, c, src); err != nil {
			t.fail(filepath.Join(dst, foamcmd.PolyMesh), err)
		}
	}

	if err := c.initMarker(); err != nil {
		return nil, err
	}
	c.logger.Info("cloned case", "src", src, "dst", dst, "skipped", t.skipped)

	if opts.Strict && len(t.errs) > 0 {
		return c, fmt.Errorf("clone %s: %w", dst, errors.Join(t.errs...))
	}
	return c, nil
}

// linkMesh points dst/constant/polyMesh at the source mesh with a relative
// symlink created in the new case directory.
func linkMesh(ctx context.Context, c *Case, src string) error {
	srcMesh, err := filepath.Abs(filepath.Join(src, foamcmd.PolyMesh))
	if err != nil {
		return err
	}
	if _, err := os.Stat(srcMesh); err != nil {
		return fmt.Errorf("source mesh: %w", err)
	}
	constant, err := filepath.Abs(filepath.Join(c.Path, "constant"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(constant, 0o755); err != nil {
		return err
	}
	target, err := filepath.Rel(constant, srcMesh)
	if err != nil {
		return err
	}
	quoted, err := syntax.Quote(filepath.ToSlash(target), syntax.LangPOSIX)
	if err != nil {
		return err
	}
	return c.execute(ctx, "ln -s "+quoted+" "+foamcmd.PolyMesh)
}

// treeCopier copies a case tree, recording per-entry failures instead of
// stopping at the first one.
type treeCopier struct {
	ignore   []string
	linkMesh bool
	// all disables every exclusion.
	all    bool
	logger *log.Logger

	skipped int
	errs    []error
}

func (t *treeCopier) fail(path string, err error) {
	t.logger.Warn("clone entry failed", "path", path, "err", err)
	t.errs = append(t.errs, fmt.Errorf("%s: %w", path, err))
}

// excluded reports whether the entry at rel (slash-separated, relative to
// the source root) stays behind.
func (t *treeCopier) excluded(rel string, info os.FileInfo) bool {
	if t.all || rel == "." {
		return false
	}
	if info.IsDir() && !strings.Contains(rel, "/") && IsTimeDir(info.Name()) {
		return true
	}
	if t.linkMesh && rel == foamcmd.PolyMesh {
		return true
	}
	for _, p := range t.ignore {
		subject := info.Name()
		if strings.Contains(p, "/") {
			subject = rel
		}
		if ok, _ := doublestar.Match(p, subject); ok {
			return true
		}
	}
	return false
}

// copy copies src to dst. Symlinks are recreated with their original
// target, modes are preserved and special files are skipped. Only context
// cancellation aborts the copy.
func (t *treeCopier) copy(ctx context.Context, src, dst string) error {
	return cp.Copy(src, dst, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction { return cp.Shallow },
		Skip: func(info os.FileInfo, path, _ string) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return false, err
			}
			if t.excluded(filepath.ToSlash(rel), info) {
				t.skipped++
				return true, nil
			}
			if mode := info.Mode(); !mode.IsRegular() && !mode.IsDir() && mode&os.ModeSymlink == 0 {
				t.logger.Warn("skipping special file", "path", path)
				return true, nil
			}
			return false, nil
		},
		OnError: func(path, _ string, err error) error {
			if err == nil {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			t.fail(path, err)
			return nil
		},
	})
}

// CreateBase prepares root/Solver-<solverName> for a family of studies: it
// records solverDigest in the marker folder, copies the base case into it and
// links the shared inputs (paths relative to root) next to it.
func CreateBase(ctx context.Context, root, basePath, solverName, solverDigest string, links []string, caseOpts ...Option) (string, error) {
	solverPath := filepath.Join(root, "Solver-"+solverName)
	c := newCase(solverPath, caseOpts...)

	if err := os.MkdirAll(filepath.Join(solverPath, MarkerDir), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(solverPath, MarkerDir, "solver"), []byte("parent:"+solverDigest+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("record solver: %w", err)
	}

	baseDst := filepath.Join(solverPath, filepath.Base(basePath))
	if _, err := os.Lstat(baseDst); err == nil {
		c.logger.Warn("base case exists, skipping copy", "dst", baseDst)
	} else {
		t := &treeCopier{logger: c.logger, all: true}
		if err := t.copy(ctx, basePath, baseDst); err != nil {
			return "", err
		}
		if len(t.errs) > 0 {
			return "", fmt.Errorf("copy base case: %w", errors.Join(t.errs...))
		}
	}

	for _, l := range links {
		if _, err := os.Lstat(filepath.Join(solverPath, l)); err == nil {
			continue
		}
		target, err := syntax.Quote(filepath.ToSlash(filepath.Join("..", l)), syntax.LangPOSIX)
		if err != nil {
			return "", err
		}
		name, err := syntax.Quote(filepath.ToSlash(l), syntax.LangPOSIX)
		if err != nil {
			return "", err
		}
		if err := c.execute(ctx, "ln -s "+target+" "+name); err != nil {
			return "", err
		}
	}
	return solverPath, nil
}
