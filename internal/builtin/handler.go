// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"io"
	"path/filepath"

	"mvdan.cc/sh/v3/interp"
)

type (
	// HandlerContext is the execution context a built-in sees: stdio and the
	// interpreter's working directory.
	HandlerContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Dir is the interpreter's current directory.
		Dir string
		// LookupEnv retrieves environment variables.
		LookupEnv func(string) (string, bool)
	}

	handlerContextKey struct{}
)

// extractHandlerContext bridges mvdan/sh's handler context.
func extractHandlerContext(ctx context.Context) *HandlerContext {
	hc := interp.HandlerCtx(ctx)
	return &HandlerContext{
		Stdin:  hc.Stdin,
		Stdout: hc.Stdout,
		Stderr: hc.Stderr,
		Dir:    hc.Dir,
		LookupEnv: func(name string) (string, bool) {
			v := hc.Env.Get(name)
			return v.Str, v.IsSet()
		},
	}
}

// WithHandlerContext stores hc in ctx. Used to run built-ins outside the interpreter.
func WithHandlerContext(ctx context.Context, hc *HandlerContext) context.Context {
	return context.WithValue(ctx, handlerContextKey{}, hc)
}

// GetHandlerContext returns the context stored by WithHandlerContext, or the
// interpreter's handler context.
func GetHandlerContext(ctx context.Context) *HandlerContext {
	if hc, ok := ctx.Value(handlerContextKey{}).(*HandlerContext); ok {
		return hc
	}
	return extractHandlerContext(ctx)
}

// resolve makes path absolute relative to the handler's directory.
func (hc *HandlerContext) resolve(path string) string {
	if filepath.IsAbs(path) || hc.Dir == "" {
		return path
	}
	return filepath.Join(hc.Dir, path)
}
