// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"slices"
	"sync"
)

type (
	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath is the --config file. When set no lookup happens.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir() in the lookup.
		ConfigDirPath string
		// WorkDir is searched for config.cue after the config dir; "" is the process cwd.
		WorkDir string
	}

	// Provider loads configuration. Commands depend on it so tests can
	// supply a fixed Config.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// cachingProvider loads each distinct LoadOptions once. Failed loads are
	// retried on the next call.
	cachingProvider struct {
		mu     sync.Mutex
		loaded map[LoadOptions]*Config
	}
)

// NewProvider returns a Provider backed by Load that caches successful
// results. Every call returns a private copy.
func NewProvider() Provider {
	return &cachingProvider{loaded: make(map[LoadOptions]*Config)}
}

func (p *cachingProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg, ok := p.loaded[opts]; ok {
		return cfg.Copy(), nil
	}
	cfg, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	p.loaded[opts] = cfg
	return cfg.Copy(), nil
}

// Copy returns a deep copy of c.
func (c *Config) Copy() *Config {
	out := *c
	out.Clone.Ignore = slices.Clone(c.Clone.Ignore)
	return &out
}
