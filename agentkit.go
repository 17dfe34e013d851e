// Package agentkit loads capability modules from a directory and exposes
// their operations as invokable tools.
//
// The facade wires the default engine, validator, gate, and loader; callers
// needing finer control compose the subpackages directly.
package agentkit

import (
	"context"
	"log/slog"

	"github.com/agentkit-dev/agentkit/capability"
	"github.com/agentkit-dev/agentkit/host"
	"github.com/agentkit-dev/agentkit/loader"
	"github.com/agentkit-dev/agentkit/registry"
)

// Option configures a Load call.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	ignore      []string
	middlewares []capability.Middleware
	engineOpts  []host.Option
}

// WithLogger sets the logger used across the load pass.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithIgnore adds glob patterns for directory entries to skip.
func WithIgnore(globs ...string) Option {
	return func(c *config) { c.ignore = append(c.ignore, globs...) }
}

// WithMiddleware wraps every registered operation.
func WithMiddleware(middlewares ...capability.Middleware) Option {
	return func(c *config) { c.middlewares = append(c.middlewares, middlewares...) }
}

// WithEngineOptions passes options through to the wazero engine.
func WithEngineOptions(opts ...host.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// Load discovers and registers every capability under dir. The returned
// report lists what loaded, what was skipped, and what failed; a broken
// capability never fails the call. The underlying runtime stays open for
// the life of the process so registered operations remain invokable.
func Load(ctx context.Context, dir string, opts ...Option) (*registry.Registry, *loader.Report, error) {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	engineOpts := append([]host.Option{host.WithLogger(cfg.logger)}, cfg.engineOpts...)
	engine, err := host.NewWazeroEngine(ctx, engineOpts...)
	if err != nil {
		return nil, nil, err
	}

	loaderOpts := []loader.Option{loader.WithLogger(cfg.logger)}
	if len(cfg.ignore) > 0 {
		loaderOpts = append(loaderOpts, loader.WithIgnore(cfg.ignore...))
	}
	if len(cfg.middlewares) > 0 {
		loaderOpts = append(loaderOpts, loader.WithMiddleware(cfg.middlewares...))
	}

	ld, err := loader.New(engine, loaderOpts...)
	if err != nil {
		_ = engine.Close(ctx)
		return nil, nil, err
	}

	reg := registry.New()
	report, err := ld.LoadAll(ctx, dir, reg)
	if err != nil {
		_ = engine.Close(ctx)
		return nil, nil, err
	}
	return reg, report, nil
}
