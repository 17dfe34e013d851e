package host

import (
	"log/slog"

	"github.com/tetratelabs/wazero"
)

// Option defines a functional option for configuring the WazeroEngine.
type Option func(*WazeroEngine)

// WithLogger sets the logger guest log messages are bridged to.
func WithLogger(l *slog.Logger) Option {
	return func(e *WazeroEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCompilationCache configures the engine with a compilation cache,
// shared across engines to avoid recompiling unchanged modules.
func WithCompilationCache(cache wazero.CompilationCache) Option {
	return func(e *WazeroEngine) {
		e.cache = cache
	}
}
