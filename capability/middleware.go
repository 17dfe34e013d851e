package capability

import (
	"context"
	"log/slog"
	"time"
)

// Middleware is a function that wraps an InvokeFunc to add cross-cutting
// behavior. Middleware executes in FIFO order (first registered wraps
// first, onion model).
//
// Example usage:
//
//	timing := func(next capability.InvokeFunc) capability.InvokeFunc {
//	    return func(ctx context.Context, input []byte) ([]byte, error) {
//	        start := time.Now()
//	        out, err := next(ctx, input)
//	        log.Printf("took %s", time.Since(start))
//	        return out, err
//	    }
//	}
type Middleware func(next InvokeFunc) InvokeFunc

// Chain wraps fn with the given middlewares in FIFO order.
func Chain(fn InvokeFunc, middlewares ...Middleware) InvokeFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		fn = middlewares[i](fn)
	}
	return fn
}

// LoggingMiddleware returns a middleware that logs every invocation with
// its duration and outcome. The qualified tool name is read from the
// context when set by the registry.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next InvokeFunc) InvokeFunc {
		return func(ctx context.Context, input []byte) ([]byte, error) {
			start := time.Now()
			out, err := next(ctx, input)
			if err != nil {
				logger.Warn("operation failed",
					"tool", QualifiedNameFromContext(ctx),
					"duration", time.Since(start),
					"error", err)
				return out, err
			}
			logger.Debug("operation completed",
				"tool", QualifiedNameFromContext(ctx),
				"duration", time.Since(start))
			return out, nil
		}
	}
}

type qualifiedNameKey struct{}

// ContextWithQualifiedName tags a context with the qualified tool name
// being invoked, for middleware visibility.
func ContextWithQualifiedName(ctx context.Context, qualified string) context.Context {
	return context.WithValue(ctx, qualifiedNameKey{}, qualified)
}

// QualifiedNameFromContext returns the qualified tool name set by
// ContextWithQualifiedName, or "" when absent.
func QualifiedNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(qualifiedNameKey{}).(string); ok {
		return v
	}
	return ""
}
