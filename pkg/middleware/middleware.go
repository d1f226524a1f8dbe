package middleware

import (
	"log/slog"

	"github.com/vango-dev/reactiveurl/pkg/query"
	"github.com/vango-dev/reactiveurl/pkg/reactive"
)

// Middleware decorates a change callback.
type Middleware func(next reactive.ChangeFunc) reactive.ChangeFunc

// Chain wraps fn with mws, the first being outermost. A nil fn becomes a no-op.
func Chain(fn reactive.ChangeFunc, mws ...Middleware) reactive.ChangeFunc {
	if fn == nil {
		fn = func(query.RawQuery) {}
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			fn = mws[i](fn)
		}
	}
	return fn
}

// Logging logs every change at debug level.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next reactive.ChangeFunc) reactive.ChangeFunc {
		return func(q query.RawQuery) {
			logger.Debug("query changed", "fields", len(q))
			next(q)
		}
	}
}
