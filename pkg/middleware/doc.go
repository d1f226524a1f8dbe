// Package middleware wraps reactive change callbacks with metrics, tracing and
// logging.
//
// A Middleware takes the next ChangeFunc and returns one that does extra work
// around it. Chain composes them so the first middleware is outermost:
//
//	onChange := middleware.Chain(push,
//	    middleware.OpenTelemetry(middleware.WithTracerName("shop")),
//	    middleware.Prometheus(middleware.WithNamespace("shop")),
//	    middleware.Logging(logger),
//	)
//	rx := reactive.FromURL(u, defaults, onChange, nil)
package middleware
