package middleware

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactiveurl/pkg/query"
	"github.com/vango-dev/reactiveurl/pkg/reactive"
)

const (
	defaultTracerName = "reactiveurl"

	// SpanName is the name of the span recorded for each change.
	SpanName = "reactiveurl.change"
)

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "reactiveurl").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider the tracer is taken from.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.Provider = tp
	}
}

// OpenTelemetry records a span around every change notification.
//
// The span carries the snapshot size and its sorted keys. A panic in the
// wrapped callback is recorded on the span and re-raised.
//
// The tracer uses the global provider unless WithTracerProvider is given;
// configure it in main() before building the middleware.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	tracer := config.Provider.Tracer(config.TracerName)

	return func(next reactive.ChangeFunc) reactive.ChangeFunc {
		return func(q query.RawQuery) {
			keys := make([]string, 0, len(q))
			for k := range q {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			_, span := tracer.Start(context.Background(), SpanName,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.Int("reactiveurl.fields", len(q)),
					attribute.StringSlice("reactiveurl.keys", keys),
				),
			)
			defer span.End()

			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("change callback panicked: %v", r)
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
					panic(r)
				}
			}()

			next(q)
			span.SetStatus(codes.Ok, "")
		}
	}
}
