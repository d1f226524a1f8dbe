package middleware

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/reactiveurl/pkg/query"
	"github.com/vango-dev/reactiveurl/pkg/reactive"
)

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next reactive.ChangeFunc) reactive.ChangeFunc {
			return func(q query.RawQuery) {
				order = append(order, name+":before")
				next(q)
				order = append(order, name+":after")
			}
		}
	}

	fn := Chain(func(query.RawQuery) { order = append(order, "handler") }, tag("outer"), nil, tag("inner"))
	fn(query.RawQuery{})

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order: got %v, want %v", order, want)
	}
}

func TestChainNilHandler(t *testing.T) {
	called := false
	fn := Chain(nil, func(next reactive.ChangeFunc) reactive.ChangeFunc {
		return func(q query.RawQuery) {
			called = true
			next(q)
		}
	})
	fn(query.RawQuery{"q": "x"})
	if !called {
		t.Error("middleware was not called")
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	got := 0
	fn := Chain(func(q query.RawQuery) { got = len(q) }, Logging(logger))
	fn(query.RawQuery{"a": 1, "b": 2})

	if got != 2 {
		t.Errorf("handler saw %d fields, want 2", got)
	}
	if !strings.Contains(buf.String(), "query changed") || !strings.Contains(buf.String(), "fields=2") {
		t.Errorf("log output: %q", buf.String())
	}
}
