package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactiveurl/internal/errors"
	"github.com/vango-dev/reactiveurl/pkg/debounce"
	changemw "github.com/vango-dev/reactiveurl/pkg/middleware"
	"github.com/vango-dev/reactiveurl/pkg/query"
	"github.com/vango-dev/reactiveurl/pkg/reactive"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address (default: ":8080").
	Address string

	// Page is the path the query string is appended to (default: "/").
	Page string

	// Query is the initial query string of the page.
	Query string

	// Defaults maps every tracked field to its default value.
	Defaults query.RawQuery

	// FilterKeys lists fields stored as filter[key]. nil means all fields.
	FilterKeys []string

	// Debounce is the quiet interval before a URL is pushed (default: 300ms).
	Debounce time.Duration

	// ExceptPaginator drops limit and page from pushed URLs.
	ExceptPaginator bool

	// Metrics enables the Prometheus middleware and the /metrics route.
	Metrics bool

	// MetricsNamespace is the Prometheus namespace (default: "reactiveurl").
	MetricsNamespace string

	// Registry receives the metrics. Default: a new registry per server.
	Registry *prometheus.Registry

	// TracerName names the OpenTelemetry tracer (default: "reactiveurl").
	TracerName string

	// CheckOrigin validates websocket origins. Default: allow all.
	CheckOrigin func(*http.Request) bool

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.Page == "" {
		c.Page = "/"
	}
	if c.Defaults == nil {
		c.Defaults = query.RawQuery{}
	}
	if c.Debounce <= 0 {
		c.Debounce = debounce.DefaultDelay
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = "reactiveurl"
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.TracerName == "" {
		c.TracerName = "reactiveurl"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server serves one ReactiveURL over HTTP and websocket.
type Server struct {
	config Config
	logger *slog.Logger

	rx     *reactive.ReactiveURL
	pushes *debounce.Debouncer[query.RawQuery]
	hub    *Hub
	router chi.Router

	// urlMu guards the query store shared by clones of rx.QueryParams().
	urlMu sync.Mutex

	httpServer *http.Server
}

// New creates a Server. It fails only if config.Query cannot be parsed.
func New(config Config) (*Server, error) {
	config.applyDefaults()

	s := &Server{
		config: config,
		logger: config.Logger.With("component", "server"),
	}
	s.hub = NewHub(config.CheckOrigin, s.logger)
	s.pushes = debounce.New(s.push, config.Debounce)

	mws := []changemw.Middleware{
		changemw.OpenTelemetry(changemw.WithTracerName(config.TracerName)),
	}
	if config.Metrics {
		mws = append(mws, changemw.Prometheus(
			changemw.WithRegistry(config.Registry),
			changemw.WithNamespace(config.MetricsNamespace),
		))
	}
	mws = append(mws, changemw.Logging(s.logger))
	onChange := changemw.Chain(s.pushes.Change, mws...)

	rx, err := reactive.FromQueryString(config.Query, config.Defaults, onChange, config.FilterKeys,
		reactive.WithLogger(config.Logger.With("component", "reactiveurl")))
	if err != nil {
		return nil, errors.New("R120").WithDetail(config.Query).Wrap(err)
	}
	s.rx = rx

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/state", s.handleGetState)
	r.Patch("/state", s.handlePatchState)
	r.Delete("/state", s.handleResetState)
	r.Put("/state/{field}", s.handlePutField)
	r.Get("/url", s.handleGetURL)
	r.Get("/ws", s.handleWebSocket)
	if s.config.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// ReactiveURL returns the tracked fields.
func (s *Server) ReactiveURL() *reactive.ReactiveURL {
	return s.rx
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// PageURL syncs the query store with snapshot and returns the page URL.
// Fields equal to their default are removed.
func (s *Server) PageURL(snapshot query.RawQuery) string {
	minimal := make(query.RawQuery, len(snapshot))
	for field, value := range snapshot {
		if query.FormatValue(value) == query.FormatValue(s.rx.DefaultValue(field, nil)) {
			minimal[field] = nil
		} else {
			minimal[field] = value
		}
	}

	s.urlMu.Lock()
	defer s.urlMu.Unlock()

	qp := s.rx.QueryParams().Fill(minimal)
	if s.config.ExceptPaginator {
		qp.ExceptPaginator()
	}
	return qp.AppendToURL(s.config.Page)
}

func (s *Server) message(snapshot query.RawQuery) Message {
	return Message{
		Type:  MessageTypeURL,
		URL:   s.PageURL(snapshot),
		Query: snapshot,
	}
}

// push is the debounced end of the change pipeline.
func (s *Server) push(snapshot query.RawQuery) {
	msg := s.message(snapshot)
	s.logger.Debug("pushing url", "url", msg.URL, "clients", s.hub.ClientCount())
	s.hub.Broadcast(msg)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address, "page", s.config.Page)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.New("R161").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown pushes any pending URL, disconnects websocket clients and stops
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.pushes.Flush()
	s.hub.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return errors.New("R161").Wrap(err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
