// Package server implements the kgview HTTP API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kgview/pkg/examples"
	"github.com/matzehuels/kgview/pkg/pipeline"
	"github.com/matzehuels/kgview/pkg/render"
	"github.com/matzehuels/kgview/pkg/store"
)

// Defaults for zero-valued Config fields.
const (
	DefaultAddr            = ":8000"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 32 << 20
)

// Config holds the dependencies and settings of a Server.
type Config struct {
	Runner   *pipeline.Runner
	Store    store.Store
	Examples *examples.Catalog
	Logger   *log.Logger

	// Template replaces the built-in visualization template.
	Template []byte

	// Locale is the collation locale used when a request names none.
	Locale string

	Addr            string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Server is the HTTP API server.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	examples *examples.Catalog
	logger   *log.Logger
	template []byte
	locale   string

	addr            string
	shutdownTimeout time.Duration
	maxBodyBytes    int64
}

// New creates a server, filling unset fields with defaults: an uncached
// runner, an in-memory store, the built-in examples and template.
func New(cfg Config) *Server {
	s := &Server{
		runner:          cfg.Runner,
		store:           cfg.Store,
		examples:        cfg.Examples,
		logger:          cfg.Logger,
		template:        cfg.Template,
		locale:          cfg.Locale,
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		maxBodyBytes:    cfg.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.examples == nil {
		s.examples = examples.Builtin()
	}
	if len(s.template) == 0 {
		s.template = render.DefaultTemplate()
	}
	if s.locale == "" {
		s.locale = pipeline.DefaultLocale
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = DefaultShutdownTimeout
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	return s
}

// Handler returns the router with all middleware and routes installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestID,
		s.logRequests,
		middleware.Recoverer,
		cors,
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/template", s.handleTemplate)

	r.Route("/api", func(api chi.Router) {
		api.Get("/examples", s.handleListExamples)
		api.Get("/examples/{slug}", s.handleGetExample)

		api.Post("/graph/view", s.handleView)
		api.Post("/graph/render", s.handleRender)

		api.Post("/graphs", s.handleSaveGraph)
		api.Get("/graphs", s.handleListGraphs)
		api.Get("/graphs/{id}", s.handleGetGraph)
		api.Get("/graphs/{id}/download", s.handleDownloadGraph)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound(r.URL.Path))
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting API server", "addr", "http://"+ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
