// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It is the composition root for the chi router: guards are attached here,
    never inside domain packages.
  - Only this package and cmd/gate are allowed to import net/http server primitives.
*/
package api

import (
	stdctx "context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/platform/config"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/middleware"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/users/account"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/internal/web"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler and always returns 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler and returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Guard evaluates the session gate for pages and APIs.
	Guard *gate.Guard

	// Session exposes the session record, gate decisions and the event stream.
	Session *gate.Handler

	// Auth handles login, registration, two-factor and identity providers.
	Auth *auth.Handler

	// Account is the admin directory.
	Account *account.Handler

	// Web serves the page shell.
	Web *web.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context stdctx.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {

		// The session router holds the event stream, so it runs without the request timeout.
		api.Mount("/session", h.Session.Routes())

		api.Group(func(timed chi.Router) {
			timed.Use(chimw.Timeout(constants.GlobalRequestTimeout))

			timed.Route("/auth", func(r chi.Router) {
				r.Use(h.Guard.Attach)
				r.Mount("/", h.Auth.Routes())
			})

			timed.Route("/admin", func(r chi.Router) {
				r.Use(h.Guard.RequireAPI)
				r.Use(middleware.RequireRole(sec.RoleAdmin))
				r.Mount("/", h.Account.Routes())
			})
		})
	})

	// # Pages
	r.Group(func(pages chi.Router) {
		pages.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		pages.Mount("/", h.Web.Routes())
	})

	// Request contexts derive from base, so event streams end when shutdown begins.
	base, closeStreams := stdctx.WithCancel(context)
	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadTimeout:       constants.DefaultReadTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) stdctx.Context { return base },
	}
	httpServer.RegisterOnShutdown(closeStreams)

	return &Server{
		router:     r,
		log:        log,
		httpServer: httpServer,
	}
}

// Handler exposes the root router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
