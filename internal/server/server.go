// package server contains middleware & handlers for the SpinSync web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/services"
	"github.com/spinsync/spinsync/internal/shared"
	"github.com/spinsync/spinsync/internal/tasks"
)

// Authenticator is the token lifecycle surface the handlers consume.
// This abstraction allows for easier testing and decoupling from the concrete manager.
type Authenticator interface {
	// LoginURL returns the authorization URL that starts the OAuth flow.
	LoginURL(state string) string

	// Exchange trades an authorization code for a fresh session.
	Exchange(ctx context.Context, code string) (*models.Session, error)

	// Access returns a valid access token for the session, refreshing if needed.
	Access(ctx context.Context, sessionID string) (string, error)

	// RefreshSession forces a refresh grant for the session.
	RefreshSession(ctx context.Context, sessionID string) (*models.Session, error)

	// Logout discards the session record.
	Logout(ctx context.Context, sessionID string) error
}

// Server exposes the SpinSync HTTP API.
type Server struct {
	config  *shared.Config
	auth    Authenticator
	service services.Service
	engine  tasks.Engine
	logger  *log.Logger
	http    *http.Server
}

// Opts contains configuration for creating a [Server].
type Opts struct {
	Config  *shared.Config
	Auth    Authenticator
	Service services.Service
	Engine  tasks.Engine
	Logger  *log.Logger
}

// NewServer creates a Server with its routes and middleware assembled.
func NewServer(opts Opts) *Server {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := &Server{
		config:  opts.Config,
		auth:    opts.Auth,
		service: opts.Service,
		engine:  opts.Engine,
		logger:  opts.Logger,
	}

	s.http = &http.Server{
		Addr:              opts.Config.Server.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// routes assembles the chi router with the middleware stack and route table.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	// The SPA lives on another origin and sends the session cookie with
	// every request, so credentials must be allowed for the configured
	// origins.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLogin)
	r.Get("/callback", s.handleCallback)
	r.Get("/refresh-token", s.handleRefreshToken)
	r.Get("/me", s.handleProfile)

	r.Route("/history", func(rr chi.Router) {
		rr.Get("/top-tracks", s.handleTopTracks)
		rr.Get("/recent-tracks", s.handleRecentTracks)
	})

	r.Post("/playlist", s.handleCreateMix)
	r.Post("/logout", s.handleLogout)
	r.Get("/health", s.handleHealth)

	return r
}

// requestLogger logs one line per request with method, path, status, and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Start begins serving HTTP requests and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the assembled route tree.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
