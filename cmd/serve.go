package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spinsync/spinsync/internal/repositories"
	"github.com/spinsync/spinsync/internal/server"
	"github.com/spinsync/spinsync/internal/services"
	"github.com/spinsync/spinsync/internal/shared"
	"github.com/spinsync/spinsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve builds the dependency graph from configuration and runs the HTTP
// server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if config.Server.LogLevel != "" {
		level, err := log.ParseLevel(config.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: server.log_level %q", shared.ErrInvalidConfig, config.Server.LogLevel)
		}
		shared.SetLogLevel(r.logger, level)
	}

	store, closeStore, err := r.newSessionStore(config)
	if err != nil {
		return err
	}
	defer closeStore()
	r.logger.Info("session store ready", "backend", config.Sessions.Backend)

	manager := services.NewTokenManager(services.ManagerOpts{
		ClientID:     config.Credentials.Spotify.ClientID,
		ClientSecret: config.Credentials.Spotify.ClientSecret,
		RedirectURL:  config.Credentials.Spotify.RedirectURI,
		Store:        store,
		HTTPClient:   r.httpClient,
		Logger:       shared.WithLogger(r.logger, "component", "auth"),
	})

	client := services.NewSpotifyClient(services.ClientOpts{
		HTTPClient: r.httpClient,
		Timeout:    time.Duration(config.Server.UpstreamTimeoutSeconds) * time.Second,
		RateLimit:  config.Mix.RateLimit,
	})

	engine := tasks.NewMixEngine(client, tasks.NewMixOpts(config.Mix), shared.WithLogger(r.logger, "component", "mix"))

	srv := server.NewServer(server.Opts{
		Config:  config,
		Auth:    manager,
		Service: client,
		Engine:  engine,
		Logger:  shared.WithLogger(r.logger, "component", "http"),
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// newSessionStore builds the session store selected by sessions.backend. The
// returned closer releases the backing connection, if any.
func (r *Runner) newSessionStore(config *shared.Config) (repositories.SessionRepository, func() error, error) {
	noop := func() error { return nil }

	switch config.Sessions.Backend {
	case "memory":
		return repositories.NewMemorySessionRepository(), noop, nil

	case "sqlite":
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}

		applied, err := shared.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if applied > 0 {
			r.logger.Info("applied migrations", "count", applied)
		}

		return repositories.NewSQLiteSessionRepository(db), db.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		ttl := time.Duration(config.Sessions.TTLHours) * time.Hour

		return repositories.NewRedisSessionRepository(client, ttl), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown sessions backend %q", shared.ErrInvalidConfig, config.Sessions.Backend)
	}
}
