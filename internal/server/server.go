// Package server provides the HTTP server for the SessionWarden API.
// It handles routing, middleware configuration, and server lifecycle
// management, including graceful shutdown and the background idle sweep.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/config"
	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/database"
	"github.com/sessionwarden/sessionwarden/internal/handlers"
	"github.com/sessionwarden/sessionwarden/internal/middleware"
	"github.com/sessionwarden/sessionwarden/internal/repository"
	"github.com/sessionwarden/sessionwarden/internal/service"
	"github.com/sessionwarden/sessionwarden/internal/utils/liveness"
	"github.com/sessionwarden/sessionwarden/migrations"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	// AuthHandler manages registration, login, refresh and logout endpoints
	AuthHandler *handlers.AuthHandler

	// SessionHandler manages session introspection and management endpoints
	SessionHandler *handlers.SessionHandler
}

// AuthProviders contains the authentication components the server wires into
// middleware and services.
type AuthProviders struct {
	// JWTService handles JWT token generation and validation
	JWTService *auth.JWTService

	// PasswordCfg contains password hashing configuration
	PasswordCfg *auth.PasswordConfig

	// Vault fingerprints and encrypts token material at rest
	Vault *auth.TokenVault
}

// repositories holds the data access layer.
type repositories struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

// services holds the business logic layer.
type services struct {
	authService    *service.AuthService
	sessionService *service.SessionService
}

// Server represents the SessionWarden API server. It encapsulates all
// components and handles lifecycle management from initialization through
// graceful shutdown.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	router        chi.Router
	authProviders *AuthProviders
	repositories  repositories
	services      services
	sessionGuard  *middleware.SessionGuard
	httpServer    *http.Server

	// maintenanceStop terminates the background idle sweep
	maintenanceStop chan struct{}
}

// NewServer creates a new server instance with all required components.
// Initialization follows dependency order: database, auth providers,
// repositories, services, handlers, routes.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	s := &Server{
		Config:          cfg,
		maintenanceStop: make(chan struct{}),
	}

	if err := s.setupDatabase(); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	if err := s.setupAuthProviders(); err != nil {
		return nil, fmt.Errorf("failed to set up auth providers: %w", err)
	}

	s.setupRepositories()
	s.setupServices()
	s.setupHandlers()
	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupDatabase connects to the database and runs migrations so the schema
// is current before any request is served.
func (s *Server) setupDatabase() error {
	db, err := database.Connect(s.Config)
	if err != nil {
		return err
	}
	s.Db = db

	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// setupAuthProviders initializes the JWT service, password hashing
// configuration and the token vault. The vault refuses to start on a weak
// encryption key, which aborts server startup.
func (s *Server) setupAuthProviders() error {
	vault, err := auth.NewTokenVault([]byte(s.Config.Session.EncryptionKey))
	if err != nil {
		return fmt.Errorf("failed to create token vault: %w", err)
	}

	s.authProviders = &AuthProviders{
		JWTService:  auth.NewJWTService(&s.Config.JWT),
		PasswordCfg: auth.ConfigFromAppConfig(s.Config),
		Vault:       vault,
	}

	return nil
}

func (s *Server) setupRepositories() {
	s.repositories.userRepo = repository.NewUserRepository(s.Db)
	s.repositories.sessionRepo = repository.NewSessionRepository(s.Db)
}

func (s *Server) setupServices() {
	s.services.sessionService = service.NewSessionService(
		s.repositories.sessionRepo,
		s.authProviders.Vault,
		&s.Config.Session,
	)

	s.services.authService = service.NewAuthService(
		s.repositories.userRepo,
		s.services.sessionService,
		s.authProviders.JWTService,
		s.authProviders.PasswordCfg,
	)
}

func (s *Server) setupHandlers() {
	s.Handlers = &Handlers{
		AuthHandler:    handlers.NewAuthHandler(s.services.authService, s.authProviders.JWTService),
		SessionHandler: handlers.NewSessionHandler(s.services.sessionService),
	}

	cache := liveness.NewCache(
		s.Config.Session.TouchInterval,
		s.Config.Session.CacheMaxEntries,
		s.Config.Session.CacheRetention,
	)
	s.sessionGuard = middleware.NewSessionGuard(s.services.sessionService, cache, &s.Config.Session)
}

// Start starts the HTTP server and blocks until a fatal error or a shutdown
// signal. Maintenance tasks are started alongside the listener.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server: in-flight requests complete,
// the idle sweep stops, and the database connection is closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")

	close(s.maintenanceStop)

	s.Db.Close()
	log.Info().Msg("Database connection closed")

	return nil
}

// SetupMaintenanceTasks starts the background idle sweep. It runs once
// immediately so sessions that went stale while the server was down are
// marked idle, then on every sweep interval tick until shutdown.
func (s *Server) SetupMaintenanceTasks() {
	go func() {
		s.runIdleSweep()

		ticker := time.NewTicker(s.Config.Session.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runIdleSweep()
			case <-s.maintenanceStop:
				return
			}
		}
	}()
}

// runIdleSweep marks sessions whose last activity predates the idle timeout.
func (s *Server) runIdleSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultSweepRunTimeout)
	defer cancel()

	if count, err := s.services.sessionService.DeactivateIdleSessions(ctx); err != nil {
		log.Error().Err(err).Msg("Idle session sweep failed")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("Marked stale sessions idle")
	}
}
