package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/middleware"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// SetupRoutes configures the application's routes. Every route under /api
// passes through the session guard; the guard's bypass set exempts login,
// register, refresh and the system endpoints, which have no session to check.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	allowedOrigins := getAllowedOrigins()
	r.Use(corsMiddleware(allowedOrigins))

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestLogger())
	r.Use(s.sessionGuard.Validate)

	jwtProvider := auth.NewJWTAuthProvider(s.authProviders.JWTService)

	// System endpoints (unprotected)
	r.Group(func(r chi.Router) {
		r.Get(constants.HealthPath, func(w http.ResponseWriter, r *http.Request) {
			if err := s.Db.HealthCheck(r.Context()); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				utils.Error(w, http.StatusServiceUnavailable, "service_unavailable", "Service is not healthy", nil)
				return
			}

			utils.JSON(w, http.StatusOK, map[string]string{
				"status":  "healthy",
				"version": s.Config.App.Version,
			})
		})

		r.Get(constants.VersionPath, func(w http.ResponseWriter, r *http.Request) {
			utils.JSON(w, http.StatusOK, map[string]string{
				"version":     s.Config.App.Version,
				"environment": s.Config.App.Environment,
			})
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Authentication routes
		r.Route("/auth", func(r chi.Router) {
			// Public auth endpoints
			r.Group(func(r chi.Router) {
				r.Post("/register", s.Handlers.AuthHandler.Register)
				r.Post("/login", s.Handlers.AuthHandler.Login)
				r.Post("/refresh", s.Handlers.AuthHandler.RefreshToken)
				r.Post("/logout", s.Handlers.AuthHandler.Logout)
			})

			// Protected auth endpoints
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(jwtProvider))
				r.Post("/logout-all", s.Handlers.AuthHandler.LogoutAll)
			})
		})

		// Session introspection routes (protected)
		r.Route("/sessions", func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtProvider))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", s.Handlers.SessionHandler.ListMySessions)
				r.Delete("/{"+constants.ParamSessionID+"}", s.Handlers.SessionHandler.TerminateMySession)
			})
		})

		// Administrative session management (protected, admin only)
		r.Route("/admin/sessions", func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtProvider))
			r.Use(auth.RequireAdmin)

			r.Get("/", s.Handlers.SessionHandler.AdminListSessions)
			r.Get("/count", s.Handlers.SessionHandler.AdminSessionStats)
			r.Delete("/inactive", s.Handlers.SessionHandler.AdminPurgeSessions)
			r.Get("/user/{"+constants.ParamUserID+"}", s.Handlers.SessionHandler.AdminListUserSessions)
			r.Delete("/user/{"+constants.ParamUserID+"}", s.Handlers.SessionHandler.AdminTerminateUserSessions)
			r.Delete("/{"+constants.ParamSessionID+"}", s.Handlers.SessionHandler.AdminTerminateSession)
		})
	})

	s.router = r
}

// GetRouter returns the configured router. Used by tests.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// corsMiddleware adds CORS headers for allowed origins and answers OPTIONS
// preflight requests.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")

					if r.Method != http.MethodOptions {
						next.ServeHTTP(w, r)
						return
					}

					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
					w.Header().Set("Access-Control-Max-Age", "300")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getAllowedOrigins reads allowed CORS origins from the ALLOWED_ORIGINS
// environment variable, falling back to localhost development defaults.
func getAllowedOrigins() []string {
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv != "" {
		origins := strings.Split(allowedOriginsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		log.Info().Strs("allowed_origins", origins).Msg("Using CORS allowed origins from environment")
		return origins
	}

	defaultOrigins := []string{"http://localhost:5173", "https://localhost:5173"}
	log.Info().Strs("allowed_origins", defaultOrigins).Msg("Using default CORS allowed origins")
	return defaultOrigins
}
