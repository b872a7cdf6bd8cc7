// Package middleware provides HTTP middleware components.
//
// This file contains the session guard, the per-request enforcement point of
// the lifecycle engine. It runs after token authentication and decides, from
// the session record behind the presented token, whether the request may
// proceed: live sessions pass, idle sessions are reactivated in place,
// revoked sessions are rejected with the generic termination error, and
// unknown fingerprints pass permissively unless strict mode is on.
package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/config"
	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/utils"
	"github.com/sessionwarden/sessionwarden/internal/utils/liveness"
)

// SessionResolver is the slice of the session service the guard needs.
type SessionResolver interface {
	ResolveAccessToken(ctx context.Context, accessToken string) (*models.Session, error)
	Reactivate(ctx context.Context, sessionID string, at time.Time) (bool, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
}

// SessionGuard validates the session state behind each authenticated request.
type SessionGuard struct {
	resolver SessionResolver
	cache    *liveness.Cache
	settings *config.SessionSettings
	bypass   map[string]struct{}
}

// NewSessionGuard creates a session guard.
//
// Parameters:
//   - resolver: The session service handling lookups and transitions
//   - cache: The process-local liveness cache rate-limiting touches
//   - settings: The session engine configuration
//
// Returns:
//   - A configured SessionGuard
func NewSessionGuard(resolver SessionResolver, cache *liveness.Cache, settings *config.SessionSettings) *SessionGuard {
	bypass := make(map[string]struct{}, len(constants.DefaultBypassPaths))
	for _, path := range constants.DefaultBypassPaths {
		bypass[path] = struct{}{}
	}
	return &SessionGuard{
		resolver: resolver,
		cache:    cache,
		settings: settings,
		bypass:   bypass,
	}
}

// Validate is the middleware entry point. It assumes token authentication has
// already run; requests without a bearer token pass through untouched.
func (g *SessionGuard) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := g.bypass[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		token := auth.ExtractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, proceed := g.check(w, r, token)
		if !proceed {
			return
		}

		if session != nil {
			r = r.WithContext(auth.WithSession(r.Context(), session))
		}

		next.ServeHTTP(w, r)

		// Record liveness after the response is written so the touch never
		// adds latency to the request. The cache elects at most one writer
		// per session per touch interval.
		if session != nil && g.cache.ShouldTouch(session.ID, time.Now()) {
			go g.touch(session.ID)
		}
	})
}

// check resolves the token's session and applies the lifecycle decision.
// Returns the session to attach (nil for a permissive pass) and whether the
// request may proceed. When it returns false the response has been written.
func (g *SessionGuard) check(w http.ResponseWriter, r *http.Request, token string) (*models.Session, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), g.settings.LookupTimeout)
	defer cancel()

	session, err := g.resolver.ResolveAccessToken(ctx, token)
	if err != nil {
		if utils.IsNotFoundError(err) {
			// No session claims this fingerprint. The token already passed
			// signature validation upstream, so by default we let it through;
			// strict deployments reject tokens the engine has no record of.
			if g.settings.Strict {
				utils.SessionTerminated(w)
				return nil, false
			}
			return nil, true
		}

		// Lookup failure (storage down, timeout). Fail open: a validated
		// token keeps working when the engine itself is degraded.
		log.Error().
			Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Session lookup failed, failing open")
		return nil, true
	}

	switch session.Status {
	case models.StatusLive:
		return session, true

	case models.StatusIdle:
		now := time.Now().UTC()
		reactivated, err := g.resolver.Reactivate(ctx, session.ID, now)
		if err != nil {
			log.Error().
				Err(err).
				Str("session_id", session.ID).
				Msg("Session reactivation failed, failing open")
			return session, true
		}
		if !reactivated {
			// Lost a race with a revocation. The session is gone for good.
			g.cache.Forget(session.ID)
			utils.SessionTerminated(w)
			return nil, false
		}
		session.Status = models.StatusLive
		session.LastActiveAt = now
		return session, true

	default: // StatusRevoked
		g.cache.Forget(session.ID)
		utils.SessionTerminated(w)
		return nil, false
	}
}

// touch persists a liveness touch in the background.
func (g *SessionGuard) touch(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), g.settings.TouchTimeout)
	defer cancel()

	if err := g.resolver.Touch(ctx, sessionID, time.Now().UTC()); err != nil {
		// A dropped touch only delays the idle sweep; never surface it.
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("Liveness touch failed")
	}
}
