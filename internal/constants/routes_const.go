package constants

// Auth endpoint paths, referenced by both the router and the session guard's
// default bypass set. The guard must never do a session lookup on these: login
// has no session yet, refresh is gated by its own interceptor, and health
// checks must not touch storage.
const (
	RouteLogin     = "/api/auth/login"
	RouteRegister  = "/api/auth/register"
	RouteRefresh   = "/api/auth/refresh"
	RouteLogout    = "/api/auth/logout"
	RouteLogoutAll = "/api/auth/logout-all"
)

// DefaultBypassPaths are the paths excluded from session validation unless the
// configuration overrides the set.
var DefaultBypassPaths = []string{
	RouteLogin,
	RouteRegister,
	RouteRefresh,
	HealthPath,
	VersionPath,
}
