// Package constants provides shared constant values used throughout the application.
package constants

import "time"

// Server defaults.
const (
	DefaultServerPort = 8080
)

// Session lifecycle defaults. All three are independently tunable through
// SessionSettings; these are the values used when the config omits them.
const (
	// DefaultSessionIdleTimeout is how long a live session may go without a
	// recorded liveness touch before the sweep marks it idle.
	DefaultSessionIdleTimeout = 30 * time.Minute

	// DefaultTouchInterval is the minimum gap between persisted liveness
	// touches for a single session.
	DefaultTouchInterval = 30 * time.Second

	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultPurgeRetention is how long revoked and idle sessions are kept
	// before a purge removes their rows.
	DefaultPurgeRetention = 30 * 24 * time.Hour
)

// Liveness cache bounds.
const (
	// DefaultLivenessCacheMaxEntries is the high-water mark above which the
	// cache purges stale entries.
	DefaultLivenessCacheMaxEntries = 10000

	// DefaultLivenessCacheRetention is how long an entry may sit untouched
	// before a purge pass removes it.
	DefaultLivenessCacheRetention = 1 * time.Hour
)

// JWT defaults.
const (
	DefaultJWTExpiry        = 15 * time.Minute
	DefaultJWTRefreshExpiry = 7 * 24 * time.Hour
	DefaultJWTIssuer        = "sessionwarden"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
