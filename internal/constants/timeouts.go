// Package constants provides shared constant values used throughout the application.
package constants

import "time"

// Server lifecycle timeouts.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Session engine storage I/O bounds. The lookup bound is tight because it sits
// on every request; a timeout there fails open. The touch bound is looser
// because a touch runs after the response and a timeout there just drops the
// write.
const (
	DefaultSessionLookupTimeout = 2 * time.Second
	DefaultSessionTouchTimeout  = 3 * time.Second
)

// Background sweep bounds.
const (
	DefaultSweepRunTimeout = 1 * time.Minute
)
