package identity

import "time"

// Cache configuration
const (
	// DefaultCacheSize is the number of resolved handles kept in memory
	DefaultCacheSize = 10000

	// DefaultCacheTTL bounds how long a resolved handle is trusted without a lookup
	DefaultCacheTTL = 10 * time.Minute

	// CacheSchemaVersion invalidates cached entries when their shape changes
	CacheSchemaVersion = "1.0"
)

const (
	LogMsgHandleLinked     = "External handle linked"
	LogMsgHandleUnresolved = "External handle is not linked"
)

const (
	ErrContextFailedToResolve = "failed to resolve handle: %w"
	ErrContextFailedToLink    = "failed to link handle: %w"
)
