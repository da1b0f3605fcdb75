// File: utils/constants.go
package utils

import "time"

// CatalogCachePrefix is the prefix used for Redis catalog cache keys.
const CatalogCachePrefix = "catalog:"

// DefaultCatalogCacheTTL applies when CATALOG_CACHE_TTL is unset.
const DefaultCatalogCacheTTL = 5 * time.Minute

// SessionContextKey is where the auth middleware stores the caller's models.Session.
const SessionContextKey = "session"

// DateLayout and ClockLayout are the wire formats for booking dates and slot times.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)
