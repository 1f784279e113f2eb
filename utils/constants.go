// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 12 * time.Hour

// SessionHeader carries the visitor session id that keys carts and drafts.
const SessionHeader = "X-Session-ID"
