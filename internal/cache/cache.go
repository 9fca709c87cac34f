// Package cache implements the TTL response cache that sits in front of the
// read API. Entries are keyed by logical endpoint name; an explicit refresh
// clears the whole cache, not just the matching key.
package cache

import (
	"context"
	"time"
)

// ResponseCache is the boundary the read API sees. A miss is not an error.
type ResponseCache interface {
	// Get returns the cached bytes for key and whether they were present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// Stats summarizes cache effectiveness.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int64 `json:"entries"`
}
