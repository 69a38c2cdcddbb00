package ports

import "context"

// CacheKey is the logical identity of a cached upstream response. The
// store derives a stable content digest from it, so identical parameters
// hit the same entry across process restarts.
type CacheKey struct {
	Namespace  string
	APIVersion string
	Region     string
	Query      string
}

// CacheStore is TTL-bounded persistence for upstream API payloads.
// Get returns ok=false on absence, TTL expiry, or checksum failure;
// callers treat all three identically as a miss. Put fully replaces any
// prior value atomically.
type CacheStore interface {
	Get(ctx context.Context, key CacheKey) (payload []byte, ok bool, err error)
	Put(ctx context.Context, key CacheKey, payload []byte) error
	Invalidate(ctx context.Context, key CacheKey) error
	PurgeAll(ctx context.Context) error
}
