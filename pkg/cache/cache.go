package cache

import "time"

// Cache stores NFT collection metadata looked up from the indexer.
// Collection records are immutable in practice, so a TTL cache in front
// of the registry API removes almost all repeat lookups.
type Cache interface {
	// Get retrieves a value. Returns (value, true) when present.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value.
	Delete(key string)

	// Clear removes all values.
	Clear()

	// Close releases the cache's resources.
	Close()
}
