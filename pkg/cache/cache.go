package cache

// FetchingCache materializes remote resources onto local disk,
// caching them keyed by resource identity and version. Safe for use
// from multiple goroutines and from multiple cooperating processes
// sharing the same cache directory.
type FetchingCache interface {
	// Get fetches the resource at uri and copies its bytes to target.
	// The resource version is resolved first; a cached copy of that
	// version is reused if present, otherwise the resource is
	// downloaded and published into the cache. Older cached versions
	// of the same resource are evicted in the background.
	Get(uri string, target string) error

	// CleanUpOlderResourceVersions removes the cached data of all
	// versions of resourceID older than keepVersion. Lock files and
	// version directories are retained.
	CleanUpOlderResourceVersions(resourceID string, keepVersion int64) error

	// GetResourceCacheId returns the cache identity of a URI.
	GetResourceCacheId(uri string) string

	// Path accessors for the on-disk entry of a resource version.
	GetCacheResourceVersionDataFile(id string, version int64) string
	GetCacheResourceVersionDownloadFile(id string, version int64) string
	GetCacheResourceVersionLockFile(id string, version int64) string

	// Statistics returns counters accumulated by this instance.
	Statistics() CacheStats
}

// CleanupExecutor runs eviction tasks in the background.
// Submission must not block the caller.
type CleanupExecutor interface {
	Submit(task func())
}

// Cache statistics
type CacheStats struct {
	// Number of Get calls served from a cached version
	Hits int64

	// Number of Get calls that had to download
	Misses int64

	// Number of version data files removed by eviction
	Evictions int64
}
